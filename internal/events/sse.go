package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T to ch, dropping them when ch
// is full. SSE handlers select on the channel alongside their context.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
