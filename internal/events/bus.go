// Package events carries render loop notifications to observers such as the
// status API, the systemd notifier and log stream clients.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Handlers run asynchronously, so
// publishing never blocks the render loop.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish delivers ev to every subscriber of its concrete type.
// Usage: bus.Publish(FrameRenderedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case EffectChangedEvent:
		event.Publish(b.dispatcher, e)
	case FrameRenderedEvent:
		event.Publish(b.dispatcher, e)
	case SinkErrorEvent:
		event.Publish(b.dispatcher, e)
	case PlaylistReloadedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter and
// returns the unsubscribe function. Unknown handler types are ignored.
// Usage: unsub := bus.Subscribe(func(e SinkErrorEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(EffectChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameRenderedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SinkErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaylistReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

