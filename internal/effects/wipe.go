package effects

import (
	"time"

	"github.com/smazurov/stripnode/internal/pixel"
)

// Wipe fills the strip with white from the start, then clears it from the
// end. One cycle is 2N+1 frames.
type Wipe struct {
	length int
	delay  time.Duration
	frame  int
}

// NewWipe creates a wipe with a fixed per-frame delay.
func NewWipe(length int, delay time.Duration) *Wipe {
	return &Wipe{length: length, delay: delay}
}

// Name implements Effect.
func (w *Wipe) Name() string { return "wipe" }

// Step implements Effect.
func (w *Wipe) Step(buf pixel.Buffer) time.Duration {
	f := w.frame
	w.frame = (w.frame + 1) % (2*w.length + 1)

	switch {
	case f == 0:
	case f <= w.length:
		for i := 0; i < f; i++ {
			buf.Set(i, pixel.White)
		}
	default:
		for i := 0; i < 2*w.length-f; i++ {
			buf.Set(i, pixel.White)
		}
	}
	return w.delay
}
