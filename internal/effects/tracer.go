package effects

import (
	"time"

	"github.com/smazurov/stripnode/internal/pixel"
)

const (
	tailLength    = 10
	tracerDelay   = 50 * time.Millisecond
	tracerDim     = 50
	tracerFalloff = 255 / tailLength
)

// Tracer runs two colored heads half a strip apart, each dragging a fading tail.
type Tracer struct {
	length int
	c1, c2 pixel.Color
	frame  counter
}

// NewTracer creates a dual tracer.
func NewTracer(length int, c1, c2 pixel.Color) *Tracer {
	return &Tracer{length: length, c1: c1, c2: c2}
}

// Name implements Effect.
func (t *Tracer) Name() string { return "tracer" }

// Step implements Effect.
func (t *Tracer) Step(buf pixel.Buffer) time.Duration {
	j := t.frame.advance()
	t.draw(buf, j%t.length, t.c1)
	t.draw(buf, (j+t.length/2)%t.length, t.c2)
	return tracerDelay
}

func (t *Tracer) draw(buf pixel.Buffer, head int, c pixel.Color) {
	buf.Set(head, c)
	for b := 1; b < tailLength; b++ {
		fade := uint8(tracerFalloff * b)
		buf.Set(wrap(head-b, t.length), pixel.RGB(
			satSub(satSub(c.R, tracerDim), fade),
			satSub(satSub(c.G, tracerDim), fade),
			satSub(satSub(c.B, tracerDim), fade),
		))
	}
}

func satSub(a, b uint8) uint8 {
	if a < b {
		return 0
	}
	return a - b
}

// wrap maps any index onto [0, n).
func wrap(i, n int) int {
	return ((i % n) + n) % n
}
