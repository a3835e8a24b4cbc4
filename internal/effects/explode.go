package effects

import (
	"time"

	"github.com/smazurov/stripnode/internal/pixel"
)

// roygbiv is the band palette of the explode finale.
var roygbiv = [7][3]int{
	{255, 0, 0},
	{250, 150, 0},
	{250, 250, 0},
	{0, 250, 0},
	{0, 0, 250},
	{50, 0, 250},
	{250, 0, 250},
}

type frame struct {
	draw  func(buf pixel.Buffer)
	delay time.Duration
}

// Explode plays a fixed script: a spark at pixel 0, a white comet racing the
// length of the strip, a dim afterglow, then rainbow bands that grow back
// from the far end and fade out. The script loops.
type Explode struct {
	frames []frame
	pos    int
}

// NewExplode builds the script for a strip of length pixels.
func NewExplode(length int) *Explode {
	e := &Explode{}
	e.build(length)
	return e
}

// Name implements Effect.
func (e *Explode) Name() string { return "explode" }

// Step implements Effect.
func (e *Explode) Step(buf pixel.Buffer) time.Duration {
	f := e.frames[e.pos]
	e.pos = (e.pos + 1) % len(e.frames)
	f.draw(buf)
	return f.delay
}

// Frames returns the number of frames in one loop of the script.
func (e *Explode) Frames() int { return len(e.frames) }

func (e *Explode) build(n int) {
	seventh := n / 7

	for j := 0; j < 10; j++ {
		v := uint8(j * 20)
		e.add(75*time.Millisecond, func(buf pixel.Buffer) {
			buf.Set(0, pixel.Gray(v))
		})
	}

	for j := 0; j < n; j++ {
		head := j
		e.add(time.Duration((n-j)/4+5)*time.Millisecond, func(buf pixel.Buffer) {
			comet(buf, head, n)
		})
	}

	e.add(75*time.Millisecond, func(buf pixel.Buffer) {
		comet(buf, n-1, n)
		for i := n - seventh; i < n; i++ {
			buf.Set(i, pixel.Gray(10))
		}
	})

	for j := 1; j <= seventh; j++ {
		grow, div := j, j/2+1
		e.add(time.Duration(50+50*j)*time.Millisecond, func(buf pixel.Buffer) {
			bands(buf, n, grow, grow, div)
		})
	}

	for j := seventh; j <= seventh+5; j++ {
		div := max(j, 1)
		e.add(150*time.Millisecond, func(buf pixel.Buffer) {
			bands(buf, n, seventh, seventh, div)
		})
	}
}

func (e *Explode) add(delay time.Duration, draw func(buf pixel.Buffer)) {
	e.frames = append(e.frames, frame{draw: draw, delay: delay})
}

// comet draws a white head with a fading tail trailing towards pixel 0.
func comet(buf pixel.Buffer, head, n int) {
	buf.Set(head, pixel.White)
	for b := 1; b < tailLength; b++ {
		buf.Set(wrap(head-b, n), pixel.Gray(uint8(200/(b+1))))
	}
}

// bands draws seven bands of the given width counted back from the last
// pixel, spaced stride apart, with every channel divided by div.
func bands(buf pixel.Buffer, n, width, stride, div int) {
	for k := 0; k < width; k++ {
		for m, c := range roygbiv {
			buf.Set(n-1-k-stride*m, pixel.RGB(uint8(c[0]/div), uint8(c[1]/div), uint8(c[2]/div)))
		}
	}
}
