package effects

import (
	"time"

	"github.com/smazurov/stripnode/internal/pixel"
)

// Theatre lights every third pixel, shifting by one each frame.
type Theatre struct {
	length int
	delay  time.Duration
	frame  counter
}

// NewTheatre creates a theatre chase for length pixels.
func NewTheatre(length int, delay time.Duration) *Theatre {
	return &Theatre{length: length, delay: delay}
}

// Name implements Effect.
func (t *Theatre) Name() string { return "theatre" }

// Step implements Effect.
func (t *Theatre) Step(buf pixel.Buffer) time.Duration {
	j := t.frame.advance()
	for i := 0; i < t.length; i++ {
		if (i+j)%3 == 0 {
			buf.Set(i, pixel.White)
		}
	}
	return t.delay
}

// Wheel maps a position on a 256-step color wheel to red, green, and blue
// transitions.
func Wheel(pos uint8) pixel.Color {
	switch {
	case pos < 85:
		return pixel.RGB(pos*3, 255-pos*3, 0)
	case pos < 170:
		pos -= 85
		return pixel.RGB(255-pos*3, 0, pos*3)
	default:
		pos -= 170
		return pixel.RGB(0, pos*3, 255-pos*3)
	}
}

// Rainbow spreads the color wheel across the strip and rotates it.
type Rainbow struct {
	length int
	delay  time.Duration
	frame  counter
}

// NewRainbow creates a rotating rainbow for length pixels.
func NewRainbow(length int, delay time.Duration) *Rainbow {
	return &Rainbow{length: length, delay: delay}
}

// Name implements Effect.
func (r *Rainbow) Name() string { return "rainbow" }

// Step implements Effect.
func (r *Rainbow) Step(buf pixel.Buffer) time.Duration {
	j := r.frame.advance()
	for i := 0; i < r.length; i++ {
		pos := i*256/r.length + j
		buf.Set(i, Wheel(uint8(pos&255)))
	}
	return r.delay
}

// Bands alternates red and green blocks of a fixed width. Inner bands slide
// one pixel per frame; outer bands swap colors every frame.
type Bands struct {
	length int
	width  int
	inner  bool
	delay  time.Duration
	frame  counter
}

// NewBands creates a banding effect. A width below one is treated as one.
func NewBands(length, width int, inner bool, delay time.Duration) *Bands {
	return &Bands{length: length, width: max(width, 1), inner: inner, delay: delay}
}

// Name implements Effect.
func (b *Bands) Name() string {
	if b.inner {
		return "bands-inner"
	}
	return "bands-outer"
}

// Step implements Effect.
func (b *Bands) Step(buf pixel.Buffer) time.Duration {
	j := b.frame.advance()
	for i := 0; i < b.length; i++ {
		var red bool
		if b.inner {
			red = ((i+j)/b.width)%2 == 0
		} else {
			red = (i/b.width+j)%2 == 0
		}
		if red {
			buf.Set(i, pixel.Red)
		} else {
			buf.Set(i, pixel.Green)
		}
	}
	return b.delay
}

// Solid fills the strip with one color.
type Solid struct {
	color pixel.Color
}

// NewSolid creates a solid fill.
func NewSolid(c pixel.Color) *Solid {
	return &Solid{color: c}
}

// Name implements Effect.
func (s *Solid) Name() string { return "solid" }

// Step implements Effect.
func (s *Solid) Step(buf pixel.Buffer) time.Duration {
	buf.Fill(s.color)
	return time.Second
}
