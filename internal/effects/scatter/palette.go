package scatter

import (
	"fmt"
	"strings"

	"github.com/smazurov/stripnode/internal/pixel"
)

// Mode selects how an admitted pixel's target color is chosen.
type Mode int

const (
	// Vivid picks one to three saturated channels.
	Vivid Mode = iota
	// Pastel picks every channel uniformly.
	Pastel
	// Mono always picks white, so the displayed channels equal the ramp.
	Mono
)

func (m Mode) String() string {
	switch m {
	case Vivid:
		return "vivid"
	case Pastel:
		return "pastel"
	case Mono:
		return "mono"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vivid":
		return Vivid, nil
	case "pastel":
		return Pastel, nil
	case "mono", "white":
		return Mono, nil
	default:
		return Vivid, fmt.Errorf("unknown scatter mode %q", s)
	}
}

// Rand is the slice of math/rand/v2's *rand.Rand the engine draws from.
type Rand interface {
	IntN(n int) int
}

// vividMin and vividMax bound a set vivid channel to [vividMin, vividMax).
const (
	vividMin = 50
	vividMax = 255
)

// Palette assigns target colors to newly admitted pixels.
type Palette struct {
	rng Rand
}

// NewPalette creates a palette drawing from rng.
func NewPalette(rng Rand) *Palette {
	return &Palette{rng: rng}
}

// Assign returns a random target color for mode.
func (p *Palette) Assign(mode Mode) pixel.Color {
	switch mode {
	case Pastel:
		return pixel.RGB(p.byte(), p.byte(), p.byte())
	case Mono:
		return pixel.White
	default:
		// mask in 1..7: never all channels off
		mask := p.rng.IntN(7) + 1
		return pixel.RGB(p.vivid(mask&0x1 != 0), p.vivid(mask&0x2 != 0), p.vivid(mask&0x4 != 0))
	}
}

func (p *Palette) byte() uint8 {
	return uint8(p.rng.IntN(256))
}

func (p *Palette) vivid(set bool) uint8 {
	if !set {
		return 0
	}
	return uint8(vividMin + p.rng.IntN(vividMax-vividMin))
}
