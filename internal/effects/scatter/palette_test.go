package scatter

import (
	"math/rand/v2"
	"testing"

	"github.com/smazurov/stripnode/internal/pixel"
)

func TestPalette_Vivid(t *testing.T) {
	p := NewPalette(rand.New(rand.NewPCG(1, 2)))
	masks := make(map[int]bool)

	for i := 0; i < 10000; i++ {
		c := p.Assign(Vivid)
		if c.IsOff() {
			t.Fatalf("draw %d: vivid color is off", i)
		}
		if c.W != 0 {
			t.Fatalf("draw %d: pad channel = %d, want 0", i, c.W)
		}

		mask := 0
		for bit, ch := range []uint8{c.R, c.G, c.B} {
			if ch == 0 {
				continue
			}
			mask |= 1 << bit
			if ch < vividMin || ch >= vividMax {
				t.Fatalf("draw %d: channel %d = %d, want in [%d,%d)", i, bit, ch, vividMin, vividMax)
			}
		}
		masks[mask] = true
	}

	// Every non-empty channel combination shows up.
	for mask := 1; mask <= 7; mask++ {
		if !masks[mask] {
			t.Errorf("mask %03b never drawn", mask)
		}
	}
}

func TestPalette_Pastel(t *testing.T) {
	p := NewPalette(rand.New(rand.NewPCG(3, 4)))
	var sawLow, sawHigh bool

	for i := 0; i < 10000; i++ {
		c := p.Assign(Pastel)
		for _, ch := range []uint8{c.R, c.G, c.B} {
			if ch < vividMin {
				sawLow = true
			}
			if ch == 255 {
				sawHigh = true
			}
		}
	}

	if !sawLow || !sawHigh {
		t.Errorf("pastel draws not spread over [0,255]: low=%v high=%v", sawLow, sawHigh)
	}
}

func TestPalette_Mono(t *testing.T) {
	p := NewPalette(fixedRand{v: 3})
	if got := p.Assign(Mono); got != pixel.White {
		t.Errorf("Assign(Mono) = %v, want %v", got, pixel.White)
	}
}

func TestPalette_VividMask(t *testing.T) {
	// fixedRand{v} answers IntN(7) with v, so mask = v+1; channels get vividMin+v.
	tests := []struct {
		v    int
		want pixel.Color
	}{
		{0, pixel.RGB(50, 0, 0)},
		{1, pixel.RGB(0, 51, 0)},
		{3, pixel.RGB(0, 0, 53)},
		{6, pixel.RGB(56, 56, 56)},
	}

	for _, tt := range tests {
		p := NewPalette(fixedRand{v: tt.v})
		if got := p.Assign(Vivid); got != tt.want {
			t.Errorf("Assign(Vivid) with draw %d = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"vivid", Vivid, false},
		{"Pastel", Pastel, false},
		{"mono", Mono, false},
		{"white", Mono, false},
		{"neon", Vivid, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
