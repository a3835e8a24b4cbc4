// Package pixel holds the frame representation shared by effects and sinks.
package pixel

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxRamp is the ramp value at which a pixel is drawn at its full assigned color.
const MaxRamp = 250

// Color is one strip entry. W is a pad channel kept for sinks that expect
// four bytes per pixel; effects always leave it at zero.
type Color struct {
	R uint8
	G uint8
	B uint8
	W uint8
}

// Off is the cleared pixel value.
var (
	Off   = Color{}
	White = RGB(255, 255, 255)
	Red   = RGB(255, 0, 0)
	Green = RGB(0, 255, 0)
)

// RGB builds a color with the pad channel cleared.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Gray builds a color with all three channels set to v.
func Gray(v uint8) Color {
	return Color{R: v, G: v, B: v}
}

// Scale returns channel c at ramp brightness using truncating integer math.
// The result is masked to a byte, so ramps above 255 wrap rather than saturate.
func Scale(ramp int, c uint8) uint8 {
	return uint8(((ramp * int(c)) / 255) & 0xff)
}

// Scaled applies Scale to every color channel.
func (c Color) Scaled(ramp int) Color {
	return Color{
		R: Scale(ramp, c.R),
		G: Scale(ramp, c.G),
		B: Scale(ramp, c.B),
	}
}

// Uint32 packs the color as 0xWWRRGGBB, the layout WS281x drivers expect.
// W is zero for every color effects produce, leaving 0x00RRGGBB.
func (c Color) Uint32() uint32 {
	return uint32(c.W)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// IsOff reports whether every channel is zero.
func (c Color) IsOff() bool {
	return c == Off
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Off, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Off, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
