// Package led transmits pixel buffers to a strip, a terminal preview or
// nowhere.
package led

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/stripnode/internal/pixel"
)

// Driver names accepted in Config.Driver.
const (
	DriverAuto     = "auto"
	DriverWS281x   = "ws281x"
	DriverTerminal = "terminal"
	DriverNoop     = "noop"
)

// Sink accepts one full frame per call.
type Sink interface {
	// Render transmits buf. buf must hold exactly Len() pixels.
	Render(buf pixel.Buffer) error
	// Len returns the number of pixels the sink drives.
	Len() int
	// Name returns the driver name, e.g. "ws281x".
	Name() string
	// Close releases the device.
	Close() error
}

// Config selects and configures a sink.
type Config struct {
	Driver     string
	Length     int
	GPIOPin    int
	DMA        int
	Frequency  int
	Order      string
	Brightness int
}

// DefaultConfig returns the settings of a WS2812 strip on a Raspberry Pi.
func DefaultConfig() Config {
	return Config{
		Driver:     DriverAuto,
		Length:     80,
		GPIOPin:    18,
		DMA:        10,
		Frequency:  800000,
		Order:      "gbr",
		Brightness: 255,
	}
}

// Validate checks the fields every driver depends on.
func (c Config) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("strip length must be positive, got %d", c.Length)
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		return fmt.Errorf("brightness must be within 0-255, got %d", c.Brightness)
	}
	if _, err := ParseOrder(c.Order); err != nil {
		return err
	}
	switch c.Driver {
	case DriverAuto, DriverWS281x, DriverTerminal, DriverNoop:
	default:
		return fmt.Errorf("unknown strip driver %q", c.Driver)
	}
	return nil
}

// Order is the sequence in which a strip expects color channels on the wire.
type Order string

// Known channel orders.
const (
	OrderRGB Order = "rgb"
	OrderRBG Order = "rbg"
	OrderGRB Order = "grb"
	OrderGBR Order = "gbr"
	OrderBRG Order = "brg"
	OrderBGR Order = "bgr"
)

// ParseOrder normalizes s into an Order.
func ParseOrder(s string) (Order, error) {
	o := Order(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case OrderRGB, OrderRBG, OrderGRB, OrderGBR, OrderBRG, OrderBGR:
		return o, nil
	}
	return "", fmt.Errorf("unknown color order %q", s)
}

// TransmitError reports that a sink failed to push a frame.
type TransmitError struct {
	Sink string
	Err  error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// ErrLength is wrapped by a TransmitError when a buffer does not match the
// sink length.
var ErrLength = errors.New("buffer length mismatch")

func checkLength(sink string, buf pixel.Buffer, want int) error {
	if buf.Len() != want {
		return &TransmitError{Sink: sink, Err: fmt.Errorf("%w: got %d pixels, want %d", ErrLength, buf.Len(), want)}
	}
	return nil
}
