package led

import (
	"errors"
	"fmt"
	"testing"

	"github.com/smazurov/stripnode/internal/pixel"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"terminal", func(c *Config) { c.Driver = DriverTerminal }, false},
		{"upper case order", func(c *Config) { c.Order = "GRB" }, false},
		{"zero length", func(c *Config) { c.Length = 0 }, true},
		{"brightness too high", func(c *Config) { c.Brightness = 256 }, true},
		{"negative brightness", func(c *Config) { c.Brightness = -1 }, true},
		{"bad order", func(c *Config) { c.Order = "rgbw" }, true},
		{"bad driver", func(c *Config) { c.Driver = "spi" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    Order
		wantErr bool
	}{
		{"gbr", OrderGBR, false},
		{" RGB ", OrderRGB, false},
		{"bgr", OrderBGR, false},
		{"", "", true},
		{"rgbw", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOrder(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOrder(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTransmitError(t *testing.T) {
	cause := errors.New("dma stalled")
	err := fmt.Errorf("render tick 3: %w", &TransmitError{Sink: "ws281x", Err: cause})

	var te *TransmitError
	if !errors.As(err, &te) {
		t.Fatal("errors.As did not find TransmitError")
	}
	if te.Sink != "ws281x" {
		t.Errorf("Sink = %q, want ws281x", te.Sink)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach the cause")
	}
	if got, want := te.Error(), "ws281x sink: dma stalled"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCheckLength(t *testing.T) {
	if err := checkLength("noop", pixel.NewBuffer(4), 4); err != nil {
		t.Errorf("checkLength() matching = %v, want nil", err)
	}

	err := checkLength("noop", pixel.NewBuffer(3), 4)
	var te *TransmitError
	if !errors.As(err, &te) {
		t.Fatalf("checkLength() = %v, want TransmitError", err)
	}
	if !errors.Is(err, ErrLength) {
		t.Errorf("checkLength() = %v, want ErrLength", err)
	}
}
