//go:build ws281x

package led

import (
	"fmt"
	"log/slog"
	"slices"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"

	"github.com/smazurov/stripnode/internal/pixel"
)

const ws281xAvailable = true

var stripTypes = map[Order]int{
	OrderRGB: ws2811.WS2811StripRGB,
	OrderRBG: ws2811.WS2811StripRBG,
	OrderGRB: ws2811.WS2811StripGRB,
	OrderGBR: ws2811.WS2811StripGBR,
	OrderBRG: ws2811.WS2811StripBRG,
	OrderBGR: ws2811.WS2811StripBGR,
}

// ws281x drives a WS281x strip through the PWM/DMA engine of a Raspberry Pi.
type ws281x struct {
	dev    *ws2811.WS2811
	length int
	logger *slog.Logger
}

func newWS281x(cfg Config, logger *slog.Logger) (Sink, error) {
	order, err := ParseOrder(cfg.Order)
	if err != nil {
		return nil, err
	}

	opt := ws2811.DefaultOptions
	opt.Frequency = cfg.Frequency
	opt.DmaNum = cfg.DMA
	opt.Channels = slices.Clone(opt.Channels)
	opt.Channels[0].GpioPin = cfg.GPIOPin
	opt.Channels[0].LedCount = cfg.Length
	opt.Channels[0].Brightness = cfg.Brightness
	opt.Channels[0].StripeType = stripTypes[order]

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, &TransmitError{Sink: DriverWS281x, Err: fmt.Errorf("create device: %w", err)}
	}
	if err := dev.Init(); err != nil {
		return nil, &TransmitError{Sink: DriverWS281x, Err: fmt.Errorf("init device: %w", err)}
	}

	logger.Info("WS281x strip initialized",
		"gpio_pin", cfg.GPIOPin,
		"dma", cfg.DMA,
		"frequency", cfg.Frequency,
		"order", order,
		"length", cfg.Length,
		"brightness", cfg.Brightness)

	return &ws281x{dev: dev, length: cfg.Length, logger: logger}, nil
}

func (w *ws281x) Render(buf pixel.Buffer) error {
	if err := checkLength(DriverWS281x, buf, w.length); err != nil {
		return err
	}

	leds := w.dev.Leds(0)
	for i, c := range buf {
		leds[i] = c.Uint32()
	}
	if err := w.dev.Render(); err != nil {
		return &TransmitError{Sink: DriverWS281x, Err: fmt.Errorf("render: %w", err)}
	}
	return nil
}

func (w *ws281x) Len() int { return w.length }

func (w *ws281x) Name() string { return DriverWS281x }

// Close blanks the strip and releases the DMA channel.
func (w *ws281x) Close() error {
	clear(w.dev.Leds(0))
	err := w.dev.Render()
	w.dev.Fini()
	if err != nil {
		return &TransmitError{Sink: DriverWS281x, Err: fmt.Errorf("blank on close: %w", err)}
	}
	return nil
}
