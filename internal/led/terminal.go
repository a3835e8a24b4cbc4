package led

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/smazurov/stripnode/internal/pixel"
)

const (
	litRune = '█'
	offRune = '·'
)

var offStyle = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)

// Terminal draws the strip as a row of colored blocks, wrapped to the
// terminal width. Brightness is applied in software.
type Terminal struct {
	screen     tcell.Screen
	length     int
	brightness int
	logger     *slog.Logger

	closeOnce sync.Once
}

// NewTerminal opens the controlling terminal as a sink.
func NewTerminal(cfg Config, logger *slog.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, &TransmitError{Sink: DriverTerminal, Err: fmt.Errorf("open terminal: %w", err)}
	}
	return newTerminalOn(screen, cfg, logger)
}

// newTerminalOn takes ownership of screen and initializes it.
func newTerminalOn(screen tcell.Screen, cfg Config, logger *slog.Logger) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, &TransmitError{Sink: DriverTerminal, Err: fmt.Errorf("init terminal: %w", err)}
	}
	screen.HideCursor()
	screen.Clear()

	logger.Debug("Terminal sink ready", "length", cfg.Length, "brightness", cfg.Brightness)
	return &Terminal{
		screen:     screen,
		length:     cfg.Length,
		brightness: cfg.Brightness,
		logger:     logger,
	}, nil
}

// Render implements Sink.
func (t *Terminal) Render(buf pixel.Buffer) error {
	if err := checkLength(DriverTerminal, buf, t.length); err != nil {
		return err
	}

	width, height := t.screen.Size()
	if width <= 0 || height <= 0 {
		return &TransmitError{Sink: DriverTerminal, Err: errors.New("terminal has no drawable area")}
	}

	t.screen.Clear()
	for i, c := range buf {
		x, y := i%width, i/width
		if y >= height {
			break
		}
		r, combining, style := t.cell(c)
		t.screen.SetContent(x, y, r, combining, style)
	}
	t.screen.Show()
	return nil
}

// cell returns the rune, combining runes and style for one pixel.
func (t *Terminal) cell(c pixel.Color) (rune, []rune, tcell.Style) {
	c = pixel.Color{
		R: pixel.Scale(t.brightness, c.R),
		G: pixel.Scale(t.brightness, c.G),
		B: pixel.Scale(t.brightness, c.B),
	}
	if c.IsOff() {
		return offRune, nil, offStyle
	}
	fg := tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	return litRune, nil, tcell.StyleDefault.Foreground(fg)
}

// Len implements Sink.
func (t *Terminal) Len() int { return t.length }

// Name implements Sink.
func (t *Terminal) Name() string { return DriverTerminal }

// Close restores the terminal. It is safe to call more than once.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.screen.Fini()
		t.logger.Debug("Terminal sink closed")
	})
	return nil
}

// WatchQuit calls quit when the user presses q, Esc or Ctrl-C. The terminal
// runs in raw mode, so Ctrl-C arrives as a key instead of SIGINT. The watcher
// exits when the terminal is closed.
func (t *Terminal) WatchQuit(quit func()) {
	go func() {
		for {
			switch ev := t.screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					quit()
					return
				}
			case *tcell.EventResize:
				t.screen.Sync()
			}
		}
	}()
}
