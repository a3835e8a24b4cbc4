package led

import (
	"errors"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/smazurov/stripnode/internal/pixel"
)

func newSimTerminal(t *testing.T, length, brightness, width, height int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	cfg := DefaultConfig()
	cfg.Driver = DriverTerminal
	cfg.Length = length
	cfg.Brightness = brightness

	term, err := newTerminalOn(screen, cfg, testLogger())
	if err != nil {
		t.Fatalf("newTerminalOn() error = %v", err)
	}
	screen.SetSize(width, height)
	t.Cleanup(func() { term.Close() })
	return term, screen
}

func TestTerminal_Render(t *testing.T) {
	term, screen := newSimTerminal(t, 4, 255, 10, 2)

	buf := pixel.NewBuffer(4)
	buf.Set(0, pixel.Red)
	buf.Set(2, pixel.RGB(10, 20, 30))
	if err := term.Render(buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	tests := []struct {
		x      int
		want   rune
		wantFg tcell.Color
	}{
		{0, litRune, tcell.NewRGBColor(255, 0, 0)},
		{1, offRune, tcell.ColorDarkGray},
		{2, litRune, tcell.NewRGBColor(10, 20, 30)},
		{3, offRune, tcell.ColorDarkGray},
	}
	for _, tt := range tests {
		r, _, style, _ := screen.GetContent(tt.x, 0)
		fg, _, _ := style.Decompose()
		if r != tt.want {
			t.Errorf("cell %d rune = %q, want %q", tt.x, r, tt.want)
		}
		if fg != tt.wantFg {
			t.Errorf("cell %d fg = %v, want %v", tt.x, fg, tt.wantFg)
		}
	}
}

func TestTerminal_Wraps(t *testing.T) {
	term, screen := newSimTerminal(t, 7, 255, 3, 5)

	buf := pixel.NewBuffer(7)
	buf.Set(6, pixel.White)
	if err := term.Render(buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if r, _, _, _ := screen.GetContent(0, 2); r != litRune {
		t.Errorf("pixel 6 at (0,2) = %q, want %q", r, litRune)
	}
}

func TestTerminal_Brightness(t *testing.T) {
	term, screen := newSimTerminal(t, 2, 125, 10, 1)

	buf := pixel.NewBuffer(2)
	buf.Set(0, pixel.RGB(200, 200, 200))
	buf.Set(1, pixel.RGB(1, 1, 1))
	if err := term.Render(buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	_, _, style, _ := screen.GetContent(0, 0)
	if fg, _, _ := style.Decompose(); fg != tcell.NewRGBColor(98, 98, 98) {
		t.Errorf("scaled fg = %v, want rgb(98,98,98)", fg)
	}
	// 125 * 1 / 255 rounds down to off.
	if r, _, _, _ := screen.GetContent(1, 0); r != offRune {
		t.Errorf("dim pixel rune = %q, want %q", r, offRune)
	}
}

func TestTerminal_LengthMismatch(t *testing.T) {
	term, _ := newSimTerminal(t, 4, 255, 10, 1)

	err := term.Render(pixel.NewBuffer(5))
	var te *TransmitError
	if !errors.As(err, &te) || te.Sink != DriverTerminal {
		t.Errorf("Render() = %v, want terminal TransmitError", err)
	}
}

func TestTerminal_CloseTwice(t *testing.T) {
	term, _ := newSimTerminal(t, 1, 255, 1, 1)
	if err := term.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := term.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestTerminal_WatchQuit(t *testing.T) {
	term, screen := newSimTerminal(t, 1, 255, 1, 1)

	quit := make(chan struct{})
	term.WatchQuit(func() { close(quit) })
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	<-quit
}
