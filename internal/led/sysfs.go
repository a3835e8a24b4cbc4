package led

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sysfsLEDPath = "/sys/class/leds"

// boardLEDs maps device tree models to the activity LED the status indicator
// takes over.
var boardLEDs = []struct {
	model string
	led   string
}{
	{"Raspberry Pi", "ACT"},
	{"NanoPC-T6", "usr_led"},
	{"Orange Pi", "green_led"},
}

// boardLED controls one LED through the Linux sysfs LED class.
type boardLED struct {
	dir string
}

func newBoardLED(root, name string) (*boardLED, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid board LED name %q", name)
	}
	dir := filepath.Join(root, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("board LED %q: %w", name, err)
	}
	return &boardLED{dir: dir}, nil
}

// defaultBoardLED returns the activity LED name for a board model, or "".
func defaultBoardLED(model string) string {
	for _, b := range boardLEDs {
		if strings.Contains(model, b.model) {
			return b.led
		}
	}
	return ""
}

// setTrigger hands the LED to a kernel trigger such as "heartbeat" or
// "default-on". "none" returns it to manual control.
func (b *boardLED) setTrigger(trigger string) error {
	if err := os.WriteFile(filepath.Join(b.dir, "trigger"), []byte(trigger), 0o644); err != nil {
		return fmt.Errorf("set LED trigger %q: %w", trigger, err)
	}
	return nil
}

func (b *boardLED) setBrightness(on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	if err := os.WriteFile(filepath.Join(b.dir, "brightness"), []byte(v), 0o644); err != nil {
		return fmt.Errorf("set LED brightness: %w", err)
	}
	return nil
}
