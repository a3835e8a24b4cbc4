package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// New validates cfg and opens the configured sink. The auto driver picks the
// ws281x sink on a Raspberry Pi when it was compiled in and falls back to the
// no-op sink everywhere else.
func New(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strip config: %w", err)
	}

	driver := cfg.Driver
	if driver == DriverAuto {
		model := detectBoard()
		driver = autoDriver(model, ws281xAvailable)
		logger.Info("Selected strip driver", "board_model", model, "driver", driver)
	}

	switch driver {
	case DriverWS281x:
		return newWS281x(cfg, logger)
	case DriverTerminal:
		return NewTerminal(cfg, logger)
	default:
		return newNoop(cfg.Length, logger), nil
	}
}

func autoDriver(model string, haveWS281x bool) string {
	if haveWS281x && strings.Contains(model, "Raspberry Pi") {
		return DriverWS281x
	}
	return DriverNoop
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	// Device tree strings are NUL terminated.
	return strings.TrimRight(string(data), "\x00")
}
