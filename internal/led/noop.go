package led

import (
	"log/slog"

	"github.com/smazurov/stripnode/internal/pixel"
)

// noop drops frames. It is used on hosts without strip hardware.
type noop struct {
	logger *slog.Logger
	length int
	frames uint64
}

func newNoop(length int, logger *slog.Logger) *noop {
	return &noop{logger: logger, length: length}
}

// Render validates the frame and logs it at debug level.
func (n *noop) Render(buf pixel.Buffer) error {
	if err := checkLength(DriverNoop, buf, n.length); err != nil {
		return err
	}
	n.frames++
	n.logger.Debug("Frame dropped (no-op sink)", "frame", n.frames, "lit", buf.Lit())
	return nil
}

func (n *noop) Len() int { return n.length }

func (n *noop) Name() string { return DriverNoop }

func (n *noop) Close() error {
	n.logger.Debug("No-op sink closed", "frames", n.frames)
	return nil
}
