//go:build !ws281x

package led

import (
	"errors"
	"log/slog"
)

const ws281xAvailable = false

func newWS281x(_ Config, _ *slog.Logger) (Sink, error) {
	return nil, &TransmitError{
		Sink: DriverWS281x,
		Err:  errors.New("binary built without ws281x support, rebuild with -tags ws281x"),
	}
}
