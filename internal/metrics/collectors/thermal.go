// Package collectors polls host state into the metrics package.
package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/metrics"
)

const thermalRoot = "/sys/class/thermal"

// ThermalCollector reports SoC thermal zone temperatures.
type ThermalCollector struct {
	logger   logging.Logger
	root     string
	interval time.Duration
	zones    map[string]bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewThermalCollector creates a collector polling every interval.
func NewThermalCollector(interval time.Duration) *ThermalCollector {
	return &ThermalCollector{
		logger:   logging.GetLogger("thermal"),
		root:     thermalRoot,
		interval: interval,
		zones:    make(map[string]bool),
	}
}

// Start begins polling in the background.
func (c *ThermalCollector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
}

// Stop ends polling and waits for the poller to exit.
func (c *ThermalCollector) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *ThermalCollector) run(ctx context.Context) {
	defer close(c.done)

	c.logger.Debug("Starting thermal collection", "root", c.root, "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *ThermalCollector) collect() {
	readings, err := c.read()
	if err != nil {
		c.logger.Debug("Thermal zones unavailable", "error", err)
		return
	}

	seen := make(map[string]bool, len(readings))
	for zone, celsius := range readings {
		metrics.SetTemperature(zone, celsius)
		seen[zone] = true
	}
	for zone := range c.zones {
		if !seen[zone] {
			metrics.DeleteTemperature(zone)
		}
	}
	c.zones = seen
}

// read returns the temperature of each thermal zone keyed by its type,
// e.g. "cpu-thermal".
func (c *ThermalCollector) read() (map[string]float64, error) {
	dirs, err := filepath.Glob(filepath.Join(c.root, "thermal_zone*"))
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no thermal zones under %s", c.root)
	}

	readings := make(map[string]float64, len(dirs))
	for _, dir := range dirs {
		raw, err := os.ReadFile(filepath.Join(dir, "temp"))
		if err != nil {
			continue
		}
		celsius, err := parseMilliCelsius(string(raw))
		if err != nil {
			continue
		}

		zone := filepath.Base(dir)
		if kind, err := os.ReadFile(filepath.Join(dir, "type")); err == nil {
			if name := strings.TrimSpace(string(kind)); name != "" {
				zone = name
			}
		}
		readings[zone] = celsius
	}
	return readings, nil
}

func parseMilliCelsius(s string) (float64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse temperature %q: %w", s, err)
	}
	return float64(v) / 1000, nil
}
