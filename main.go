package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/stripnode/cmd"
	"github.com/smazurov/stripnode/internal/api"
	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/metrics/collectors"
	"github.com/smazurov/stripnode/internal/metrics/exporters"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/smazurov/stripnode/internal/systemd"
	"github.com/smazurov/stripnode/internal/version"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping. The [effects]
// section is loaded separately because the config watcher reloads it.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port          string `help:"Port to listen on" short:"p" default:":8091" toml:"server.port" env:"SERVER_PORT"`
	ServerEnabled bool   `help:"Serve the read-only HTTP API" default:"true" toml:"server.enabled" env:"SERVER_ENABLED"`

	// Strip settings
	StripLength     int    `help:"Number of pixels on the strip" default:"80" toml:"strip.length" env:"STRIP_LENGTH"`
	StripDriver     string `help:"Strip driver (auto, ws281x, terminal, noop)" default:"auto" toml:"strip.driver" env:"STRIP_DRIVER"`
	StripGpioPin    int    `help:"ws281x data GPIO pin" default:"18" toml:"strip.gpio_pin" env:"STRIP_GPIO_PIN"`
	StripDma        int    `help:"ws281x DMA channel" default:"10" toml:"strip.dma" env:"STRIP_DMA"`
	StripFrequency  int    `help:"ws281x signal frequency in Hz" default:"800000" toml:"strip.frequency" env:"STRIP_FREQUENCY"`
	StripOrder      string `help:"Strip color order (rgb, rbg, grb, gbr, brg, bgr)" default:"gbr" toml:"strip.order" env:"STRIP_ORDER"`
	StripBrightness int    `help:"Brightness ceiling (0-255)" default:"255" toml:"strip.brightness" env:"STRIP_BRIGHTNESS"`

	// Board status LED settings
	StatusLEDEnabled bool   `help:"Mirror render loop health on a board LED" default:"false" toml:"status_led.enabled" env:"STATUS_LED_ENABLED"`
	StatusLEDName    string `help:"Board LED under /sys/class/leds (empty picks the activity LED)" default:"" toml:"status_led.name" env:"STATUS_LED_NAME"`

	// Host metrics settings
	ThermalEnabled  bool   `help:"Export SoC temperatures" default:"true" toml:"thermal.enabled" env:"THERMAL_ENABLED"`
	ThermalInterval string `help:"Temperature polling interval" default:"30s" toml:"thermal.interval" env:"THERMAL_INTERVAL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingStrip   string `help:"Render loop logging level" default:"" toml:"logging.strip" env:"LOGGING_STRIP"`
	LoggingLED     string `help:"Sink logging level" default:"" toml:"logging.led" env:"LOGGING_LED"`
	LoggingConfig  string `help:"Config watcher logging level" default:"" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingAPI     string `help:"API logging level" default:"" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingSystemd string `help:"systemd notifier logging level" default:"" toml:"logging.systemd" env:"LOGGING_SYSTEMD"`
}

// settings maps the root options onto what the sub-commands need.
func (o *Options) settings(logger *slog.Logger) cmd.Settings {
	return cmd.Settings{
		Strip: led.Config{
			Driver:     o.StripDriver,
			Length:     o.StripLength,
			GPIOPin:    o.StripGpioPin,
			DMA:        o.StripDma,
			Frequency:  o.StripFrequency,
			Order:      o.StripOrder,
			Brightness: o.StripBrightness,
		},
		Effects: loadEffects(o.Config, logger),
	}
}

// loadEffects reads the [effects] section. A missing file leaves the defaults.
func loadEffects(path string, logger *slog.Logger) config.Effects {
	fx := config.DefaultEffects()
	fx.Config = path
	if err := config.LoadConfig(&fx, nil); err != nil {
		logger.Error("Invalid effects configuration", "error", err)
		os.Exit(1)
	}
	return fx
}

func withSettings(run cmd.RunFunc) func(*cobra.Command, []string) {
	return humacli.WithOptions(func(c *cobra.Command, args []string, opts *Options) {
		run(c, args, opts.settings(logging.GetLogger("config")))
	})
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Error("Failed to load config", "error", loadErr)
			os.Exit(1)
		}

		// Module levels named in the file apply even without a dedicated option.
		loggingConfig := config.LoadLoggingConfig(opts.Config)
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		for module, level := range map[string]string{
			"strip":   opts.LoggingStrip,
			"led":     opts.LoggingLED,
			"config":  opts.LoggingConfig,
			"api":     opts.LoggingAPI,
			"http":    opts.LoggingHTTP,
			"systemd": opts.LoggingSystemd,
		} {
			if level != "" {
				loggingConfig.Modules[module] = level
			}
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		var running atomic.Pointer[daemon]
		hooks.OnStart(func() {
			d, err := newDaemon(opts, logger)
			if err != nil {
				logger.Error("Failed to start", "error", err)
				os.Exit(1)
			}
			running.Store(d)
			if err := d.run(); err != nil {
				logger.Error("Render loop failed", "error", err)
				d.shutdown()
				os.Exit(1)
			}
			d.shutdown()
		})

		hooks.OnStop(func() {
			if d := running.Load(); d != nil {
				logger.Info("Shutting down")
				d.stop()
			}
		})
	})

	cli.Root().Use = "stripnode"
	cli.Root().Short = "LED strip animation driver"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreatePreviewCmd(withSettings))
	cli.Root().AddCommand(cmd.CreateEffectsCmd())

	cli.Run()
}

// daemon owns every long-running component of the root command.
type daemon struct {
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	bus       *events.Bus
	sink      led.Sink
	runner    *strip.Runner
	watcher   *config.Watcher[config.Effects]
	status    *api.StatusCache
	server    *api.Server
	notifier  *systemd.Notifier
	statusLED *led.StatusIndicator
	thermal   *collectors.ThermalCollector
}

func newDaemon(opts *Options, logger *slog.Logger) (*daemon, error) {
	s := opts.settings(logging.GetLogger("config"))
	playlist, err := s.Effects.Playlist(s.Strip.Length)
	if err != nil {
		return nil, err
	}
	dwell, err := s.Effects.DwellDuration()
	if err != nil {
		return nil, err
	}

	d := &daemon{logger: logger, done: make(chan struct{})}
	d.ctx, d.cancel = context.WithCancel(context.Background())

	d.bus = events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		d.bus.Publish(api.LogEvent(entry))
	})

	d.sink, err = led.New(s.Strip, logging.GetLogger("led"))
	if err != nil {
		return nil, err
	}

	d.runner, err = strip.New(strip.Config{
		Sink:     d.sink,
		Playlist: playlist,
		Events:   d.bus,
		Logger:   logging.GetLogger("strip"),
	})
	if err != nil {
		_ = d.sink.Close()
		return nil, err
	}

	d.watchEffects(opts.Config, s.Strip.Length)

	d.status = api.NewStatusCache(d.bus, d.sink.Name(), s.Strip.Length, s.Effects.Sequence, dwell)

	if opts.StatusLEDEnabled {
		d.statusLED, err = led.NewStatusIndicator(opts.StatusLEDName, d.bus, logging.GetLogger("led"))
		if err != nil {
			logger.Warn("Status LED unavailable", "error", err)
		} else {
			d.statusLED.Start()
		}
	}

	if opts.ServerEnabled {
		apiOpts := &api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			EventBus:          d.bus,
			Status:            d.status,
			PrometheusHandler: exporters.HTTPHandler(),
		}
		if d.statusLED != nil {
			apiOpts.StatusLED = d.statusLED.Pattern
		}
		d.server = api.NewServer(apiOpts)
		go func() {
			if startErr := d.server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		}()
	}

	if opts.ThermalEnabled {
		interval, parseErr := time.ParseDuration(opts.ThermalInterval)
		if parseErr != nil || interval <= 0 {
			logger.Warn("Invalid thermal interval, using 30s", "value", opts.ThermalInterval)
			interval = 30 * time.Second
		}
		d.thermal = collectors.NewThermalCollector(interval)
		d.thermal.Start(d.ctx)
	}

	d.notifier = systemd.NewNotifier(logging.GetLogger("systemd"))
	d.notifier.Start(d.bus)

	return d, nil
}

// watchEffects hot-reloads the [effects] section. The watcher is optional;
// without it the startup playlist stays.
func (d *daemon) watchEffects(path string, length int) {
	if path == "" {
		return
	}
	logger := logging.GetLogger("config")
	d.watcher = config.NewWatcher(path, config.LoadEffects, logger)
	d.watcher.OnReload(func(fx config.Effects) {
		playlist, err := fx.Playlist(length)
		if err != nil {
			logger.Error("Ignoring invalid effects configuration", "error", err)
			return
		}
		d.runner.Reload(playlist)
		d.bus.Publish(events.PlaylistReloadedEvent{
			Sequence:  playlist.Names(),
			Dwell:     playlist.Dwell().String(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		logger.Info("Effects configuration reloaded", "sequence", playlist.Names(), "dwell", playlist.Dwell())
	})
	if err := d.watcher.Start(d.ctx); err != nil {
		logger.Warn("Failed to start config watcher, hot-reload disabled", "error", err)
		d.watcher = nil
	}
}

// run blocks until the render loop ends.
func (d *daemon) run() error {
	defer close(d.done)
	return d.runner.Run(d.ctx)
}

// stop cancels the render loop and waits for run to return.
func (d *daemon) stop() {
	d.cancel()
	<-d.done
	d.shutdown()
}

// shutdown releases everything after the render loop ended.
func (d *daemon) shutdown() {
	d.stopOnce.Do(func() {
		d.cancel()
		if d.server != nil {
			if err := d.server.Stop(); err != nil {
				d.logger.Error("Error stopping HTTP server", "error", err)
			}
		}
		if d.watcher != nil {
			if err := d.watcher.Stop(); err != nil {
				d.logger.Warn("Error stopping config watcher", "error", err)
			}
		}
		if d.thermal != nil {
			d.thermal.Stop()
		}
		if d.statusLED != nil {
			d.statusLED.Stop()
		}
		d.notifier.Stop()
		d.status.Close()
		logging.SetLogCallback(nil)
		if err := d.sink.Close(); err != nil {
			d.logger.Error("Error closing strip", "error", err)
		}
	})
}
