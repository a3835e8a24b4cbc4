package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/effects"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/spf13/cobra"
)

// quitter is a sink that can tell when the user asked to stop.
type quitter interface {
	led.Sink
	WatchQuit(quit func())
}

type openFunc func(cfg led.Config, logger *slog.Logger) (quitter, error)

func openTerminal(cfg led.Config, logger *slog.Logger) (quitter, error) {
	return led.NewTerminal(cfg, logger)
}

// CreatePreviewCmd creates the preview command.
func CreatePreviewCmd(with WithSettings) *cobra.Command {
	var ticks uint64

	cmd := &cobra.Command{
		Use:   "preview [effect]",
		Short: "Render effects in the terminal",
		Long: `Renders one effect, or the configured playlist when no effect is named, ` +
			`as a row of colored blocks in the terminal. Press q, Esc or Ctrl-C to stop. ` +
			`Without an effect argument, changes to the [effects] section of the config file are applied live. ` +
			`Only errors are logged while the terminal is in use.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: effects.Names(),
	}

	cmd.Run = with(func(c *cobra.Command, args []string, s Settings) {
		logging.Initialize(logging.Config{Level: "error", Format: "text"})
		logger := logging.GetLogger("preview")

		if err := preview(c.Context(), args, s, ticks, openTerminal, logger); err != nil {
			fmt.Fprintln(os.Stderr, "preview:", err)
			os.Exit(1)
		}
	})

	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "Stop after this many frames (0 runs until q, Esc or Ctrl-C)")
	return cmd
}

func preview(ctx context.Context, args []string, s Settings, ticks uint64, open openFunc, logger *slog.Logger) error {
	e := s.Effects
	if len(args) == 1 {
		e.Sequence = []string{args[0]}
		e.Dwell = "0s"
	}
	playlist, err := e.Playlist(s.Strip.Length)
	if err != nil {
		return err
	}

	cfg := s.Strip
	cfg.Driver = led.DriverTerminal
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("strip config: %w", err)
	}

	sink, err := open(cfg, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sink.WatchQuit(cancel)

	runner, err := strip.New(strip.Config{
		Sink:     sink,
		Playlist: playlist,
		Logger:   logger,
		MaxTicks: ticks,
	})
	if err != nil {
		return err
	}

	if len(args) == 0 && e.Config != "" {
		watcher := config.NewWatcher(e.Config, config.LoadEffects, logger)
		watcher.OnReload(func(next config.Effects) {
			p, err := next.Playlist(cfg.Length)
			if err != nil {
				logger.Error("Ignoring invalid effects configuration", "error", err)
				return
			}
			runner.Reload(p)
		})
		if err := watcher.Start(ctx); err != nil {
			logger.Error("Failed to start config watcher, hot-reload disabled", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	return runner.Run(ctx)
}
