package config

import (
	"fmt"
	"os"
	"time"

	"github.com/smazurov/stripnode/internal/effects"
	"github.com/smazurov/stripnode/internal/pixel"
)

// Effects is the [effects] section. It is loaded at startup from the main
// options and again by the config watcher whenever the file changes.
type Effects struct {
	Config          string
	Sequence        []string `toml:"effects.sequence" env:"EFFECTS_SEQUENCE"`
	Dwell           string   `toml:"effects.dwell" env:"EFFECTS_DWELL"`
	Seed            int      `toml:"effects.seed" env:"EFFECTS_SEED"`
	ScatterInterval string   `toml:"effects.scatter_interval" env:"EFFECTS_SCATTER_INTERVAL"`
	SolidColor      string   `toml:"effects.solid_color" env:"EFFECTS_SOLID_COLOR"`
	TracerColors    []string `toml:"effects.tracer_colors" env:"EFFECTS_TRACER_COLORS"`
	BandWidth       int      `toml:"effects.band_width" env:"EFFECTS_BAND_WIDTH"`
	ChaseDelay      string   `toml:"effects.chase_delay" env:"EFFECTS_CHASE_DELAY"`
	WipeDelay       string   `toml:"effects.wipe_delay" env:"EFFECTS_WIPE_DELAY"`
}

// DefaultEffects returns the section defaults.
func DefaultEffects() Effects {
	return Effects{
		Sequence:        []string{"scatter-vivid"},
		Dwell:           "5m",
		ScatterInterval: "100ms",
		SolidColor:      "#ffffff",
		TracerColors:    []string{"#ff0000", "#00ff00"},
		BandWidth:       4,
		ChaseDelay:      "100ms",
		WipeDelay:       "20ms",
	}
}

// LoadEffects reads the [effects] section from path on top of the defaults.
// Environment overrides apply as they do at startup. Unlike LoadConfig, a
// missing file is an error so a deleted file never resets the playlist.
func LoadEffects(path string) (Effects, error) {
	if _, err := os.Stat(path); err != nil {
		return Effects{}, fmt.Errorf("load effects: %w", err)
	}
	e := DefaultEffects()
	e.Config = path
	if err := LoadConfig(&e, nil); err != nil {
		return Effects{}, err
	}
	return e, nil
}

// Settings converts the section into effect settings for a strip of length pixels.
func (e Effects) Settings(length int) (effects.Settings, error) {
	s := effects.DefaultSettings(length)

	if e.Seed < 0 {
		return s, fmt.Errorf("effects.seed must not be negative, got %d", e.Seed)
	}
	s.Seed = uint64(e.Seed)

	var err error
	if s.ScatterInterval, err = positiveDuration("effects.scatter_interval", e.ScatterInterval, s.ScatterInterval); err != nil {
		return s, err
	}
	if s.ChaseDelay, err = positiveDuration("effects.chase_delay", e.ChaseDelay, s.ChaseDelay); err != nil {
		return s, err
	}
	if s.WipeDelay, err = positiveDuration("effects.wipe_delay", e.WipeDelay, s.WipeDelay); err != nil {
		return s, err
	}

	if e.BandWidth != 0 {
		if e.BandWidth < 0 {
			return s, fmt.Errorf("effects.band_width must be positive, got %d", e.BandWidth)
		}
		s.BandWidth = e.BandWidth
	}

	if e.SolidColor != "" {
		if s.SolidColor, err = pixel.ParseHex(e.SolidColor); err != nil {
			return s, fmt.Errorf("effects.solid_color: %w", err)
		}
	}

	switch len(e.TracerColors) {
	case 0:
	case 2:
		for i, hex := range e.TracerColors {
			if s.TracerColors[i], err = pixel.ParseHex(hex); err != nil {
				return s, fmt.Errorf("effects.tracer_colors[%d]: %w", i, err)
			}
		}
	default:
		return s, fmt.Errorf("effects.tracer_colors needs exactly 2 colors, got %d", len(e.TracerColors))
	}

	return s, nil
}

// DwellDuration parses the dwell. Zero keeps the first entry forever.
func (e Effects) DwellDuration() (time.Duration, error) {
	if e.Dwell == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Dwell)
	if err != nil {
		return 0, fmt.Errorf("effects.dwell: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("effects.dwell must not be negative, got %v", d)
	}
	return d, nil
}

// Playlist builds a fresh playlist for a strip of length pixels.
func (e Effects) Playlist(length int) (*effects.Playlist, error) {
	s, err := e.Settings(length)
	if err != nil {
		return nil, err
	}
	dwell, err := e.DwellDuration()
	if err != nil {
		return nil, err
	}
	p, err := effects.NewPlaylist(e.Sequence, dwell, s)
	if err != nil {
		return nil, fmt.Errorf("effects.sequence: %w", err)
	}
	return p, nil
}

func positiveDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}
