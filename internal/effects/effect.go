// Package effects provides the light patterns the render loop can show and
// the playlist that sequences them.
package effects

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/smazurov/stripnode/internal/effects/scatter"
	"github.com/smazurov/stripnode/internal/pixel"
)

// Effect draws one frame per call into a cleared buffer and returns how long
// the frame should stay on the strip.
type Effect interface {
	Name() string
	Step(buf pixel.Buffer) time.Duration
}

// Reporter is implemented by effects that expose lifecycle statistics.
type Reporter interface {
	Stats() scatter.Stats
}

// counterWrap is where the shared frame counter of the chase effects restarts.
const counterWrap = 250

// counter is the wrapping frame counter shared by the closed-form effects.
type counter struct {
	j int
}

func (c *counter) advance() int {
	j := c.j
	c.j++
	if c.j == counterWrap {
		c.j = 0
	}
	return j
}

// Settings holds the tunables effects are built from.
type Settings struct {
	Length          int
	Seed            uint64
	ScatterInterval time.Duration
	ChaseDelay      time.Duration
	WipeDelay       time.Duration
	BandWidth       int
	SolidColor      pixel.Color
	TracerColors    [2]pixel.Color
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings(length int) Settings {
	return Settings{
		Length:          length,
		ScatterInterval: scatter.DefaultInterval,
		ChaseDelay:      100 * time.Millisecond,
		WipeDelay:       20 * time.Millisecond,
		BandWidth:       4,
		SolidColor:      pixel.White,
		TracerColors:    [2]pixel.Color{pixel.Red, pixel.Green},
	}
}

type constructor func(s Settings) Effect

var registry = map[string]constructor{
	"scatter-vivid":  scatterOf(scatter.Vivid),
	"scatter-pastel": scatterOf(scatter.Pastel),
	"scatter-mono":   scatterOf(scatter.Mono),
	"theatre":        func(s Settings) Effect { return NewTheatre(s.Length, s.ChaseDelay) },
	"rainbow":        func(s Settings) Effect { return NewRainbow(s.Length, s.ChaseDelay) },
	"bands-inner":    func(s Settings) Effect { return NewBands(s.Length, s.BandWidth, true, s.ChaseDelay) },
	"bands-outer":    func(s Settings) Effect { return NewBands(s.Length, s.BandWidth, false, s.ChaseDelay) },
	"solid":          func(s Settings) Effect { return NewSolid(s.SolidColor) },
	"tracer":         func(s Settings) Effect { return NewTracer(s.Length, s.TracerColors[0], s.TracerColors[1]) },
	"wipe":           func(s Settings) Effect { return NewWipe(s.Length, s.WipeDelay) },
	"explode":        func(s Settings) Effect { return NewExplode(s.Length) },
}

func scatterOf(mode scatter.Mode) constructor {
	return func(s Settings) Effect {
		var rng scatter.Rand
		if s.Seed != 0 {
			rng = rand.New(rand.NewPCG(s.Seed, uint64(mode)))
		}
		return scatter.New(scatter.Config{
			Length:   s.Length,
			Mode:     mode,
			Interval: s.ScatterInterval,
			Rand:     rng,
		})
	}
}

// Names returns every known effect name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the named effect. Each call returns fresh state.
func New(name string, s Settings) (Effect, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown effect %q", name)
	}
	if s.Length <= 0 {
		return nil, fmt.Errorf("effect %q: strip length must be positive, got %d", name, s.Length)
	}
	return ctor(s), nil
}
