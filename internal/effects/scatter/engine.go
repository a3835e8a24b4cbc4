// Package scatter implements the per-pixel lifecycle effect: random pixels
// fade in to a random color, hold, and fade back out, with a cap on how many
// pixels are lit at once.
//
// Each tick runs, in order: admission of at most one new pixel, selection of
// at most one held pixel for retirement, advance of retiring pixels, advance
// of admitting pixels. A candidate that is already active is skipped rather
// than redrawn, which bounds per-tick work and varies the admission rate.
package scatter

import (
	"math/rand/v2"
	"time"

	"github.com/smazurov/stripnode/internal/pixel"
)

const (
	// RampStep is the per-tick brightness change of a transitioning pixel.
	RampStep = 25
	// DefaultMaxActive caps the number of pixels that own a color.
	DefaultMaxActive = 20
	// DefaultRetireThreshold is the held count at which retirement starts.
	DefaultRetireThreshold = 10
	// DefaultInterval is the frame interval between ticks.
	DefaultInterval = 100 * time.Millisecond
)

// Config configures an Engine.
type Config struct {
	Length          int
	Mode            Mode
	MaxActive       int
	RetireThreshold int
	Interval        time.Duration
	Rand            Rand
}

// Stats is a point-in-time count of the engine's index sets.
type Stats struct {
	Admitting  int    `json:"admitting"`
	Held       int    `json:"held"`
	Retiring   int    `json:"retiring"`
	Active     int    `json:"active"`
	Ticks      uint64 `json:"ticks"`
	Collisions uint64 `json:"collisions"`
}

// Entry describes one active pixel.
type Entry struct {
	Index int
	Phase Phase
	Ramp  int
	Color pixel.Color
}

// Engine is the scatter lifecycle simulation. It is not safe for concurrent
// use; the render loop owns it.
type Engine struct {
	length          int
	mode            Mode
	maxActive       int
	retireThreshold int
	interval        time.Duration

	rng     Rand
	palette *Palette
	arena   *arena

	admitting []int
	retiring  []int

	ticks      uint64
	collisions uint64
}

// New creates an engine for a strip of cfg.Length pixels.
func New(cfg Config) *Engine {
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = DefaultMaxActive
	}
	if cfg.RetireThreshold <= 0 {
		cfg.RetireThreshold = DefaultRetireThreshold
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Length < 0 {
		cfg.Length = 0
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	return &Engine{
		length:          cfg.Length,
		mode:            cfg.Mode,
		maxActive:       cfg.MaxActive,
		retireThreshold: cfg.RetireThreshold,
		interval:        cfg.Interval,
		rng:             cfg.Rand,
		palette:         NewPalette(cfg.Rand),
		arena:           newArena(cfg.Length),
		admitting:       make([]int, 0, cfg.MaxActive),
		retiring:        make([]int, 0, cfg.MaxActive),
	}
}

// Name returns the effect name, e.g. "scatter-vivid".
func (e *Engine) Name() string {
	return "scatter-" + e.mode.String()
}

// Step advances every lifecycle by one tick and draws active pixels into buf.
// Pixels that are idle are left untouched.
func (e *Engine) Step(buf pixel.Buffer) time.Duration {
	if e.length == 0 {
		return e.interval
	}

	e.admit()
	e.selectRetirement()
	e.advanceRetiring(buf)
	e.advanceAdmitting(buf)
	e.drawHeld(buf)

	e.ticks++
	return e.interval
}

func (e *Engine) admit() {
	if e.arena.active >= e.maxActive {
		return
	}

	i := e.rng.IntN(e.length)
	if e.arena.isActive(i) {
		e.collisions++
		return
	}

	e.arena.admit(i, e.palette.Assign(e.mode))
	e.admitting = append(e.admitting, i)
}

func (e *Engine) selectRetirement() {
	n := len(e.arena.held)
	if n < e.retireThreshold {
		return
	}
	i := e.arena.takeHeld(e.rng.IntN(n))
	e.retiring = append(e.retiring, i)
}

func (e *Engine) advanceRetiring(buf pixel.Buffer) {
	kept := e.retiring[:0]
	for _, i := range e.retiring {
		s := &e.arena.slots[i]
		s.ramp = max(s.ramp-RampStep, 0)
		buf.Set(i, s.color.Scaled(s.ramp))

		if s.ramp == 0 {
			e.arena.release(i)
			continue
		}
		kept = append(kept, i)
	}
	e.retiring = kept
}

func (e *Engine) advanceAdmitting(buf pixel.Buffer) {
	kept := e.admitting[:0]
	for _, i := range e.admitting {
		s := &e.arena.slots[i]
		s.ramp = min(s.ramp+RampStep, pixel.MaxRamp)
		buf.Set(i, s.color.Scaled(s.ramp))

		if s.ramp == pixel.MaxRamp {
			e.arena.hold(i)
			continue
		}
		kept = append(kept, i)
	}
	e.admitting = kept
}

func (e *Engine) drawHeld(buf pixel.Buffer) {
	for _, i := range e.arena.held {
		buf.Set(i, e.arena.slots[i].color.Scaled(pixel.MaxRamp))
	}
}

// Stats returns the current set sizes.
func (e *Engine) Stats() Stats {
	return Stats{
		Admitting:  len(e.admitting),
		Held:       len(e.arena.held),
		Retiring:   len(e.retiring),
		Active:     e.arena.active,
		Ticks:      e.ticks,
		Collisions: e.collisions,
	}
}

// Inspect returns the lifecycle state of index i.
func (e *Engine) Inspect(i int) Entry {
	if i < 0 || i >= e.length {
		return Entry{Index: i}
	}
	s := e.arena.slots[i]
	return Entry{Index: i, Phase: s.phase, Ramp: s.ramp, Color: s.color}
}

// Active returns every active pixel ordered by index.
func (e *Engine) Active() []Entry {
	entries := make([]Entry, 0, e.arena.active)
	for i, s := range e.arena.slots {
		if s.phase == Idle {
			continue
		}
		entries = append(entries, Entry{Index: i, Phase: s.phase, Ramp: s.ramp, Color: s.color})
	}
	return entries
}
