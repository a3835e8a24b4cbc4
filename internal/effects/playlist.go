package effects

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Playlist cycles through named effects, showing each for a dwell duration.
// Switching to an entry always builds the effect from scratch.
type Playlist struct {
	names    []string
	dwell    time.Duration
	settings Settings

	pos     int
	current Effect
	shown   time.Duration
}

// NewPlaylist validates every name and builds the first effect. A dwell of
// zero keeps the first effect forever.
func NewPlaylist(names []string, dwell time.Duration, s Settings) (*Playlist, error) {
	if len(names) == 0 {
		return nil, errors.New("playlist is empty")
	}
	if dwell < 0 {
		return nil, fmt.Errorf("playlist dwell must not be negative, got %v", dwell)
	}
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return nil, fmt.Errorf("playlist: unknown effect %q (known: %v)", name, Names())
		}
	}

	first, err := New(names[0], s)
	if err != nil {
		return nil, fmt.Errorf("playlist: %w", err)
	}

	return &Playlist{
		names:    slices.Clone(names),
		dwell:    dwell,
		settings: s,
		current:  first,
	}, nil
}

// Current returns the effect being shown.
func (p *Playlist) Current() Effect {
	return p.current
}

// Position returns the index of the current entry.
func (p *Playlist) Position() int {
	return p.pos
}

// Names returns a copy of the configured sequence.
func (p *Playlist) Names() []string {
	return slices.Clone(p.names)
}

// Dwell returns how long each entry is shown.
func (p *Playlist) Dwell() time.Duration {
	return p.dwell
}

// Length returns the strip length effects are built for.
func (p *Playlist) Length() int {
	return p.settings.Length
}

// Advance accounts for a frame that stayed on the strip for d and moves to
// the next entry once the current one has been shown for the dwell time. It
// reports whether the current effect changed.
func (p *Playlist) Advance(d time.Duration) bool {
	if p.dwell == 0 || len(p.names) == 1 {
		return false
	}

	p.shown += d
	if p.shown < p.dwell {
		return false
	}

	p.shown = 0
	p.pos = (p.pos + 1) % len(p.names)
	// Names were validated in NewPlaylist and the length is positive, so New
	// cannot fail here.
	next, err := New(p.names[p.pos], p.settings)
	if err != nil {
		return false
	}
	p.current = next
	return true
}
