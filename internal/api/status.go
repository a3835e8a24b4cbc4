package api

import (
	"slices"
	"sync"
	"time"

	"github.com/smazurov/stripnode/internal/api/models"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/metrics"
)

// StatusCache keeps the latest render loop state, fed by the event bus, so
// API requests never touch the render loop.
type StatusCache struct {
	mu       sync.RWMutex
	status   models.StatusData
	sequence []string
	dwell    string
	unsubs   []func()
}

// NewStatusCache subscribes to bus. sequence and dwell describe the playlist
// configured at startup.
func NewStatusCache(bus *events.Bus, sink string, length int, sequence []string, dwell time.Duration) *StatusCache {
	c := &StatusCache{
		status: models.StatusData{
			Sink:      sink,
			Length:    length,
			Running:   true,
			StartedAt: time.Now().Format(time.RFC3339),
		},
		sequence: slices.Clone(sequence),
		dwell:    dwell.String(),
	}
	if len(sequence) > 0 {
		c.status.Effect = sequence[0]
	}

	if bus != nil {
		c.unsubs = []func(){
			bus.Subscribe(c.onEffectChanged),
			bus.Subscribe(c.onFrameRendered),
			bus.Subscribe(c.onSinkError),
			bus.Subscribe(c.onPlaylistReloaded),
		}
	}
	return c
}

func (c *StatusCache) onEffectChanged(e events.EffectChangedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Effect = e.Effect
	c.status.Position = e.Position
	c.status.UpdatedAt = e.Timestamp
	c.status.Scatter = nil
}

func (c *StatusCache) onFrameRendered(e events.FrameRenderedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Delivery is asynchronous, so an older frame may arrive late.
	if e.Tick < c.status.Tick {
		return
	}
	c.status.Tick = e.Tick
	c.status.Effect = e.Effect
	c.status.Lit = e.Lit
	c.status.RenderMs = e.Render
	c.status.Scatter = e.Scatter
}

func (c *StatusCache) onSinkError(e events.SinkErrorEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Running = false
	c.status.LastError = e.Error
}

func (c *StatusCache) onPlaylistReloaded(e events.PlaylistReloadedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequence = slices.Clone(e.Sequence)
	c.dwell = e.Dwell
	c.status.LastReloadAt = e.Timestamp
}

// Status returns a snapshot merged with the metric counters.
func (c *StatusCache) Status() models.StatusData {
	c.mu.RLock()
	status := c.status
	c.mu.RUnlock()

	if status.Scatter != nil {
		stats := *status.Scatter
		status.Scatter = &stats
	}
	summary := metrics.GetSummary()
	status.Frames = summary.Frames
	status.SinkErrors = summary.SinkErrors
	return status
}

// Playlist returns the configured sequence and dwell.
func (c *StatusCache) Playlist() ([]string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.sequence), c.dwell
}

// Close unsubscribes from the bus.
func (c *StatusCache) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}
