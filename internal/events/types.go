package events

import "github.com/smazurov/stripnode/internal/effects/scatter"

// Event type constants for kelindar/event.
const (
	TypeEffectChanged uint32 = iota + 1
	TypeFrameRendered
	TypeSinkError
	TypeLogEntry
	TypePlaylistReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// EffectChangedEvent is published when the render loop starts showing a
// different effect.
type EffectChangedEvent struct {
	Effect    string `json:"effect" example:"scatter-vivid" doc:"Effect now being rendered"`
	Previous  string `json:"previous,omitempty" example:"rainbow" doc:"Effect shown before the change"`
	Position  int    `json:"position" example:"0" doc:"Index of the effect in the playlist"`
	Reason    string `json:"reason" example:"dwell" doc:"Why the effect changed: start, dwell or reload"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EffectChangedEvent.
func (e EffectChangedEvent) Type() uint32 { return TypeEffectChanged }

// FrameRenderedEvent is published after every frame the sink accepted.
type FrameRenderedEvent struct {
	Tick     uint64         `json:"tick" example:"1200" doc:"Frames rendered since start"`
	Effect   string         `json:"effect" example:"scatter-vivid" doc:"Effect that drew the frame"`
	Lit      int            `json:"lit" example:"14" doc:"Pixels that were not off"`
	Render   float64        `json:"render_ms" example:"0.42" doc:"Time spent drawing and transmitting, in milliseconds"`
	Interval float64        `json:"interval_ms" example:"100" doc:"Frame interval requested by the effect, in milliseconds"`
	Scatter  *scatter.Stats `json:"scatter,omitempty" doc:"Lifecycle counts when a scatter effect is active"`
}

// Type returns the event type identifier for FrameRenderedEvent.
func (e FrameRenderedEvent) Type() uint32 { return TypeFrameRendered }

// SinkErrorEvent is published when the sink fails to transmit a frame.
type SinkErrorEvent struct {
	Sink      string `json:"sink" example:"ws281x" doc:"Sink driver name"`
	Tick      uint64 `json:"tick" example:"1201" doc:"Tick that failed"`
	Error     string `json:"error" example:"ws2811 render: DMA error" doc:"Error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SinkErrorEvent.
func (e SinkErrorEvent) Type() uint32 { return TypeSinkError }

// PlaylistReloadedEvent is published when the effects configuration was
// reloaded from disk.
type PlaylistReloadedEvent struct {
	Sequence  []string `json:"sequence" doc:"New playlist"`
	Dwell     string   `json:"dwell" example:"5m0s" doc:"Time per playlist entry"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlaylistReloadedEvent.
func (e PlaylistReloadedEvent) Type() uint32 { return TypePlaylistReloaded }

// LogEntryEvent carries one log record to log stream clients.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"strip" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Line       string         `json:"line" doc:"Preformatted log line"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
