package models

import "github.com/smazurov/stripnode/internal/effects/scatter"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go runtime version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// StatusData describes what the render loop is doing right now.
type StatusData struct {
	Effect       string         `json:"effect" example:"scatter-vivid" doc:"Effect currently rendered"`
	Position     int            `json:"position" example:"0" doc:"Index of the effect in the playlist"`
	Tick         uint64         `json:"tick" example:"1200" doc:"Last frame reported by the render loop"`
	Lit          int            `json:"lit" example:"14" doc:"Pixels lit in the last reported frame"`
	RenderMs     float64        `json:"render_ms" example:"0.42" doc:"Draw and transmit time of the last reported frame"`
	Sink         string         `json:"sink" example:"ws281x" doc:"Sink driver"`
	Length       int            `json:"length" example:"80" doc:"Pixels on the strip"`
	Running      bool           `json:"running" example:"true" doc:"False once the sink failed"`
	LastError    string         `json:"last_error,omitempty" doc:"Most recent sink error"`
	Frames       uint64         `json:"frames" example:"1200" doc:"Frames rendered since start"`
	SinkErrors   uint64         `json:"sink_errors" example:"0" doc:"Failed transmits since start"`
	StatusLED    string         `json:"status_led,omitempty" example:"solid" doc:"Board status LED pattern"`
	Scatter      *scatter.Stats `json:"scatter,omitempty" doc:"Lifecycle counts when a scatter effect is active"`
	UpdatedAt    string         `json:"updated_at,omitempty" example:"2025-01-27T10:30:00Z" doc:"When the effect last changed"`
	StartedAt    string         `json:"started_at" example:"2025-01-27T10:00:00Z" doc:"When the API started"`
	LastReloadAt string         `json:"last_reload_at,omitempty" example:"2025-01-27T10:20:00Z" doc:"When the effects configuration was last reloaded"`
}

type StatusResponse struct {
	Body StatusData
}

// EffectsData lists known effects and the configured playlist.
type EffectsData struct {
	Available []string `json:"available" doc:"Every effect name the playlist accepts"`
	Sequence  []string `json:"sequence" doc:"Configured playlist"`
	Dwell     string   `json:"dwell" example:"5m0s" doc:"Time per playlist entry, 0s holds the first"`
	Current   string   `json:"current" example:"scatter-vivid" doc:"Effect currently rendered"`
}

type EffectsResponse struct {
	Body EffectsData
}
