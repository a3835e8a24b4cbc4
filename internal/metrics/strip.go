// Package metrics provides Prometheus collectors for the render loop, the
// sink and the host.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/stripnode/internal/effects/scatter"
)

const namespace = "stripnode"

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Frames rendered to the sink",
	}, []string{"effect"})

	frameRenderSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_render_seconds",
		Help:      "Time spent drawing and transmitting one frame",
		Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	sinkErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_errors_total",
		Help:      "Frames the sink failed to transmit",
	}, []string{"sink"})

	scatterPixels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scatter",
		Name:      "pixels",
		Help:      "Scatter pixels per lifecycle state",
	}, []string{"state"})

	effectActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "effect_active",
		Help:      "1 for the effect currently rendered",
	}, []string{"effect"})

	// Local cache for the status API.
	cache   Summary
	cacheMu sync.RWMutex
)

// Summary holds the current values of the render metrics.
type Summary struct {
	Frames       uint64        `json:"frames"`
	SinkErrors   uint64        `json:"sink_errors"`
	LastRender   time.Duration `json:"last_render_ns"`
	ActiveEffect string        `json:"active_effect"`
}

// RecordFrame counts a rendered frame for effect and observes its render time.
func RecordFrame(effect string, render time.Duration) {
	framesTotal.WithLabelValues(effect).Inc()
	frameRenderSeconds.Observe(render.Seconds())

	cacheMu.Lock()
	cache.Frames++
	cache.LastRender = render
	cacheMu.Unlock()
}

// RecordSinkError counts a failed transmit on sink.
func RecordSinkError(sink string) {
	sinkErrorsTotal.WithLabelValues(sink).Inc()

	cacheMu.Lock()
	cache.SinkErrors++
	cacheMu.Unlock()
}

// SetScatterPixels publishes lifecycle counts.
func SetScatterPixels(stats scatter.Stats) {
	scatterPixels.WithLabelValues("admitting").Set(float64(stats.Admitting))
	scatterPixels.WithLabelValues("held").Set(float64(stats.Held))
	scatterPixels.WithLabelValues("retiring").Set(float64(stats.Retiring))
}

// ClearScatterPixels drops the lifecycle gauges when no scatter effect runs.
func ClearScatterPixels() {
	scatterPixels.Reset()
}

// SetActiveEffect marks effect as the one being rendered.
func SetActiveEffect(effect string) {
	effectActive.Reset()
	effectActive.WithLabelValues(effect).Set(1)

	cacheMu.Lock()
	cache.ActiveEffect = effect
	cacheMu.Unlock()
}

// GetSummary returns a copy of the cached render metrics.
func GetSummary() Summary {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cache
}
