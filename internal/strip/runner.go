// Package strip runs the render loop: clear the buffer, let the current
// effect draw, hand the frame to the sink, wait the frame interval.
package strip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/smazurov/stripnode/internal/effects"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/smazurov/stripnode/internal/metrics"
	"github.com/smazurov/stripnode/internal/pixel"
)

// DefaultFrameEventRate caps FrameRenderedEvent publication per second.
const DefaultFrameEventRate = 20

// Publisher receives render loop events.
type Publisher interface {
	Publish(ev events.Event)
}

// Config configures a Runner.
type Config struct {
	Sink     led.Sink
	Playlist *effects.Playlist
	Events   Publisher
	Logger   *slog.Logger
	// MaxTicks stops the loop after that many frames. Zero runs until the
	// context is cancelled.
	MaxTicks uint64
	// FrameEventRate caps FrameRenderedEvent publication per second.
	// Metrics still see every frame.
	FrameEventRate float64
}

// Runner owns the pixel buffer and the current effect. Only the goroutine
// calling Run touches them; other goroutines use Reload.
type Runner struct {
	sink     led.Sink
	playlist *effects.Playlist
	events   Publisher
	logger   *slog.Logger
	maxTicks uint64

	reload      chan *effects.Playlist
	frameEvents *rate.Limiter
	wait        func(ctx context.Context, d time.Duration)

	tick uint64
}

// New checks that the playlist was built for the sink's length.
func New(cfg Config) (*Runner, error) {
	if cfg.Sink == nil {
		return nil, errors.New("runner: sink is required")
	}
	if cfg.Playlist == nil {
		return nil, errors.New("runner: playlist is required")
	}
	if cfg.Playlist.Length() != cfg.Sink.Len() {
		return nil, fmt.Errorf("runner: playlist built for %d pixels, sink drives %d", cfg.Playlist.Length(), cfg.Sink.Len())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FrameEventRate <= 0 {
		cfg.FrameEventRate = DefaultFrameEventRate
	}

	return &Runner{
		sink:        cfg.Sink,
		playlist:    cfg.Playlist,
		events:      cfg.Events,
		logger:      cfg.Logger,
		maxTicks:    cfg.MaxTicks,
		reload:      make(chan *effects.Playlist, 1),
		frameEvents: rate.NewLimiter(rate.Limit(cfg.FrameEventRate), 1),
		wait:        sleep,
	}, nil
}

// Reload hands p to the render loop, which switches to it at the next tick.
// It never blocks; if a previous playlist is still pending it is replaced.
func (r *Runner) Reload(p *effects.Playlist) {
	for {
		select {
		case r.reload <- p:
			return
		default:
		}
		select {
		case <-r.reload:
		default:
		}
	}
}

// Run renders frames until ctx is cancelled, MaxTicks frames were rendered,
// or the sink fails. Only a sink failure yields an error; it wraps the
// sink's *led.TransmitError.
func (r *Runner) Run(ctx context.Context) error {
	buf := pixel.NewBuffer(r.sink.Len())
	r.logger.Info("Render loop started", "length", buf.Len(), "playlist", r.playlist.Names(), "dwell", r.playlist.Dwell())
	r.announce("", "start")

	for {
		if ctx.Err() != nil || r.done() {
			r.logger.Info("Render loop stopped", "ticks", r.tick)
			return nil
		}
		r.applyReload()

		effect := r.playlist.Current()
		start := time.Now()

		buf.Clear()
		interval := effect.Step(buf)
		if err := r.sink.Render(buf); err != nil {
			return r.fail(effect.Name(), err)
		}

		r.tick++
		r.record(effect, buf, time.Since(start), interval)

		if r.playlist.Advance(interval) {
			r.announce(effect.Name(), "dwell")
		}
		if !r.done() {
			r.wait(ctx, interval)
		}
	}
}

func (r *Runner) done() bool {
	return r.maxTicks > 0 && r.tick >= r.maxTicks
}

func (r *Runner) applyReload() {
	var p *effects.Playlist
	select {
	case p = <-r.reload:
	default:
		return
	}

	if p.Length() != r.sink.Len() {
		r.logger.Warn("Ignoring playlist for a different strip length", "playlist_length", p.Length(), "sink_length", r.sink.Len())
		return
	}
	prev := r.playlist.Current().Name()
	r.playlist = p
	r.announce(prev, "reload")
}

// announce records a change of the current effect.
func (r *Runner) announce(prev, reason string) {
	name := r.playlist.Current().Name()
	if reason != "start" {
		r.logger.Info("Effect changed", "effect", name, "previous", prev, "reason", reason, "tick", r.tick)
	}

	metrics.SetActiveEffect(name)
	if _, ok := r.playlist.Current().(effects.Reporter); !ok {
		metrics.ClearScatterPixels()
	}
	r.publish(events.EffectChangedEvent{
		Effect:    name,
		Previous:  prev,
		Position:  r.playlist.Position(),
		Reason:    reason,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (r *Runner) record(effect effects.Effect, buf pixel.Buffer, render, interval time.Duration) {
	metrics.RecordFrame(effect.Name(), render)

	ev := events.FrameRenderedEvent{
		Tick:     r.tick,
		Effect:   effect.Name(),
		Render:   float64(render) / float64(time.Millisecond),
		Interval: float64(interval) / float64(time.Millisecond),
	}
	if rep, ok := effect.(effects.Reporter); ok {
		stats := rep.Stats()
		metrics.SetScatterPixels(stats)
		ev.Scatter = &stats
	}

	if r.events == nil || !r.frameEvents.Allow() {
		return
	}
	ev.Lit = buf.Lit()
	r.events.Publish(ev)
}

func (r *Runner) fail(effect string, err error) error {
	sink := r.sink.Name()
	var te *led.TransmitError
	if errors.As(err, &te) {
		sink = te.Sink
	}
	tick := r.tick + 1

	metrics.RecordSinkError(sink)
	r.logger.Error("Sink failed, stopping render loop", "sink", sink, "tick", tick, "effect", effect, "error", err)
	r.publish(events.SinkErrorEvent{
		Sink:      sink,
		Tick:      tick,
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return fmt.Errorf("render tick %d: %w", tick, err)
}

func (r *Runner) publish(ev events.Event) {
	if r.events != nil {
		r.events.Publish(ev)
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
