// Package systemd reports service state to systemd through sd_notify.
package systemd

import (
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/stripnode/internal/events"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Notifier sends READY=1 once the first frame reached the strip, keeps the
// watchdog fed while frames keep rendering and sends STOPPING=1 on shutdown.
// Outside systemd every notification is a no-op.
type Notifier struct {
	notify   notifyFunc
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	ready    bool
	lastPing time.Time
	unsubs   []func()
}

// NewNotifier creates a notifier. The watchdog is fed at half the interval
// systemd configured in WatchdogSec, or not at all when it is disabled.
func NewNotifier(logger *slog.Logger) *Notifier {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("Invalid watchdog environment, watchdog disabled", "error", err)
		interval = 0
	}
	return newNotifier(daemon.SdNotify, interval/2, time.Now, logger)
}

func newNotifier(notify notifyFunc, interval time.Duration, now func() time.Time, logger *slog.Logger) *Notifier {
	return &Notifier{
		notify:   notify,
		interval: interval,
		now:      now,
		logger:   logger,
	}
}

// Start subscribes to render events.
func (n *Notifier) Start(bus *events.Bus) {
	if n.interval > 0 {
		n.logger.Info("Systemd watchdog enabled", "ping_interval", n.interval)
	}
	n.unsubs = append(n.unsubs,
		bus.Subscribe(n.onFrame),
		bus.Subscribe(n.onEffectChanged),
	)
}

// Stop unsubscribes and tells systemd the service is shutting down.
func (n *Notifier) Stop() {
	for _, unsub := range n.unsubs {
		unsub()
	}
	n.unsubs = nil
	n.send(daemon.SdNotifyStopping)
}

func (n *Notifier) onFrame(events.FrameRenderedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.ready {
		n.ready = true
		n.lastPing = n.now()
		n.send(daemon.SdNotifyReady)
		return
	}
	if n.interval <= 0 {
		return
	}
	if now := n.now(); now.Sub(n.lastPing) >= n.interval {
		n.lastPing = now
		n.send(daemon.SdNotifyWatchdog)
	}
}

func (n *Notifier) onEffectChanged(e events.EffectChangedEvent) {
	n.send("STATUS=Rendering " + e.Effect)
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}
