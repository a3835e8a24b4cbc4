package led

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/stripnode/internal/events"
)

// Status LED patterns.
const (
	PatternOff       = "off"
	PatternSolid     = "solid"
	PatternHeartbeat = "heartbeat"
)

// StatusIndicator mirrors render loop health on a board LED: solid while
// frames are transmitted, heartbeat once the sink has failed.
type StatusIndicator struct {
	led    *boardLED
	bus    *events.Bus
	logger *slog.Logger

	mu      sync.Mutex
	pattern string
	unsubs  []func()
}

// NewStatusIndicator takes over the named board LED. An empty name selects
// the activity LED of the detected board.
func NewStatusIndicator(name string, bus *events.Bus, logger *slog.Logger) (*StatusIndicator, error) {
	return newStatusIndicator(sysfsLEDPath, name, detectBoard(), bus, logger)
}

func newStatusIndicator(root, name, model string, bus *events.Bus, logger *slog.Logger) (*StatusIndicator, error) {
	if name == "" {
		name = defaultBoardLED(model)
	}
	if name == "" {
		return nil, fmt.Errorf("no default status LED for board %q, set status_led.name", model)
	}
	led, err := newBoardLED(root, name)
	if err != nil {
		return nil, err
	}
	logger.Info("Status LED enabled", "led", name, "board_model", model)
	return &StatusIndicator{led: led, bus: bus, logger: logger}, nil
}

// Start subscribes to render events.
func (s *StatusIndicator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubs = append(s.unsubs,
		s.bus.Subscribe(func(events.FrameRenderedEvent) { s.show(PatternSolid) }),
		s.bus.Subscribe(func(events.SinkErrorEvent) { s.show(PatternHeartbeat) }),
	)
}

// Stop unsubscribes and turns the LED off.
func (s *StatusIndicator) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	s.show(PatternOff)
}

// Pattern returns the pattern currently shown.
func (s *StatusIndicator) Pattern() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// show applies pattern. A heartbeat stays until Stop.
func (s *StatusIndicator) show(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pattern == pattern {
		return
	}
	if s.pattern == PatternHeartbeat && pattern == PatternSolid {
		return
	}

	var err error
	switch pattern {
	case PatternSolid:
		err = s.led.setTrigger("default-on")
	case PatternHeartbeat:
		err = s.led.setTrigger("heartbeat")
	default:
		if err = s.led.setTrigger("none"); err == nil {
			err = s.led.setBrightness(false)
		}
	}
	if err != nil {
		s.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
		return
	}
	s.pattern = pattern
	s.logger.Debug("Status LED changed", "pattern", pattern)
}
