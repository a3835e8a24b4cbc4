package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historySize = 500

// Logger is the subset of *slog.Logger that packages depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects the global level, the stdout format and per-module level
// overrides.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type registry struct {
	mu      sync.RWMutex
	cfg     Config
	ready   bool
	root    slog.LevelVar
	loggers map[string]*slog.Logger
	levels  map[string]*slog.LevelVar
	history *RingBuffer
	onEntry LogCallback
}

var reg = &registry{
	loggers: make(map[string]*slog.Logger),
	levels:  make(map[string]*slog.LevelVar),
}

// Initialize applies cfg. Loggers handed out earlier keep their identity;
// their levels are updated and their handlers rebuilt so they pick up the
// configured format and the history buffer.
func Initialize(cfg Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.cfg = cfg
	reg.ready = true
	reg.history = NewRingBuffer(historySize)
	reg.root.Set(levelOr(cfg.Level, slog.LevelInfo))

	for module, lv := range reg.levels {
		lv.Set(reg.moduleLevel(module))
		reg.loggers[module] = slog.New(newHandler(cfg.Format, lv)).With("module", module)
	}

	slog.SetDefault(slog.New(newHandler(cfg.Format, &reg.root)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	reg.mu.RLock()
	logger, ok := reg.loggers[module]
	reg.mu.RUnlock()
	if ok {
		return logger
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if logger, ok := reg.loggers[module]; ok {
		return logger
	}

	lv := &slog.LevelVar{}
	lv.Set(reg.moduleLevel(module))

	format := "text"
	if reg.ready {
		format = reg.cfg.Format
	}

	logger = slog.New(newHandler(format, lv)).With("module", module)
	reg.loggers[module] = logger
	reg.levels[module] = lv
	return logger
}

// GetBuffer returns the in-memory log history, or nil before Initialize.
func GetBuffer() *RingBuffer {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.history
}

// SetLogCallback registers fn to receive every entry written to the history.
func SetLogCallback(fn LogCallback) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.onEntry = fn
}

func (r *registry) moduleLevel(module string) slog.Level {
	if !r.ready {
		return slog.LevelInfo
	}
	level := levelOr(r.cfg.Level, slog.LevelInfo)
	if s, ok := r.cfg.Modules[module]; ok {
		level = levelOr(s, level)
	}
	return level
}

func (r *registry) sink() (*RingBuffer, LogCallback) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history, r.onEntry
}

// newHandler fans records out to stdout, the journal when present, and the
// history buffer.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	handlers := []slog.Handler{NewBufferHandler(level)}
	if stdoutAttached() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// stdoutAttached is false when stdout is closed or points at a device such
// as /dev/null.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

func levelOr(s string, fallback slog.Level) slog.Level {
	if level, ok := ParseLevel(s); ok {
		return level
	}
	return fallback
}
