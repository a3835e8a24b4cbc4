package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// Identifier tags every journal entry, so `journalctl -t stripnode` finds them.
const Identifier = "stripnode"

// JournalHandler writes records to the systemd journal with attributes as
// upper-case journal fields.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a journal handler gated by level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	vars := map[string]string{"SYSLOG_IDENTIFIER": Identifier}
	for _, a := range h.attrs {
		journalField(vars, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		journalField(vars, h.groups, a)
		return true
	})

	if err := journal.Send(r.Message, priority(r.Level), vars); err != nil {
		return fmt.Errorf("journal send: %w", err)
	}
	return nil
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JournalHandler{
		level:  h.level,
		attrs:  append(slices.Clip(h.attrs), attrs...),
		groups: h.groups,
	}
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clip(h.groups), name),
	}
}

func priority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalField stores a under a journal-safe key. Journal field names may
// only hold upper-case letters, digits and underscores.
func journalField(vars map[string]string, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := fieldName(append(slices.Clip(groups), a.Key))

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		for _, ga := range v.Group() {
			journalField(vars, append(slices.Clip(groups), a.Key), ga)
		}
	case slog.KindInt64:
		vars[key] = strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		vars[key] = strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		vars[key] = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		vars[key] = strconv.FormatBool(v.Bool())
	case slog.KindTime:
		vars[key] = v.Time().Format(time.RFC3339Nano)
	default:
		vars[key] = v.String()
	}
}

func fieldName(parts []string) string {
	key := strings.ToUpper(strings.Join(parts, "_"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, key)
}

// IsJournalAvailable reports whether journald is reachable.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
