// Package logging provides module-scoped slog loggers with per-module levels.
//
// Records go to stdout (text or JSON), to the systemd journal when journald
// is reachable, and to an in-memory history that backs the log stream
// endpoint.
//
// Initialize once at startup, then fetch loggers by module name:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"strip": "debug"},
//	})
//
//	logger := logging.GetLogger("strip")
//	logger.Info("Render loop started", "effect", "scatter-vivid", "length", 80)
//
// Loggers fetched before Initialize stay valid; Initialize updates their
// levels in place.
//
// In TOML:
//
//	[logging]
//	level = "info"
//	format = "text"
//	strip = "debug"
//	api = "warn"
//
// Journal entries carry SYSLOG_IDENTIFIER=stripnode and one field per
// attribute:
//
//	journalctl -t stripnode -f
//	journalctl -t stripnode MODULE=strip EFFECT=explode
package logging
