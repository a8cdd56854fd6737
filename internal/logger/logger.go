// Package logger configures the process-wide structured logger. All
// long-running components (engine, sweep, queue consumer) log through
// slog so output is machine-parseable in one place.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger writing JSON to stdout at the given level
// ("debug", "info", "warn", "error"; anything else means info) and
// installs it as the slog default.
func New(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}
