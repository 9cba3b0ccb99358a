// Package applog builds the application's log/slog logger.
package applog

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON-handler slog.Logger at the given level string
// ("debug"|"info"|"warn"|"error", case-insensitive; unrecognized values fall
// back to info).
func New(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
