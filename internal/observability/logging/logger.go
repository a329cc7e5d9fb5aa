// Package logging builds the process-wide slog logger. Both binaries
// call Setup once at startup; packages that log through the default
// logger (retry warnings, NATS handlers) inherit it.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates a JSON logger tagged with the service name and installs
// it as the slog default. The level string is case-insensitive; unknown
// values fall back to info.
func Setup(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
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
