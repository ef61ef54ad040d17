// Package logging wraps log/slog the way nexus-bridge/telemetry/logger.go
// does for the rest of this family: structured JSON to stdout, a small
// Info/Warn/Error surface so call sites don't depend on slog directly.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the gateway's structured logging handle.
type Logger struct {
	logger *slog.Logger
}

// New creates a Logger that writes JSON lines to stdout.
func New() *Logger {
	return &Logger{logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}
}

// Info logs an informational event.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

// Warn logs a recoverable but noteworthy event.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

// Error logs err alongside msg and any extra key-value pairs.
func (l *Logger) Error(err error, msg string, keysAndValues ...any) {
	args := append(append([]any{}, keysAndValues...), "error", err)
	l.logger.Error(msg, args...)
}
