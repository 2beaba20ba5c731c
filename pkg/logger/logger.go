// Package logger provides structured key/value logging for calcengine.
package logger

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// Logger provides structured logging interface.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// With returns a new logger with additional key-value pairs.
	With(keysAndValues ...any) Logger
}

// SlogAdapter implements Logger on top of a slog.Logger.
type SlogAdapter struct {
	logger  *slog.Logger
	handler *LineHandler
}

// New creates a logger writing lines to w at the given level.
func New(w io.Writer, level Level) *SlogAdapter {
	h := NewLineHandler(w, level)

	return &SlogAdapter{logger: slog.New(h), handler: h}
}

// NewFileLogger creates a logger appending to the file at path.
func NewFileLogger(path string, level Level) (*SlogAdapter, error) {
	h, err := NewFileHandler(path, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	return &SlogAdapter{logger: slog.New(h), handler: h}, nil
}

// Debug logs debug-level messages.
func (a *SlogAdapter) Debug(msg string, keysAndValues ...any) {
	a.logger.Log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

// Info logs info-level messages.
func (a *SlogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

// Error logs error-level messages.
func (a *SlogAdapter) Error(msg string, keysAndValues ...any) {
	a.logger.Log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

// With returns a new logger with additional base key-value pairs.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (a *SlogAdapter) With(keysAndValues ...any) Logger {
	return &SlogAdapter{logger: a.logger.With(keysAndValues...), handler: a.handler}
}

// Close releases the underlying writer.
func (a *SlogAdapter) Close() error {
	return a.handler.Close()
}

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (*NoOpLogger) Debug(string, ...any) {}

// Info does nothing.
func (*NoOpLogger) Info(string, ...any) {}

// Error does nothing.
func (*NoOpLogger) Error(string, ...any) {}

// With returns the same NoOpLogger.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (n *NoOpLogger) With(...any) Logger {
	return n
}
