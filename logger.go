package permgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with permgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithBatch adds a batch-element field to the logger.
func (l *Logger) WithBatch(b int) *Logger {
	return &Logger{
		Logger: l.Logger.With("batch", b),
	}
}

// WithDims adds the filter dimension fields to the logger.
func (l *Logger) WithDims(n, pd, vd int) *Logger {
	return &Logger{
		Logger: l.Logger.With("samples", n, "pd", pd, "vd", vd),
	}
}

// LogFilter logs one lattice filter invocation.
func (l *Logger) LogFilter(ctx context.Context, n, pd, vd int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "filter failed",
			"samples", n,
			"pd", pd,
			"vd", vd,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "filter completed",
			"samples", n,
			"pd", pd,
			"vd", vd,
			"duration", duration,
		)
	}
}

// LogBatchFilter logs a batched filter operation.
func (l *Logger) LogBatchFilter(ctx context.Context, batch int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch filter failed",
			"batch", batch,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch filter completed",
			"batch", batch,
			"duration", duration,
		)
	}
}
