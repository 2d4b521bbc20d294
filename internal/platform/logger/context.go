package logger

import (
	"context"
	"log/slog"
)

// contextKey is an unexported type to prevent collisions with context keys from other packages.
type contextKey struct{}

// WithLogger returns a new context carrying the provided logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger stored by WithLogger. If the context carries
// no logger, the default logger is returned.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}
