// Package logging carries a request-scoped slog logger through contexts so
// handlers and services enrich one logger instead of rebuilding attributes at
// every layer.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger attaches logger to ctx. A nil ctx or logger is returned
// unchanged.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or nil when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
