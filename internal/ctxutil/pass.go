// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import (
	"context"
	"log/slog"
)

// PassKey is the context key for the indexing pass ID.
type PassKey struct{}

// WithPassID returns a context carrying the indexing pass ID.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, PassKey{}, passID)
}

// PassFromContext returns the pass ID from context, or empty string if not set.
func PassFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(PassKey{}).(string); ok {
		return v
	}
	return ""
}

// Logger returns logger with a pass_id attribute when ctx carries one.
func Logger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := PassFromContext(ctx); id != "" {
		return logger.With("pass_id", id)
	}
	return logger
}
