// Package observability carries per-run logging context through the engine.
package observability

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
)

type loggerContextKey struct{}

type runIDContextKey struct{}

// ContextWithLogger attaches a non-nil logger to the context.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	if ctx == nil || lg == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, lg)
}

// LoggerFromContext returns the logger stored in the context or the default
// slog logger when none is present. A run id in the context is attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	lg := slog.Default()
	if v, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && v != nil {
		lg = v
	}
	if id := RunIDFromContext(ctx); id != "" {
		lg = lg.With(slog.String("run_id", id))
	}
	return lg
}

// NewRunID returns a fresh sortable evaluation run id.
func NewRunID() string { return ulid.Make().String() }

// ContextWithRunID stores a non-empty evaluation run id so that every task
// spawned for the run logs with the same correlation key.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil || runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDContextKey{}, runID)
}

// RunIDFromContext retrieves the run id, or "" when none is present.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDContextKey{}).(string); ok {
		return v
	}
	return ""
}
