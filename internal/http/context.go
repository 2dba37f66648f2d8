package http

import (
	"context"
	"log/slog"

	"github.com/example/room-finder/internal/logging"
)

type contextKey string

const callerContextKey contextKey = "caller_id"

// ContextWithCaller returns a derived context carrying the calling employee id.
func ContextWithCaller(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, callerContextKey, employeeID)
}

// CallerFromContext extracts the calling employee id if present.
func CallerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerContextKey).(string)
	return id, ok && id != ""
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
