package contextutil

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	loggerKey contextKey = "logger"
	userIDKey contextKey = "user_id"
)

// LoggerFromContext extracts a logger from context if available, otherwise returns the default logger.
// This helper can be used by any package that needs to extract a logger from context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctxLogger := ctx.Value(loggerKey); ctxLogger != nil {
		if l, ok := ctxLogger.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// UserIDFromContext extracts the authenticated user id from context.
// Returns an empty string when no user is attached.
func UserIDFromContext(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
