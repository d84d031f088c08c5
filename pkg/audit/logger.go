package audit

import (
	"context"
	"time"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *Event) error

	// PurgeBefore removes events older than the cutoff and reports
	// how many records were dropped
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the logger and flushes any buffered records
	Close() error
}

// contextKey is the type for context keys
type contextKey string

const (
	// loggerKey is the context key for the audit logger
	loggerKey contextKey = "audit_logger"

	// actorKey is the context key for the acting client identity
	actorKey contextKey = "audit_actor"
)

// WithLogger adds an audit logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithActor records the acting client identity, typically the remote
// address of the identity provider's request
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the acting client identity, if any
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok {
		return actor
	}
	return ""
}

// FromContext retrieves the audit logger from context. Returns a no-op
// logger when none is set, so call sites never need a nil check.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return NopLogger{}
}

// NopLogger is a logger that discards everything. Used when auditing
// is not configured.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }

func (NopLogger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (NopLogger) Close() error { return nil }
