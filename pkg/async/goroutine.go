package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/scimcow/scimcow/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// Use this instead of bare `go func()` for background work so a panicking
// or hanging task cannot take the bridge down. Failures are reported
// through the logger carried by the context.
//
// Example:
//
//	SafeGo(ctx, 5*time.Minute, "audit retention purge", func(ctx context.Context) error {
//	    _, err := auditLogger.PurgeBefore(ctx, cutoff)
//	    return err
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	logger := observability.FromContext(parentCtx).WithField("task", taskName)

	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithError(err).Error("Background task failed")
		}
	}()
}
