// Package async provides safe concurrent execution for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery,
// timeout enforcement and context cancellation. The bridge uses it for
// scheduled maintenance work such as the audit retention purge.
//
// # Key Functions
//
// SafeGo: Execute a function in a goroutine with safety features
//
//	async.SafeGo(ctx, 5*time.Minute, "audit retention purge", func(ctx context.Context) error {
//		// Task code with automatic panic recovery and timeout
//		_, err := auditLogger.PurgeBefore(ctx, cutoff)
//		return err
//	})
//
// # Features
//
// Panic Recovery: Captures panics with stack traces
// Timeout Enforcement: Per-task timeouts
// Context Cancellation: Respects context cancellation
// Error Logging: Failures go to the context's structured logger
package async
