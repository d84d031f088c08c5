package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with structured logging
//
// Usage in defer statements:
//
//	func purgeJob() {
//	    defer observability.RecoverPanic(logger, "audit retention purge")
//	    // ... code that might panic
//	}
//
// If a panic occurs it is recovered and logged at Error level with the
// panic value, the full stack trace, and the given context string. The
// panic is NOT re-raised, so background jobs keep the process alive.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}
