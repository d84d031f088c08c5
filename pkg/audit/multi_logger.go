package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MultiLogger fans audit events out to multiple loggers
type MultiLogger struct {
	loggers []Logger
	async   bool // If true, log asynchronously
	wg      sync.WaitGroup
	errChan chan error
}

// NewMultiLogger creates a multi-logger that writes to every destination
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
		async:   true,
		errChan: make(chan error, len(loggers)),
	}
}

// SetAsync sets whether logging should be asynchronous
func (m *MultiLogger) SetAsync(async bool) {
	m.async = async
}

// Log logs an audit event to all configured loggers
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	if len(m.loggers) == 0 {
		return nil
	}

	if m.async {
		return m.logAsync(ctx, event)
	}

	return m.logSync(ctx, event)
}

// logSync logs synchronously to all loggers
func (m *MultiLogger) logSync(ctx context.Context, event *Event) error {
	var firstErr error

	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			// Continue logging to other loggers even if one fails
		}
	}

	return firstErr
}

// logAsync logs asynchronously to all loggers
func (m *MultiLogger) logAsync(ctx context.Context, event *Event) error {
	for _, logger := range m.loggers {
		m.wg.Add(1)
		go func(l Logger) {
			defer m.wg.Done()
			if err := l.Log(ctx, event); err != nil {
				select {
				case m.errChan <- err:
				default:
					// Channel full, drop error
				}
			}
		}(logger)
	}

	return nil
}

// PurgeBefore purges every logger and sums the removed counts. Purging
// is always synchronous; the cron job wants the total.
func (m *MultiLogger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	var firstErr error

	for _, logger := range m.loggers {
		removed, err := logger.PurgeBefore(ctx, cutoff)
		total += removed
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return total, firstErr
}

// Wait waits for all async logging operations to complete
func (m *MultiLogger) Wait() {
	m.wg.Wait()
}

// Errors drains and returns any errors from async logging
func (m *MultiLogger) Errors() []error {
	var errors []error
	for {
		select {
		case err := <-m.errChan:
			errors = append(errors, err)
		default:
			return errors
		}
	}
}

// Close waits for pending writes and closes all loggers
func (m *MultiLogger) Close() error {
	m.wg.Wait()

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to close audit logger: %w", err)
			}
		}
	}

	close(m.errChan)
	return firstErr
}
