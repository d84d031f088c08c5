package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBLogger implements audit logging to a SQLite database. The driver is
// registered by the caller; the logger only needs database/sql.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-based audit logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{
		db: db,
	}

	// Ensure the provisioning_audit table exists
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure provisioning_audit table: %w", err)
	}

	return logger, nil
}

// ensureTable creates the provisioning_audit table if it doesn't exist
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS provisioning_audit (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		actor TEXT,
		resource TEXT,
		request_id TEXT,
		detail TEXT,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_provisioning_audit_timestamp ON provisioning_audit(timestamp);
	CREATE INDEX IF NOT EXISTS idx_provisioning_audit_resource ON provisioning_audit(resource);
	CREATE INDEX IF NOT EXISTS idx_provisioning_audit_action ON provisioning_audit(action);
	`

	_, err := l.db.Exec(query)
	return err
}

// Log writes an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO provisioning_audit (
			id, timestamp, action, outcome,
			actor, resource, request_id,
			detail, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, event.Action, event.Outcome,
		event.Actor, event.Resource, event.RequestID,
		event.Detail, event.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// Recent returns the newest events, most recent first
func (l *DBLogger) Recent(ctx context.Context, limit int) ([]*Event, error) {
	query := `
		SELECT id, timestamp, action, outcome,
			actor, resource, request_id,
			detail, error_message
		FROM provisioning_audit
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		event := &Event{}
		err := rows.Scan(
			&event.ID, &event.Timestamp, &event.Action, &event.Outcome,
			&event.Actor, &event.Resource, &event.RequestID,
			&event.Detail, &event.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}

	return events, nil
}

// PurgeBefore deletes records older than the cutoff
func (l *DBLogger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := l.db.ExecContext(ctx,
		"DELETE FROM provisioning_audit WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit records: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged audit records: %w", err)
	}

	return removed, nil
}

// Close is a no-op; the database connection may be shared
func (l *DBLogger) Close() error {
	return nil
}
