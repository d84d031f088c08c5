// Package audit provides an audit trail for mailbox provisioning actions.
//
// # Overview
//
// Every create, update, rename, delete, and deactivate performed against the
// mailcow API produces an Event with a uuid, the acting client, the mailbox
// address, and the outcome. The bridge itself is stateless, so the audit
// trail is the only local record of what provisioning happened and why.
//
// # Sinks
//
// FileLogger writes JSON lines with size-based rotation. DBLogger writes to
// a SQLite table (provisioning_audit) for ad-hoc queries. MultiLogger fans
// out to both. When no sink is configured, NopLogger drops everything.
//
// # Usage Example
//
// Record a provisioning action:
//
//	event := audit.NewEvent(audit.ActionCreate, audit.OutcomeSuccess, "jane@example.com")
//	event.Actor = "okta"
//	event.RequestID = requestID
//	logger.Log(ctx, event)
//
// Purge old records (scheduled from cmd/scimcow):
//
//	cutoff := policy.Cutoff(time.Now())
//	removed, err := logger.PurgeBefore(ctx, cutoff)
//
// # Retention Policy
//
// AUDIT_RETENTION_DAYS bounds how long records are kept; the purge runs
// daily and applies to both rotated files and database rows. Zero disables
// the purge.
//
// # Related Packages
//
//   - pkg/provisioner: Emits events around mailcow calls
//   - cmd/scimcow: Wires sinks and schedules the purge
package audit
