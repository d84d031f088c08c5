// Package provisioner translates SCIM user operations into mailcow admin
// API calls.
//
// # Overview
//
// The provisioner is the stateless core of the bridge: every decision is
// made against a live admin-API read, never a cache. A SCIM user's id is
// its mailbox address, so lookups resolve directly and a change of primary
// email becomes a mailbox rename.
//
// # Operations
//
// Create checks for an existing mailbox, creates one with the bridge
// defaults, and increments users_created. Replace edits active state and
// display name, renames when the primary email moved, and falls back to an
// implicit create for unknown ids when upsert is enabled. Delete either
// removes the mailbox or deactivates it, depending on configuration, and
// is idempotent for addresses that are already gone.
//
// Counters increment only after the admin API confirmed the operation.
// Each mutation emits an audit event with the acting client and request id
// taken from the context.
//
// # Related Packages
//
//   - pkg/mailcow: Admin API client
//   - pkg/scim: Resource types and mapping sources
//   - pkg/api: HTTP handlers that drive these operations
package provisioner
