package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action represents the category of provisioning event
type Action string

const (
	ActionCreate     Action = "user.create"
	ActionUpdate     Action = "user.update"
	ActionRename     Action = "user.rename"
	ActionDelete     Action = "user.delete"
	ActionDeactivate Action = "user.deactivate"
)

// Outcome represents the result of a provisioning action
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeDenied  Outcome = "denied"
)

// Event represents a single audit log entry. Resource is the mailbox
// address the action targeted, which doubles as the SCIM resource id.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Outcome   Outcome   `json:"outcome"`

	// Actor is the identity of the caller, typically the identity
	// provider name or client address.
	Actor string `json:"actor,omitempty"`

	Resource  string `json:"resource,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Additional details
	Detail       string `json:"detail,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewEvent creates an audit event with a fresh id and timestamp.
func NewEvent(action Action, outcome Outcome, resource string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Outcome:   outcome,
		Resource:  resource,
	}
}

// ToJSON converts the audit event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}

// RetentionPolicy defines how long audit records should be kept
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep audit records.
	// Zero disables the purge.
	RetentionDays int
}

// Cutoff returns the timestamp before which records are purged,
// or the zero time when retention is disabled.
func (p RetentionPolicy) Cutoff(now time.Time) time.Time {
	if p.RetentionDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -p.RetentionDays)
}
