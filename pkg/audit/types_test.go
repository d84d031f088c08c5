package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(ActionCreate, OutcomeSuccess, "jane@example.com")

	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, ActionCreate, event.Action)
	assert.Equal(t, OutcomeSuccess, event.Outcome)
	assert.Equal(t, "jane@example.com", event.Resource)

	// IDs must be unique per event
	other := NewEvent(ActionCreate, OutcomeSuccess, "jane@example.com")
	assert.NotEqual(t, event.ID, other.ID)
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	event := NewEvent(ActionDelete, OutcomeDenied, "bob@example.com")
	event.Actor = "entra"
	event.RequestID = "req-42"
	event.Detail = "deletion disabled"

	data, err := event.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, event.ID, parsed.ID)
	assert.Equal(t, ActionDelete, parsed.Action)
	assert.Equal(t, OutcomeDenied, parsed.Outcome)
	assert.Equal(t, "bob@example.com", parsed.Resource)
	assert.Equal(t, "deletion disabled", parsed.Detail)
}

func TestRetentionPolicy_Cutoff(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("positive retention", func(t *testing.T) {
		policy := RetentionPolicy{RetentionDays: 90}
		cutoff := policy.Cutoff(now)
		assert.Equal(t, time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC), cutoff)
	})

	t.Run("zero disables purge", func(t *testing.T) {
		policy := RetentionPolicy{}
		assert.True(t, policy.Cutoff(now).IsZero())
	})

	t.Run("negative disables purge", func(t *testing.T) {
		policy := RetentionPolicy{RetentionDays: -1}
		assert.True(t, policy.Cutoff(now).IsZero())
	})
}
