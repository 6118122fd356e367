package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerEvent(t *testing.T) {
	e := NewLedgerEvent(EntityFill, ActionCreated, 7)

	assert.Equal(t, EntityFill, e.Entity)
	assert.Equal(t, ActionCreated, e.Action)
	assert.Equal(t, int64(7), e.ID)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)
}

func TestLedgerEventJSON(t *testing.T) {
	e := LedgerEvent{
		Entity:    EntityTransaction,
		Action:    ActionUpdated,
		ID:        42,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := e.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"entity":"transaction","action":"updated","id":42,"timestamp":"2024-01-01T12:00:00Z"}`, string(data))

	parsed, err := LedgerEventFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, e, parsed)
}

func TestLedgerEventFromJSONInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"id": "not_a_number"}`},
		{"missing entity", `{"action": "created", "id": 1}`},
		{"missing action", `{"entity": "fill", "id": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LedgerEventFromJSON([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
