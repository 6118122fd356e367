package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity names used in ledger events, logs and HTTP error messages.
const (
	EntityAccount     = "account"
	EntityBucket      = "bucket"
	EntityTransaction = "transaction"
	EntityFill        = "fill"
)

// Action describes what happened to a ledger row.
type Action string

const (
	ActionCreated    Action = "created"
	ActionUpdated    Action = "updated"
	ActionDeleted    Action = "deleted"
	ActionDeletedAll Action = "deleted_all"
)

// LedgerEvent announces a committed write. It carries only the identity of
// the row; consumers reload the current state from the store. ID is zero for
// ActionDeletedAll.
type LedgerEvent struct {
	Entity    string    `json:"entity"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(entity string, action Action, id int64) LedgerEvent {
	return LedgerEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects ones without an entity or
// action.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, fmt.Errorf("decode ledger event: %w", err)
	}
	if e.Entity == "" || e.Action == "" {
		return LedgerEvent{}, fmt.Errorf("decode ledger event: missing entity or action")
	}
	return e, nil
}
