package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// EventType names what happened to the ledger.
type EventType string

const (
	EventTransactionAdded   EventType = "transaction.added"
	EventTransactionEdited  EventType = "transaction.edited"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventLimitChanged       EventType = "limit.changed"
	EventSettingsChanged    EventType = "settings.changed"
	EventLedgerReset        EventType = "ledger.reset"
	EventSpendingWarning    EventType = "spending.warning"
	EventSpendingBlocked    EventType = "spending.blocked"
)

// LedgerEvent is published after a committed ledger change. Stats are the
// post-change figures for the current month.
type LedgerEvent struct {
	EventID     string              `json:"event_id"`
	Type        EventType           `json:"type"`
	Timestamp   time.Time           `json:"timestamp"`
	Transaction *core.Transaction   `json:"transaction,omitempty"`
	Stats       core.DashboardStats `json:"stats"`
}

// NewLedgerEvent stamps a new event with a fresh id and the current time.
// tx may be nil for events that are not about a single transaction.
func NewLedgerEvent(typ EventType, tx *core.Transaction, s core.DashboardStats) *LedgerEvent {
	return &LedgerEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		Timestamp:   time.Now().UTC(),
		Transaction: tx,
		Stats:       s,
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects ones without an id or type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" || msg.Type == "" {
		return nil, fmt.Errorf("incomplete ledger event: id=%q type=%q", msg.EventID, msg.Type)
	}
	return &msg, nil
}
