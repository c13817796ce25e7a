package outbox

import (
	"encoding/json"
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message stores a ledger event for reliable publishing. It is written in
// the same database transaction as the ledger mutation it describes, so a
// committed mutation always has its event queued.
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	BondID        int64               `json:"bond_id"`
	InvestorKey   string              `json:"investor_key"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a ledger event in a pending outbox message.
func NewMessage(event *shared.LedgerEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:     event.EventID,
		BondID:      event.BondID,
		InvestorKey: event.InvestorKey,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		Attempts:    0,
		CreatedAt:   event.OccurredAt,
	}, nil
}

// Event decodes the wrapped ledger event.
func (m *Message) Event() (*shared.LedgerEvent, error) {
	var event shared.LedgerEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
