// Package audit defines the immutable audit trail of ledger events. The
// accounting truth lives in Postgres; audit entries are an append-only
// mirror in MongoDB used for investigations and reconciliation, which is
// why positions themselves are never deleted either.
package audit

import (
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Entry is one recorded ledger event
type Entry struct {
	EventID          uuid.UUID        `json:"event_id" bson:"event_id"`
	Type             shared.EventType `json:"type" bson:"type"`
	BondID           int64            `json:"bond_id" bson:"bond_id"`
	InvestorKey      string           `json:"investor_key" bson:"investor_key"`
	Amount           money.Money      `json:"amount" bson:"amount"`
	RealizedInterest money.Money      `json:"realized_interest" bson:"realized_interest"`
	PrincipalAfter   money.Money      `json:"principal_after" bson:"principal_after"`
	CorrelationID    string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt       time.Time        `json:"occurred_at" bson:"occurred_at"`
	RecordedAt       time.Time        `json:"recorded_at" bson:"recorded_at"`
}

// FromEvent builds an audit entry from a ledger event.
func FromEvent(event *shared.LedgerEvent, recordedAt time.Time) *Entry {
	return &Entry{
		EventID:          event.EventID,
		Type:             event.Type,
		BondID:           event.BondID,
		InvestorKey:      event.InvestorKey,
		Amount:           event.Amount,
		RealizedInterest: event.RealizedInterest,
		PrincipalAfter:   event.PrincipalAfter,
		CorrelationID:    event.CorrelationID,
		OccurredAt:       event.OccurredAt,
		RecordedAt:       recordedAt,
	}
}
