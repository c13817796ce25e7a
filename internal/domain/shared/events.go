package shared

import (
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/google/uuid"
)

// EventType defines the ledger mutations that produce events
type EventType string

const (
	EventTypeInvested        EventType = "INVESTED"
	EventTypeInterestClaimed EventType = "INTEREST_CLAIMED"
	EventTypeRedeemed        EventType = "REDEEMED"
)

// LedgerEvent records one successful ledger mutation. Events are written
// to the transactional outbox in the same database transaction as the
// mutation, then published to Kafka and mirrored into the audit trail.
type LedgerEvent struct {
	EventID          uuid.UUID   `json:"event_id"`
	Type             EventType   `json:"type"`
	BondID           int64       `json:"bond_id"`
	InvestorKey      string      `json:"investor_key"`
	Amount           money.Money `json:"amount"`            // invested amount, claimed interest, or redeemed principal
	RealizedInterest money.Money `json:"realized_interest"` // interest folded into claimed as part of invest/redeem
	PrincipalAfter   money.Money `json:"principal_after"`
	CorrelationID    string      `json:"correlation_id,omitempty"`
	OccurredAt       time.Time   `json:"occurred_at"`
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
