package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines audit trail persistence operations
type Repository interface {
	// Create stores an entry, returning ErrDuplicateEntry when the event
	// was already recorded (Kafka at-least-once delivery).
	Create(ctx context.Context, entry *Entry) error

	// GetByEventID returns ErrEntryNotFound when no entry exists.
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Entry, error)

	ListByInvestor(ctx context.Context, investorKey string, limit, offset int) ([]*Entry, error)
	ListByBond(ctx context.Context, bondID int64, limit, offset int) ([]*Entry, error)
}

// ErrEntryNotFound indicates a missing audit entry
type ErrEntryNotFound struct {
	EventID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "audit entry not found: " + e.EventID.String()
}

// ErrDuplicateEntry indicates event uniqueness violation
type ErrDuplicateEntry struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate audit entry: " + e.EventID.String()
}
