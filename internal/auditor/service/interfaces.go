package service

import (
	"context"

	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

// RecordingService defines the interface for recording ledger events into
// the audit trail.
type RecordingService interface {
	RecordEvent(ctx context.Context, event *shared.LedgerEvent) error
}
