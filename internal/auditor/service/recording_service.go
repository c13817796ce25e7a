// Package service records ledger events into the MongoDB audit trail.
// Recording is idempotent on event ID so Kafka's at-least-once delivery
// never duplicates an entry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/audit"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

// AuditRecordingService implements RecordingService against the audit
// repository
type AuditRecordingService struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

// NewAuditRecordingService creates a new audit recording service
func NewAuditRecordingService(logger *slog.Logger, auditRepo audit.Repository) *AuditRecordingService {
	return &AuditRecordingService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// RecordEvent mirrors one ledger event into the audit trail. A duplicate
// event ID means the event was already recorded; that is a success, not
// an error.
func (s *AuditRecordingService) RecordEvent(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	entry := audit.FromEvent(event, time.Now().UTC())
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		var duplicate audit.ErrDuplicateEntry
		if errors.As(err, &duplicate) {
			logger.Info("Audit entry already recorded, skipping",
				"event_id", event.EventID.String(),
			)
			return nil
		}
		logger.Error("Failed to record audit entry",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return err
	}

	logger.Info("Recorded audit entry",
		"event_id", event.EventID.String(),
		"type", string(event.Type),
		"bond_id", event.BondID,
		"investor", event.InvestorKey,
	)
	return nil
}
