package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fracbond-investment-ledger/internal/auditor/service"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
	"github.com/fracbond-investment-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler handles incoming ledger event messages from Kafka
type LedgerEventHandler struct {
	recordingService service.RecordingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewLedgerEventHandler creates a new handler
func NewLedgerEventHandler(
	logger *slog.Logger,
	recordingService service.RecordingService,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		recordingService: recordingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal ledger event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received ledger event for recording",
		"event_id", event.EventID.String(),
		"type", string(event.Type),
		"bond_id", event.BondID,
		"investor", event.InvestorKey,
	)

	if err := h.recordingService.RecordEvent(ctx, &event); err != nil {
		logger.Error("Failed to record ledger event",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("recording event %s failed: %w", event.EventID.String(), err)
	}

	logger.Info("Successfully recorded ledger event", "event_id", event.EventID.String())
	return nil // Success, commit offset
}
