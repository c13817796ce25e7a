// Package outbox_poller drains the transactional outbox into the Kafka
// event stream. The ledger writes events to the outbox inside its
// database transaction; this poller is what makes them visible to the
// rest of the system.
package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fracbond-investment-ledger/internal/domain/outbox"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
	"github.com/fracbond-investment-ledger/internal/platform/messaging/producers"
)

// EventPublisher publishes outbox messages to the event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher on top of a Kafka producer
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.EventPublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent pushes one outbox message onto the event stream and marks
// it PROCESSED. The Kafka key is the bond ID so events for one bond stay
// ordered within a partition.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to decode ledger event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after decode error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	// Add correlation ID to logger
	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to event stream", "outbox_id", message.ID, "event_id", message.EventID)

	key := fmt.Sprintf("%d", message.BondID)
	if err := p.producer.Publish(ctx, key, event); err != nil {
		logger.Error("Failed to publish ledger event", "outbox_id", message.ID, "event_id", message.EventID, "error", err)
		return fmt.Errorf("failed to publish event %s: %w", message.EventID, err)
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		return fmt.Errorf("publish for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.EventID, message.ID, err)
	}

	logger.Info("Outbox message successfully published and marked as PROCESSED", "outbox_id", message.ID, "event_id", message.EventID)
	return nil
}
