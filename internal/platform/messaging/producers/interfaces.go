package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher puts ledger events (invested, claimed, redeemed, matured)
// onto the event stream the audit worker consumes.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks events the audit worker could not process so
// the stream keeps moving without losing the failed record.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// messageWriter is the slice of kafka.Writer the producers use, split out
// so tests can substitute a fake broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
