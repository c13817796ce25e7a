package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/fracbond-investment-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one ledger event from the stream. A non-nil
// error leaves the offset uncommitted so the event is seen again (or
// parked on the dead letter topic by the handler itself).
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaConsumer reads the ledger event stream for the audit worker.
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.EventsTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: cfg.StartOffset,
		}),
	}
}

// Subscribe starts the fetch loop in a goroutine and returns immediately.
// Offsets commit only after the handler succeeds, so an audit entry is
// never skipped by a crash between fetch and persist.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("consuming ledger events", "topic", topic, "group_id", groupID)

	go c.run(ctx, topic, groupID, handler)
	return nil
}

func (c *KafkaConsumer) run(ctx context.Context, topic string, groupID string, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("stopping ledger event consumer", "topic", topic, "group_id", groupID)
				return
			}
			c.logger.Error("failed to fetch ledger event", "topic", topic, "group_id", groupID, "error", err)
			time.Sleep(time.Second)
			continue
		}

		c.handle(ctx, msg, handler)
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	log := c.logger.With(
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)
	log.Debug("ledger event received")

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		// Uncommitted events are redelivered after a rebalance or restart.
		log.Error("ledger event handler failed, offset not committed", "error", err)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error("failed to commit offset after processing", "error", err)
		return
	}
	log.Debug("offset committed")
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
