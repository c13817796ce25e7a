package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/fracbond-investment-ledger/internal/config"
)

type LedgerEventProducer struct {
	logger *slog.Logger
	writer messageWriter
	topic  string
}

// NewLedgerEventProducer creates the producer for the ledger event stream
// and ensures the topic exists. Writes are synchronous so the outbox
// poller only marks a message PROCESSED once the broker acknowledged it.
func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for ledger event producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopicExists(conn, cfg.EventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists for ledger event producer: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages", "topic", cfg.EventsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages", "topic", cfg.EventsTopic, "count", len(messages))
			}
		},
	}

	return &LedgerEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventsTopic,
	}, nil
}

func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for ledger event producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via ledger event producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via ledger event producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via ledger event producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close ledger event kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
