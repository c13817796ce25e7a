package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fracbond-investment-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// deadLetterRecord is the envelope written to the dead letter topic. It
// keeps the original event byte-for-byte so an operator can inspect and
// replay it once the failure is understood.
type deadLetterRecord struct {
	SourceKey     string `json:"source_key"`
	SourcePayload string `json:"source_payload"`
	Reason        string `json:"reason"`
	FailedAt      string `json:"failed_at"`
}

type DLQProducer struct {
	logger   *slog.Logger
	writer   messageWriter
	dlqTopic string
}

// NewDLQProducer returns nil without error when no dead letter topic is
// configured; the audit worker then drops failed events after logging them.
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("dead letter topic not configured, failed events will not be parked")
		return nil, nil
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dead letter producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopicExists(conn, cfg.DLQTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure dead letter topic %s exists: %w", cfg.DLQTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &DLQProducer{
		logger:   logger,
		writer:   writer,
		dlqTopic: cfg.DLQTopic,
	}, nil
}

// PublishToDLQ wraps the failed event in a deadLetterRecord and writes it
// synchronously, so a parked event is durable before the consumer moves on.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("dead letter producer is not initialized")
	}

	record := deadLetterRecord{
		SourceKey:     key,
		SourcePayload: string(originalMessageValue),
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter record: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "failure-reason", Value: []byte(reason)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to park event on dead letter topic",
			"topic", p.dlqTopic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish to dead letter topic %s: %w", p.dlqTopic, err)
	}

	p.logger.Info("event parked on dead letter topic",
		"topic", p.dlqTopic,
		"key", key,
		"reason", reason,
	)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("closing dead letter producer", "topic", p.dlqTopic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dead letter writer for topic %s: %w", p.dlqTopic, err)
	}
	return nil
}
