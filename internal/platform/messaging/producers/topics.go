package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const topicReadAttempts = 5

// ensureTopicExists creates the topic when the broker does not know it
// yet. Brokers can be slow to answer partition metadata right after they
// come up, so the read is retried before concluding the topic is missing.
func ensureTopicExists(conn *kafka.Conn, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition
	var readErr error

	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, readErr = conn.ReadPartitions(topic)
		if readErr == nil {
			break
		}
		log.Warn("failed to read topic partitions",
			"topic", topic,
			"attempt", attempt,
			"error", readErr,
		)
		time.Sleep(2 * time.Second)
	}

	if len(partitions) > 0 {
		log.Debug("kafka topic already exists", "topic", topic)
		return nil
	}

	if numPartitions <= 0 {
		numPartitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}

	log.Info("creating kafka topic",
		"topic", topic,
		"partitions", numPartitions,
		"replication_factor", replicationFactor,
	)
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
