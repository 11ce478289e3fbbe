package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shop-backoffice-ledger/internal/config"
)

const (
	HeaderCorrelationID = "correlation-id"
	HeaderOperationType = "operation-type"
	HeaderEventType     = "event-type"
	HeaderDLQReason     = "dlq-reason"
)

// topicReadAttempts bounds the partition lookups done before creating a topic
const topicReadAttempts = 5

// ensureTopic dials the broker and creates topic when it cannot be found
func ensureTopic(cfg *config.KafkaConfig, topic string, logger *slog.Logger) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	return createTopicIfNotExists(conn, kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}, logger)
}

func createTopicIfNotExists(conn *kafka.Conn, topic kafka.TopicConfig, logger *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	for i := 0; i < topicReadAttempts; i++ {
		partitions, err = conn.ReadPartitions(topic.Topic)
		if err == nil && len(partitions) > 0 {
			logger.Info("Kafka topic already exists", "topic", topic.Topic, "partitions", len(partitions))
			return nil
		}
		logger.Warn("Failed to read partitions, retrying", "topic", topic.Topic, "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}

	if topic.NumPartitions <= 0 {
		topic.NumPartitions = 1
	}
	if topic.ReplicationFactor <= 0 {
		topic.ReplicationFactor = 1
	}

	logger.Info("Creating Kafka topic",
		"topic", topic.Topic,
		"partitions", topic.NumPartitions,
		"replication_factor", topic.ReplicationFactor,
	)
	if err := conn.CreateTopics(topic); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic.Topic, err)
	}
	return nil
}

// newSyncWriter builds a writer that returns only once the brokers acknowledged the batch
func newSyncWriter(cfg *config.KafkaConfig, topic string, acks kafka.RequiredAcks) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}
}
