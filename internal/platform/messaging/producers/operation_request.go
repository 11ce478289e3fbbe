package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
)

// OperationRequestProducer publishes operation requests keyed by operation id,
// so every attempt of one operation lands on the same partition.
type OperationRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewOperationRequestProducer creates the API gateway producer and ensures the topic exists
func NewOperationRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*OperationRequestProducer, error) {
	if cfg.OperationTopic == "" {
		return nil, fmt.Errorf("kafka operation topic is not configured")
	}

	if err := ensureTopic(cfg, cfg.OperationTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure operation topic %s exists: %w", cfg.OperationTopic, err)
	}

	return &OperationRequestProducer{
		logger: logger,
		writer: newSyncWriter(cfg, cfg.OperationTopic, kafka.RequireOne),
		topic:  cfg.OperationTopic,
	}, nil
}

func (p *OperationRequestProducer) PublishOperation(ctx context.Context, req *operation.Request) error {
	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal operation request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(req.OperationID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderCorrelationID, Value: []byte(req.CorrelationID)},
			{Key: HeaderOperationType, Value: []byte(req.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish operation request",
			"topic", p.topic,
			"operation_id", req.OperationID.String(),
			"type", string(req.Type),
			"correlation_id", req.CorrelationID,
			"error", err,
		)
		return fmt.Errorf("failed to publish operation request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published operation request",
		"topic", p.topic,
		"operation_id", req.OperationID.String(),
		"type", string(req.Type),
	)
	return nil
}

func (p *OperationRequestProducer) Close() error {
	p.logger.Info("Closing operation request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
