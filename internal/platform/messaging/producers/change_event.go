package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
)

// ChangeEventProducer publishes the change feed consumed by live views
type ChangeEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewChangeEventProducer creates the change feed producer and ensures the topic exists
func NewChangeEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ChangeEventProducer, error) {
	if cfg.ChangeTopic == "" {
		return nil, fmt.Errorf("kafka change topic is not configured")
	}

	if err := ensureTopic(cfg, cfg.ChangeTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure change topic %s exists: %w", cfg.ChangeTopic, err)
	}

	return &ChangeEventProducer{
		logger: logger,
		writer: newSyncWriter(cfg, cfg.ChangeTopic, kafka.RequireAll),
		topic:  cfg.ChangeTopic,
	}, nil
}

func (p *ChangeEventProducer) PublishChange(ctx context.Context, event *outbox.ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.Type)},
			{Key: HeaderCorrelationID, Value: []byte(event.CorrelationID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish change event",
			"topic", p.topic,
			"event_id", event.EventID.String(),
			"type", string(event.Type),
			"error", err,
		)
		return fmt.Errorf("failed to publish change event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published change event",
		"topic", p.topic,
		"event_id", event.EventID.String(),
		"key", event.Key(),
	)
	return nil
}

func (p *ChangeEventProducer) Close() error {
	p.logger.Info("Closing change event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
