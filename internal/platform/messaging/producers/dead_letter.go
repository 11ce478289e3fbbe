package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shop-backoffice-ledger/internal/config"
)

var ErrDLQDisabled = errors.New("DLQ producer not initialized")

// DeadLetter is the DLQ value of an operation request the processor could
// not decode. Payload is kept verbatim for replay.
type DeadLetter struct {
	SourceTopic string    `json:"source_topic"`
	Key         string    `json:"key"`
	Payload     string    `json:"payload"`
	Reason      string    `json:"reason"`
	FailedAt    time.Time `json:"failed_at"`
}

type DLQProducer struct {
	logger      *slog.Logger
	writer      KafkaWriter
	topic       string
	sourceTopic string
	now         func() time.Time
}

// NewDLQProducer returns a nil producer when no DLQ topic is configured. A
// nil producer answers ErrDLQDisabled.
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured, DLQ producer disabled")
		return nil, nil
	}
	if err := ensureTopic(cfg, cfg.DLQTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	return &DLQProducer{
		logger:      logger.With("topic", cfg.DLQTopic),
		writer:      newSyncWriter(cfg, cfg.DLQTopic, kafka.RequireAll),
		topic:       cfg.DLQTopic,
		sourceTopic: cfg.OperationTopic,
		now:         time.Now,
	}, nil
}

func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, payload []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	value, err := json.Marshal(DeadLetter{
		SourceTopic: p.sourceTopic,
		Key:         key,
		Payload:     string(payload),
		Reason:      reason,
		FailedAt:    p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderDLQReason, Value: []byte(reason)}},
	})
	if err != nil {
		p.logger.Error("Failed to publish dead letter", "key", key, "error", err)
		return fmt.Errorf("failed to publish message to DLQ %s: %w", p.topic, err)
	}

	p.logger.Warn("Published dead letter", "key", key, "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close DLQ writer for topic %s: %w", p.topic, err)
	}
	p.logger.Info("Closed DLQ producer")
	return nil
}
