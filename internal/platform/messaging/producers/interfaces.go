package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
)

// OperationPublisher hands ledger operation requests to the processor
type OperationPublisher interface {
	PublishOperation(ctx context.Context, req *operation.Request) error
	Close() error
}

// ChangePublisher publishes committed change events on the change feed
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *outbox.ChangeEvent) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
