package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
	"github.com/shop-backoffice-ledger/internal/platform/messaging/producers"
)

// OperationEventHandler handles incoming operation request messages from Kafka
type OperationEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewOperationEventHandler creates a new handler
func NewOperationEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *OperationEventHandler {
	return &OperationEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage decodes and processes one message. Undecodable messages are
// moved to the DLQ so they do not block the partition.
func (h *OperationEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var request operation.Request
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		return h.deadLetter(ctx, msg, "Failed to unmarshal operation request from Kafka message", err)
	}

	logger := h.logger.With("operation_id", request.OperationID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received operation request for processing",
		"type", string(request.Type),
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	if err := h.processingService.ProcessOperation(ctx, &request); err != nil {
		logger.Error("Failed to process operation", "error", err)
		return fmt.Errorf("processing operation %s failed: %w", request.OperationID.String(), err)
	}

	return nil // Success, commit offset
}

// HandleExhausted dead-letters a message whose processing kept failing so the
// partition can move on. A DLQ error is returned and the consumer keeps retrying.
func (h *OperationEventHandler) HandleExhausted(ctx context.Context, msg kafka.Message, cause error) error {
	return h.deadLetter(ctx, msg, "Operation request failed on every processing attempt", cause)
}

func (h *OperationEventHandler) deadLetter(ctx context.Context, msg kafka.Message, summary string, cause error) error {
	key := string(msg.Key)
	h.logger.Error(summary, "error", cause, "message_key", key)

	dlqReason := fmt.Sprintf("%s: %s", summary, cause.Error())
	err := h.producer.PublishToDLQ(ctx, key, msg.Value, dlqReason)
	switch {
	case err == nil:
		h.logger.Info("Published unprocessable message to DLQ", "message_key", key)
		return nil
	case errors.Is(err, producers.ErrDLQDisabled):
		h.logger.Warn("DLQ disabled, dropping unprocessable message", "message_key", key)
		return nil
	default:
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", key,
		)
		return fmt.Errorf("failed to dead-letter message %s: %w", key, err)
	}
}
