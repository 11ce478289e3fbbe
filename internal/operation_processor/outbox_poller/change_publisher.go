package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/messaging/producers"
)

// OutboxPublisher publishes one outbox message to the change feed
type OutboxPublisher interface {
	PublishOutboxMessage(ctx context.Context, message *outbox.Message) error
}

// ChangePublisherImpl implements OutboxPublisher
type ChangePublisherImpl struct {
	outboxRepo    outbox.Repository
	operationRepo operation.Repository
	publisher     producers.ChangePublisher
	logger        *slog.Logger
}

// NewChangePublisher creates a new publisher
func NewChangePublisher(
	outboxRepo outbox.Repository,
	operationRepo operation.Repository,
	publisher producers.ChangePublisher,
	logger *slog.Logger,
) OutboxPublisher {
	return &ChangePublisherImpl{
		outboxRepo:    outboxRepo,
		operationRepo: operationRepo,
		publisher:     publisher,
		logger:        logger,
	}
}

// PublishOutboxMessage completes the operation record of the event, publishes
// the event and marks the message as processed
func (p *ChangePublisherImpl) PublishOutboxMessage(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetChangeEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal change event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With("outbox_id", message.ID, "event_id", event.EventID.String())
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	if event.OperationID != nil && event.Type == shared.ChangeTypeEntriesCreated {
		err := p.operationRepo.MarkCompleted(ctx, *event.OperationID, event.CreatedEntryIDs())
		if err != nil && !errors.Is(err, operation.ErrRecordNotFound{}) {
			logger.Error("Failed to mark operation as completed", "operation_id", event.OperationID.String(), "error", err)
			return fmt.Errorf("failed to complete operation %s: %w", event.OperationID.String(), err)
		}
		if err != nil {
			logger.Warn("No operation record to complete", "operation_id", event.OperationID.String())
		}
	}

	if err := p.publisher.PublishChange(ctx, event); err != nil {
		return err
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("change event %s published, but failed to mark outbox %d as PROCESSED: %w", event.EventID.String(), message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED", "event_type", string(event.Type))
	return nil
}
