package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry stores the change event in the same transaction as the rows it describes
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, event *outbox.ChangeEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		m.logger.Error("Failed to create new outbox message (marshal payload)",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for event %s: %w", event.EventID.String(), err)
	}

	if err = m.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		m.logger.Error("Failed to create outbox message",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for event %s: %w", event.EventID.String(), err)
	}

	m.logger.Debug("Outbox message created",
		"event_id", event.EventID.String(),
		"event_type", string(event.Type),
		"outbox_id", message.ID,
	)
	return nil
}
