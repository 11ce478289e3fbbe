package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/shop-backoffice-ledger/internal/domain/outbox"
)

// changeWriter stores change events of synchronous mutations in the outbox,
// inside the transaction of the mutation
type changeWriter struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func (w changeWriter) write(ctx context.Context, tx pgx.Tx, event *outbox.ChangeEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to create outbox message payload for event %s: %w", event.EventID, err)
	}
	if err := w.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		w.logger.Error("Failed to create outbox message",
			"event_id", event.EventID.String(),
			"event_type", string(event.Type),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for event %s: %w", event.EventID, err)
	}
	return nil
}
