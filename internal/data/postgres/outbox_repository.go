package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

const (
	outboxColumns = `id, event_id, operation_id, event_type, payload, status, attempts, created_at, last_attempt_at`

	insertOutboxSQL = `
		INSERT INTO outbox_messages (event_id, operation_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	pendingOutboxSQL  = `SELECT ` + outboxColumns + ` FROM outbox_messages WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2`
	outboxStatusSQL   = `UPDATE outbox_messages SET status = $1, last_attempt_at = $2 WHERE id = $3`
	outboxAttemptsSQL = `UPDATE outbox_messages SET attempts = attempts + 1, last_attempt_at = $1 WHERE id = $2`
)

// OutboxRepository stores change events next to the rows they describe
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx, so an event commits or rolls back with
// the ledger change it reports.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{querier: tx, logger: r.logger}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, insertOutboxSQL,
		message.EventID,
		message.OperationID,
		message.EventType,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)

	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return outbox.ErrDuplicateMessage{EventID: message.EventID}
	default:
		r.logger.Error("Failed to create outbox message",
			"event_id", message.EventID.String(),
			"event_type", string(message.EventType),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
}

// GetPending returns up to limit pending messages in commit order
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, pendingOutboxSQL, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*outbox.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		r.logger.Error("Failed to read pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to read pending outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, id, "set status "+string(status), outboxStatusSQL, status, time.Now(), id)
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "count attempt", outboxAttemptsSQL, time.Now(), id)
}

// touch runs an update on a single message, ErrMessageNotFound when no row matched
func (r *OutboxRepository) touch(ctx context.Context, id int64, action, query string, args ...any) error {
	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update outbox message", "id", id, "action", action, "error", err)
		return fmt.Errorf("failed to %s on outbox message %d: %w", action, id, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func scanMessage(row rowScanner) (*outbox.Message, error) {
	var m outbox.Message
	if err := row.Scan(
		&m.ID, &m.EventID, &m.OperationID, &m.EventType, &m.Payload,
		&m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
