package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outboxColumnNames = []string{"id", "event_id", "operation_id", "event_type", "payload", "status", "attempts", "created_at", "last_attempt_at"}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	operationID := uuid.New()
	event := outbox.NewChangeEvent(shared.ChangeTypeEntriesCreated, shared.Actor{ID: "u-1"}, "corr-1")
	event.OperationID = &operationID
	message, err := outbox.NewMessage(event)
	require.NoError(t, err)

	query := regexp.QuoteMeta("INSERT INTO outbox_messages")

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(message.EventID, message.OperationID, shared.ChangeTypeEntriesCreated, message.Payload, shared.OutboxStatusPending, 0, message.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

		require.NoError(t, repo.Create(ctx, message))
		assert.Equal(t, int64(1), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate event", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(anyArgs(7)...).WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, message)

		assert.Equal(t, outbox.ErrDuplicateMessage{EventID: message.EventID}, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	eventID := uuid.New()
	now := time.Now()
	payload := json.RawMessage(`{"type":"ENTRIES_DELETED","entry_ids":[7]}`)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM outbox_messages WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2")).
			WithArgs(shared.OutboxStatusPending, 10).
			WillReturnRows(pgxmock.NewRows(outboxColumnNames).
				AddRow(int64(3), eventID, (*uuid.UUID)(nil), shared.ChangeTypeEntriesDeleted, payload, shared.OutboxStatusPending, 1, now, &now))

		messages, err := repo.GetPending(ctx, 10)

		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, eventID, messages[0].EventID)
		assert.Nil(t, messages[0].OperationID)
		assert.Equal(t, 1, messages[0].Attempts)
		assert.JSONEq(t, string(payload), string(messages[0].Payload))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(regexp.QuoteMeta("FROM outbox_messages")).
			WithArgs(shared.OutboxStatusPending, 10).
			WillReturnError(dbErr)

		_, err := repo.GetPending(ctx, 10)

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatusAndAttempts(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}

	t.Run("update status", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_messages SET status = $1")).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateStatus(ctx, 3, shared.OutboxStatusProcessed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update status not found", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_messages SET status = $1")).
			WithArgs(shared.OutboxStatusFailedToPublish, pgxmock.AnyArg(), int64(4)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 4, shared.OutboxStatusFailedToPublish)
		assert.Equal(t, outbox.ErrMessageNotFound{ID: 4}, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update status fails", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_messages SET status = $1")).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(5)).
			WillReturnError(dbErr)

		err := repo.UpdateStatus(ctx, 5, shared.OutboxStatusProcessed)
		assert.ErrorIs(t, err, dbErr)
		assert.ErrorContains(t, err, "outbox message 5")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increment attempts", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("SET attempts = attempts + 1")).
			WithArgs(pgxmock.AnyArg(), int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.IncrementAttempts(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_WithTx(t *testing.T) {
	repo := &OutboxRepository{
		querier: nil,
		logger:  newTestLogger(),
	}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	assert.NotNil(t, txRepo)
	outboxRepo, ok := txRepo.(*OutboxRepository)
	assert.True(t, ok)
	assert.Equal(t, mockTx, outboxRepo.querier)
}
