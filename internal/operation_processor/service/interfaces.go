package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// ProcessingService applies operation requests consumed from Kafka.
type ProcessingService interface {
	ProcessOperation(ctx context.Context, request *operation.Request) error
}

// OperationValidator validates operation requests before processing
type OperationValidator interface {
	Validate(ctx context.Context, request *operation.Request) error
	CheckIdempotency(ctx context.Context, request *operation.Request) (bool, error)
}

// LedgerWriter writes the entries and stock changes of a request inside tx
// and returns the change event describing them
type LedgerWriter interface {
	Apply(ctx context.Context, tx pgx.Tx, request *operation.Request) (*outbox.ChangeEvent, error)
}

// OutboxManager handles the creation of outbox entries for applied operations
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, event *outbox.ChangeEvent) error
}

// FailureRecorder handles recording failed operations
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *operation.Request, reason shared.FailureReason, cause error) error
}
