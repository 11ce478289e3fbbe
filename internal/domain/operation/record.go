package operation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// Record tracks the outcome of a submitted operation
type Record struct {
	OperationID    uuid.UUID              `json:"operation_id"`
	Type           shared.OperationType   `json:"type"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	Actor          shared.Actor           `json:"actor"`
	TicketRef      string                 `json:"ticket_ref,omitempty"`
	Status         shared.OperationStatus `json:"status"`
	FailureReason  string                 `json:"failure_reason,omitempty"`
	EntryIDs       []int64                `json:"entry_ids,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	ProcessedAt    *time.Time             `json:"processed_at,omitempty"`
}

// NewPendingRecord creates the record of a request that was just accepted
func NewPendingRecord(r *Request) *Record {
	return &Record{
		OperationID:    r.OperationID,
		Type:           r.Type,
		IdempotencyKey: r.IdempotencyKey,
		CorrelationID:  r.CorrelationID,
		Actor:          r.Actor,
		TicketRef:      r.TicketRef(),
		Status:         shared.OperationStatusPending,
		CreatedAt:      r.Timestamp,
	}
}

// Repository manages operation records
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, operationID uuid.UUID) (*Record, error)
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*Record, error)
	List(ctx context.Context, status *shared.OperationStatus, limit, offset int) ([]*Record, error)
	Count(ctx context.Context, status *shared.OperationStatus) (int64, error)
	MarkCompleted(ctx context.Context, operationID uuid.UUID, entryIDs []int64) error
	MarkFailed(ctx context.Context, operationID uuid.UUID, reason string) error
}

// ErrRecordNotFound indicates missing operation record
type ErrRecordNotFound struct {
	OperationID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "operation not found: " + e.OperationID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// If the target OperationID is empty, consider it a match for any ErrRecordNotFound
	if t.OperationID == uuid.Nil {
		return true
	}
	return e.OperationID == t.OperationID
}

// ErrDuplicateRecord indicates operation uniqueness violation
type ErrDuplicateRecord struct {
	OperationID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate operation record: " + e.OperationID.String()
}
