package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrConcurrentModification = errors.New("ledger entry was modified concurrently")
	ErrTransferLegImmutable   = errors.New("transfer legs cannot be edited, delete the transfer instead")
	ErrClosingAlreadyRecorded = errors.New("a closing was already recorded for this business day")
)

// Filter restricts the entries returned by a query. Zero values mean no restriction.
type Filter struct {
	Kinds    []shared.EntryKind
	Wallet   *shared.Wallet // matches legacy rows without wallet when Cash
	From     *time.Time     // inclusive
	To       *time.Time     // exclusive
	Category string
	// ExcludeInternal drops transfer legs
	ExcludeInternal bool
}

// OrphanedTransfer describes a transfer id that does not have exactly one
// outgoing and one incoming leg
type OrphanedTransfer struct {
	TransferID uuid.UUID `json:"transfer_id"`
	EntryIDs   []int64   `json:"entry_ids"`
	OutLegs    int       `json:"out_legs"`
	InLegs     int       `json:"in_legs"`
}

// Patch carries the editable fields of an entry correction
type Patch struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Wallet      *shared.Wallet
}

// Repository manages ledger entry persistence
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// ListAll returns every entry matching filter, oldest first, for aggregation
	ListAll(ctx context.Context, filter Filter) ([]*Entry, error)
	// Update persists a correction when entry.Version still matches the stored row
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, id int64) error
	// DeleteByTransferID removes both legs of a transfer and returns their ids
	DeleteByTransferID(ctx context.Context, transferID uuid.UUID) ([]int64, error)
	ExistsByOperationID(ctx context.Context, operationID uuid.UUID) (bool, error)
	FindOrphanedTransfers(ctx context.Context) ([]OrphanedTransfer, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	ID int64
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// A zero target ID matches any ErrEntryNotFound
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}
