package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines inventory persistence operations
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*Item, error)
	List(ctx context.Context, limit, offset int) ([]*Item, error)
	Count(ctx context.Context) (int64, error)
	ListLowStock(ctx context.Context, threshold int) ([]*Item, error)
	UpdateDetails(ctx context.Context, item *Item) error

	// Restock adds quantity to the item and returns the new stock level
	Restock(ctx context.Context, id int64, quantity int) (int, error)

	// DecrementStock removes quantity only when enough stock is available,
	// in a single conditional update, and returns the new stock level
	DecrementStock(ctx context.Context, id int64, quantity int) (int, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrItemNotFound indicates missing inventory item
type ErrItemNotFound struct {
	ItemID int64
}

func (e ErrItemNotFound) Error() string {
	return "inventory item not found: " + strconv.FormatInt(e.ItemID, 10)
}

// ErrInsufficientStock indicates a decrement larger than the available stock
type ErrInsufficientStock struct {
	ItemID    int64
	Requested int
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d", e.ItemID, e.Requested)
}

// ErrDuplicateSKU indicates SKU uniqueness violation
type ErrDuplicateSKU struct {
	SKU string
}

func (e ErrDuplicateSKU) Error() string {
	return "inventory item with SKU already exists: " + e.SKU
}
