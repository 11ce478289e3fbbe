package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

const itemColumns = `id, name, sku, sale_price, purchase_price, quantity, created_at, updated_at`

// InventoryRepository implements the inventory.Repository interface for PostgreSQL
type InventoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewInventoryRepository creates a new PostgreSQL inventory repository
func NewInventoryRepository(logger *slog.Logger, db *persistence.PostgresDB) inventory.Repository {
	return &InventoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so stock changes commit
// together with the ledger entries that caused them.
func (r *InventoryRepository) WithTx(tx pgx.Tx) inventory.Repository {
	return &InventoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new item. A duplicate SKU returns ErrDuplicateSKU.
func (r *InventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	query := `
		INSERT INTO inventory_items (name, sku, sale_price, purchase_price, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		item.Name,
		nullableString(item.SKU),
		item.SalePrice,
		item.PurchasePrice,
		item.Quantity,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrDuplicateSKU{SKU: item.SKU}
		}
		r.logger.Error("Failed to create inventory item", "name", item.Name, "error", err)
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by its id
func (r *InventoryRepository) GetByID(ctx context.Context, id int64) (*inventory.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`

	item, err := scanItem(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrItemNotFound{ItemID: id}
		}
		r.logger.Error("Failed to get inventory item", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

// GetByIDs retrieves several items at once, keyed by id. Missing ids are
// absent from the map.
func (r *InventoryRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*inventory.Item, error) {
	items := make(map[int64]*inventory.Item, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ANY($1)`
	list, err := r.queryItems(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range list {
		items[item.ID] = item
	}
	return items, nil
}

// List returns a page of items ordered by name
func (r *InventoryRepository) List(ctx context.Context, limit, offset int) ([]*inventory.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`
	return r.queryItems(ctx, query, limit, offset)
}

// Count returns the number of items
func (r *InventoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items`).Scan(&count); err != nil {
		r.logger.Error("Failed to count inventory items", "error", err)
		return 0, fmt.Errorf("failed to count inventory items: %w", err)
	}
	return count, nil
}

// ListLowStock returns the items whose quantity is below threshold
func (r *InventoryRepository) ListLowStock(ctx context.Context, threshold int) ([]*inventory.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE quantity < $1 ORDER BY quantity ASC, name ASC`
	return r.queryItems(ctx, query, threshold)
}

// UpdateDetails updates name, sku and prices. Quantity only changes through
// Restock and DecrementStock.
func (r *InventoryRepository) UpdateDetails(ctx context.Context, item *inventory.Item) error {
	query := `
		UPDATE inventory_items
		SET name = $1, sku = $2, sale_price = $3, purchase_price = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING quantity, updated_at
	`

	err := r.querier.QueryRow(ctx, query,
		item.Name,
		nullableString(item.SKU),
		item.SalePrice,
		item.PurchasePrice,
		item.ID,
	).Scan(&item.Quantity, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.ErrItemNotFound{ItemID: item.ID}
		}
		if isUniqueViolation(err) {
			return inventory.ErrDuplicateSKU{SKU: item.SKU}
		}
		r.logger.Error("Failed to update inventory item", "id", item.ID, "error", err)
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	return nil
}

// Restock adds quantity to the item and returns the new stock level
func (r *InventoryRepository) Restock(ctx context.Context, id int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, inventory.ErrInvalidQuantity
	}

	query := `
		UPDATE inventory_items
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING quantity
	`

	var level int
	if err := r.querier.QueryRow(ctx, query, quantity, id).Scan(&level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, inventory.ErrItemNotFound{ItemID: id}
		}
		if vErr, ok := outOfRange("quantity", err); ok {
			return 0, vErr
		}
		r.logger.Error("Failed to restock inventory item", "id", id, "error", err)
		return 0, fmt.Errorf("failed to restock inventory item: %w", err)
	}
	return level, nil
}

// DecrementStock removes quantity in a single conditional update so two
// concurrent sales can never take the same last unit. When no row matches,
// a follow-up lookup tells a missing item from an insufficient stock.
func (r *InventoryRepository) DecrementStock(ctx context.Context, id int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, inventory.ErrInvalidQuantity
	}

	query := `
		UPDATE inventory_items
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND quantity >= $1
		RETURNING quantity
	`

	var level int
	err := r.querier.QueryRow(ctx, query, quantity, id).Scan(&level)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to decrement stock", "id", id, "quantity", quantity, "error", err)
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	var exists bool
	if err := r.querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1)`, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check inventory item", "id", id, "error", err)
		return 0, fmt.Errorf("failed to check inventory item: %w", err)
	}
	if !exists {
		return 0, inventory.ErrItemNotFound{ItemID: id}
	}
	return 0, inventory.ErrInsufficientStock{ItemID: id, Requested: quantity}
}

func (r *InventoryRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]*inventory.Item, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list inventory items", "error", err)
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	defer rows.Close()

	items := make([]*inventory.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			r.logger.Error("Failed to scan inventory item", "error", err)
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over inventory items", "error", err)
		return nil, fmt.Errorf("error iterating over inventory items: %w", err)
	}
	return items, nil
}

func scanItem(row rowScanner) (*inventory.Item, error) {
	var item inventory.Item
	var sku *string
	err := row.Scan(
		&item.ID,
		&item.Name,
		&sku,
		&item.SalePrice,
		&item.PurchasePrice,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sku != nil {
		item.SKU = *sku
	}
	return &item, nil
}
