package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

// InventoryServiceImpl implements the InventoryService interface
type InventoryServiceImpl struct {
	db                persistence.TxBeginner
	inventoryRepo     inventory.Repository
	changes           changeWriter
	lowStockThreshold int
	logger            *slog.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	logger *slog.Logger,
	db persistence.TxBeginner,
	inventoryRepo inventory.Repository,
	outboxRepo outbox.Repository,
	lowStockThreshold int,
) InventoryService {
	return &InventoryServiceImpl{
		db:                db,
		inventoryRepo:     inventoryRepo,
		changes:           changeWriter{outboxRepo: outboxRepo, logger: logger},
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

// CreateItem creates a new inventory item.
// Returns ErrDuplicateSKU if another item already uses the SKU.
func (s *InventoryServiceImpl) CreateItem(ctx context.Context, input ItemInput) (*inventory.Item, error) {
	item, err := inventory.NewItem(input.Name, input.SKU, input.SalePrice, input.PurchasePrice, input.Quantity)
	if err != nil {
		return nil, err
	}

	if err := s.inventoryRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Inventory item created", "item_id", item.ID, "name", item.Name, "quantity", item.Quantity)
	return item, nil
}

func (s *InventoryServiceImpl) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	return s.inventoryRepo.GetByID(ctx, id)
}

func (s *InventoryServiceImpl) ListItems(ctx context.Context, page, perPage int) ([]*inventory.Item, int64, error) {
	offset := (page - 1) * perPage

	items, err := s.inventoryRepo.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.inventoryRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// UpdateItem edits name, SKU and prices of an item
func (s *InventoryServiceImpl) UpdateItem(ctx context.Context, id int64, patch ItemPatch) (*inventory.Item, error) {
	item, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, inventory.ErrEmptyName
		}
		item.Name = name
	}
	if patch.SKU != nil {
		item.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.SalePrice != nil {
		if err := shared.ValidateAmount("sale_price", *patch.SalePrice, false); err != nil {
			return nil, err
		}
		item.SalePrice = *patch.SalePrice
	}
	if patch.PurchasePrice != nil {
		if err := shared.ValidateAmount("purchase_price", *patch.PurchasePrice, false); err != nil {
			return nil, err
		}
		item.PurchasePrice = *patch.PurchasePrice
	}
	item.UpdatedAt = time.Now()

	if err := s.inventoryRepo.UpdateDetails(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Restock adds quantity to the item and publishes the new level
func (s *InventoryServiceImpl) Restock(ctx context.Context, id int64, quantity int, meta ChangeMeta) (int, error) {
	if quantity <= 0 {
		return 0, inventory.ErrInvalidQuantity
	}
	if err := shared.ValidateQuantity("quantity", quantity); err != nil {
		return 0, err
	}

	var level int
	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		level, err = s.inventoryRepo.WithTx(tx).Restock(ctx, id, quantity)
		if err != nil {
			return err
		}

		event := outbox.NewChangeEvent(shared.ChangeTypeStockChanged, meta.Actor, meta.CorrelationID)
		event.Stock = []outbox.StockLevel{{ItemID: id, Quantity: level, Delta: quantity}}
		return s.changes.write(ctx, tx, event)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Inventory item restocked",
		"item_id", id,
		"added", quantity,
		"quantity", level,
		"actor_id", meta.Actor.ID,
	)
	return level, nil
}

// LowStock lists the items under the configured threshold
func (s *InventoryServiceImpl) LowStock(ctx context.Context) ([]*inventory.Item, error) {
	return s.inventoryRepo.ListLowStock(ctx, s.lowStockThreshold)
}
