package inventory

import (
	"errors"
	"strings"
	"time"

	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyName        = errors.New("item name cannot be empty")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
)

// Item is a stock-bearing product of the shop
type Item struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      int             `json:"quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewItem creates a new inventory item with the given parameters
func NewItem(name, sku string, salePrice, purchasePrice decimal.Decimal, quantity int) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := shared.ValidateAmount("sale_price", salePrice, false); err != nil {
		return nil, err
	}
	if err := shared.ValidateAmount("purchase_price", purchasePrice, false); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	if quantity > shared.MaxQuantity {
		return nil, shared.NewValidationError("quantity", "must not exceed the stock limit")
	}

	now := time.Now()
	return &Item{
		Name:          name,
		SKU:           strings.TrimSpace(sku),
		SalePrice:     salePrice,
		PurchasePrice: purchasePrice,
		Quantity:      quantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsLowStock reports whether the quantity fell under threshold
func (i *Item) IsLowStock(threshold int) bool {
	return i.Quantity < threshold
}

// Margin is the unit gross margin of the item
func (i *Item) Margin() decimal.Decimal {
	return i.SalePrice.Sub(i.PurchasePrice)
}
