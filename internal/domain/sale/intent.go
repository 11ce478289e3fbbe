// Package sale models the conversion of a cart or a repair invoice into a
// revenue entry plus the stock it consumes.
package sale

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Line is one line of a cart. Lines with an ItemID are backed by inventory,
// the others are services or labor and have no stock effect.
type Line struct {
	ItemID      *int64          `json:"item_id,omitempty"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Quantity    int             `json:"quantity"`
}

// IsInventory reports whether the line consumes stock
func (l Line) IsInventory() bool {
	return l.ItemID != nil
}

// Total is unit price times quantity
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cost is unit cost times quantity, zero for service lines
func (l Line) Cost() decimal.Decimal {
	if !l.IsInventory() {
		return decimal.Zero
	}
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StockDecrement is the quantity to remove from one item
type StockDecrement struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// Intent is a sale to finalize atomically
type Intent struct {
	Lines       []Line        `json:"lines"`
	Wallet      shared.Wallet `json:"wallet"`
	TicketRef   string        `json:"ticket_ref,omitempty"`
	Description string        `json:"description,omitempty"`
	Channel     string        `json:"channel,omitempty"`
}

// Validate rejects malformed carts before any store call
func (i *Intent) Validate() error {
	if len(i.Lines) == 0 {
		return shared.NewValidationError("lines", "at least one line is required")
	}
	if !i.Wallet.Valid() {
		return shared.NewValidationError("wallet", "must be one of CASH, BANK, SAFE")
	}
	for idx, l := range i.Lines {
		field := fmt.Sprintf("lines[%d]", idx)
		if err := shared.ValidateQuantity(field+".quantity", l.Quantity); err != nil {
			return err
		}
		if l.ItemID != nil && *l.ItemID <= 0 {
			return shared.NewValidationError(field+".item_id", "must be a valid item id")
		}
		if err := shared.ValidateAmount(field+".unit_price", l.UnitPrice, false); err != nil {
			return err
		}
		if err := shared.ValidateAmount(field+".unit_cost", l.UnitCost, false); err != nil {
			return err
		}
	}
	amount, cost := i.Totals()
	if amount.IsZero() {
		return shared.NewValidationError("lines", "total must be greater than 0")
	}
	if err := shared.ValidateAmount("total", amount, true); err != nil {
		return err
	}
	if err := shared.ValidateAmount("cost_basis", cost, false); err != nil {
		return err
	}
	for _, d := range i.StockDecrements() {
		if d.Quantity > shared.MaxQuantity {
			return shared.NewValidationError("lines", fmt.Sprintf("quantity of item %d must not exceed %d", d.ItemID, shared.MaxQuantity))
		}
	}
	return nil
}

// Totals returns the amount over every line and the cost over
// inventory-backed lines
func (i *Intent) Totals() (amount, cost decimal.Decimal) {
	amount, cost = decimal.Zero, decimal.Zero
	for _, l := range i.Lines {
		amount = amount.Add(l.Total())
		cost = cost.Add(l.Cost())
	}
	return amount, cost
}

// HasInventory reports whether any line consumes stock
func (i *Intent) HasInventory() bool {
	for _, l := range i.Lines {
		if l.IsInventory() {
			return true
		}
	}
	return false
}

// StockDecrements merges inventory lines per item, ordered by item id so
// concurrent sales lock rows in the same order
func (i *Intent) StockDecrements() []StockDecrement {
	perItem := make(map[int64]int)
	for _, l := range i.Lines {
		if l.IsInventory() {
			perItem[*l.ItemID] += l.Quantity
		}
	}

	decrements := make([]StockDecrement, 0, len(perItem))
	for id, qty := range perItem {
		decrements = append(decrements, StockDecrement{ItemID: id, Quantity: qty})
	}
	sort.Slice(decrements, func(a, b int) bool { return decrements[a].ItemID < decrements[b].ItemID })
	return decrements
}

// RevenueEntry builds the single revenue entry of the sale. The cost basis is
// only set when goods were sold.
func (i *Intent) RevenueEntry(actor shared.Actor) *ledger.Entry {
	amount, cost := i.Totals()
	entry := &ledger.Entry{
		Kind:        shared.EntryKindRevenue,
		Amount:      amount,
		Wallet:      ledger.WalletPtr(i.Wallet),
		IsInternal:  false,
		Description: i.description(),
		Category:    i.category(),
		TicketRef:   i.TicketRef,
		Actor:       actor,
	}
	if i.HasInventory() {
		entry.CostBasis = decimal.NewNullDecimal(cost)
	}
	return entry
}

func (i *Intent) description() string {
	if d := strings.TrimSpace(i.Description); d != "" {
		return d
	}
	if i.TicketRef != "" {
		return "Facture " + i.TicketRef
	}
	names := make([]string, 0, len(i.Lines))
	for _, l := range i.Lines {
		if l.Description != "" {
			names = append(names, fmt.Sprintf("%dx %s", l.Quantity, l.Description))
		}
	}
	if len(names) == 0 {
		return shared.CategorySale
	}
	return shared.CategorySale + ": " + strings.Join(names, ", ")
}

func (i *Intent) category() string {
	if i.Channel != "" {
		return i.Channel
	}
	if i.TicketRef != "" {
		return shared.CategoryRepair
	}
	return shared.CategorySale
}
