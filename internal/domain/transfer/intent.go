// Package transfer models balance-neutral movements of funds between wallets.
package transfer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrExceedsBalance is returned by the soft balance check
var ErrExceedsBalance = errors.New("transfer amount exceeds the available balance")

// Intent moves Amount from one wallet to another
type Intent struct {
	From   shared.Wallet   `json:"from"`
	To     shared.Wallet   `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// Validate rejects same-wallet transfers and malformed amounts
func (i *Intent) Validate() error {
	if !i.From.Valid() {
		return shared.NewValidationError("from", "must be one of CASH, BANK, SAFE")
	}
	if !i.To.Valid() {
		return shared.NewValidationError("to", "must be one of CASH, BANK, SAFE")
	}
	if i.From == i.To {
		return shared.NewValidationError("to", "must differ from the source wallet")
	}
	return shared.ValidateAmount("amount", i.Amount, true)
}

// CheckAvailable is the soft check against balances computed by the caller
func (i *Intent) CheckAvailable(balances map[shared.Wallet]decimal.Decimal) error {
	if available, ok := balances[i.From]; ok && i.Amount.GreaterThan(available) {
		return fmt.Errorf("%w: %s holds %s", ErrExceedsBalance, i.From, available.StringFixed(shared.CurrencyScale))
	}
	return nil
}

// Legs builds the two reciprocal entries of the transfer. Both carry the same
// transfer id, amount and actor.
func (i *Intent) Legs(transferID uuid.UUID, actor shared.Actor) (out *ledger.Entry, in *ledger.Entry) {
	id := transferID
	out = &ledger.Entry{
		Kind:        shared.EntryKindExpense,
		Amount:      i.Amount,
		Wallet:      ledger.WalletPtr(i.From),
		IsInternal:  true,
		Description: i.describe("Transfert vers " + i.To.Label()),
		Category:    shared.CategoryTransfer,
		TransferID:  &id,
		Direction:   shared.TransferDirectionOut,
		Actor:       actor,
	}
	in = &ledger.Entry{
		Kind:        shared.EntryKindRevenue,
		Amount:      i.Amount,
		Wallet:      ledger.WalletPtr(i.To),
		IsInternal:  true,
		Description: i.describe("Transfert depuis " + i.From.Label()),
		Category:    shared.CategoryTransfer,
		TransferID:  &id,
		Direction:   shared.TransferDirectionIn,
		Actor:       actor,
	}
	return out, in
}

func (i *Intent) describe(base string) string {
	if note := strings.TrimSpace(i.Note); note != "" {
		return base + " | " + note
	}
	return base
}
