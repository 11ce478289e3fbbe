package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Entry represents one row of the financial ledger
type Entry struct {
	ID          int64                    `json:"id"`
	Kind        shared.EntryKind         `json:"kind"`
	Amount      decimal.Decimal          `json:"amount"`
	CostBasis   decimal.NullDecimal      `json:"cost_basis"`
	Wallet      *shared.Wallet           `json:"wallet,omitempty"` // nil on legacy rows
	IsInternal  bool                     `json:"is_internal"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	TicketRef   string                   `json:"ticket_ref,omitempty"`
	TransferID  *uuid.UUID               `json:"transfer_id,omitempty"`
	Direction   shared.TransferDirection `json:"direction,omitempty"`
	Theoretical decimal.NullDecimal      `json:"theoretical_cash"` // Closing snapshots only, may be negative
	OperationID *uuid.UUID               `json:"operation_id,omitempty"`
	Actor       shared.Actor             `json:"actor"`
	Version     int                      `json:"version"`
	CreatedAt   time.Time                `json:"created_at"`
}

// EffectiveWallet returns the wallet the entry affects. Legacy entries
// without a wallet are booked on the cash register.
func (e *Entry) EffectiveWallet() shared.Wallet {
	if e.Wallet == nil || *e.Wallet == "" {
		return shared.WalletCash
	}
	return *e.Wallet
}

// Cost returns the cost basis, zero when absent
func (e *Entry) Cost() decimal.Decimal {
	if !e.CostBasis.Valid {
		return decimal.Zero
	}
	return e.CostBasis.Decimal
}

// IsTransferLeg reports whether the entry is one half of an internal transfer
func (e *Entry) IsTransferLeg() bool {
	return e.TransferID != nil
}

// Validate checks the invariants every stored entry must hold
func (e *Entry) Validate() error {
	if !e.Kind.Valid() {
		return shared.NewValidationError("kind", "unknown entry kind")
	}
	if err := shared.ValidateAmount("amount", e.Amount, false); err != nil {
		return err
	}
	if e.CostBasis.Valid {
		if e.Kind != shared.EntryKindRevenue {
			return shared.NewValidationError("cost_basis", "only allowed on revenue entries")
		}
		if err := shared.ValidateAmount("cost_basis", e.CostBasis.Decimal, false); err != nil {
			return err
		}
	}
	if e.Theoretical.Valid && e.Kind != shared.EntryKindClosing {
		return shared.NewValidationError("theoretical_cash", "only allowed on closing entries")
	}
	if e.Wallet != nil && !e.Wallet.Valid() {
		return shared.NewValidationError("wallet", "must be one of CASH, BANK, SAFE")
	}
	if e.IsInternal && e.Kind != shared.EntryKindRevenue && e.Kind != shared.EntryKindExpense {
		return shared.NewValidationError("is_internal", "only revenue and expense entries can be internal")
	}
	return nil
}

// WalletPtr returns a pointer to w, for building entries
func WalletPtr(w shared.Wallet) *shared.Wallet {
	return &w
}

// ApplyPatch applies a user correction in place. Transfer legs are immutable
// since editing one half would unbalance the pair.
func (e *Entry) ApplyPatch(p Patch) error {
	if e.IsTransferLeg() {
		return ErrTransferLegImmutable
	}
	if p.Amount != nil {
		if err := shared.ValidateAmount("amount", *p.Amount, false); err != nil {
			return err
		}
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Wallet != nil {
		if !p.Wallet.Valid() {
			return shared.NewValidationError("wallet", "must be one of CASH, BANK, SAFE")
		}
		w := *p.Wallet
		e.Wallet = &w
	}
	return nil
}
