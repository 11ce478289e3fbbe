// Package operation defines the money-moving intents exchanged between the
// API gateway and the operation processor.
package operation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/domain/transfer"
	"github.com/shopspring/decimal"
)

// DayLayout is the format of business days in requests
const DayLayout = "2006-01-02"

var ErrInvalidOperationType = errors.New("invalid operation type")

// ExpenseIntent books money leaving a wallet
type ExpenseIntent struct {
	Amount      decimal.Decimal `json:"amount"`
	Wallet      shared.Wallet   `json:"wallet"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description"`
}

// Validate rejects malformed expenses
func (i *ExpenseIntent) Validate() error {
	if !i.Wallet.Valid() {
		return shared.NewValidationError("wallet", "must be one of CASH, BANK, SAFE")
	}
	return shared.ValidateAmount("amount", i.Amount, true)
}

// Entry builds the expense entry
func (i *ExpenseIntent) Entry(actor shared.Actor) *ledger.Entry {
	category := strings.TrimSpace(i.Category)
	if category == "" {
		category = shared.DefaultExpenseCategory
	}
	return &ledger.Entry{
		Kind:        shared.EntryKindExpense,
		Amount:      i.Amount,
		Wallet:      ledger.WalletPtr(i.Wallet),
		Description: strings.TrimSpace(i.Description),
		Category:    category,
		Actor:       actor,
	}
}

// FloatOpenIntent records the opening float of the register
type FloatOpenIntent struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// Validate rejects malformed floats
func (i *FloatOpenIntent) Validate() error {
	return shared.ValidateAmount("amount", i.Amount, false)
}

// Entry builds the float snapshot entry
func (i *FloatOpenIntent) Entry(actor shared.Actor) *ledger.Entry {
	description := strings.TrimSpace(i.Note)
	if description == "" {
		description = "Fond de caisse"
	}
	return &ledger.Entry{
		Kind:        shared.EntryKindFloatOpen,
		Amount:      i.Amount,
		Wallet:      ledger.WalletPtr(shared.WalletCash),
		Description: description,
		Category:    shared.CategoryFloatOpen,
		Actor:       actor,
	}
}

// ClosingIntent records the physical count of the register for a day
type ClosingIntent struct {
	Day         string          `json:"day"`
	CountedCash decimal.Decimal `json:"counted_cash"`
	Note        string          `json:"note,omitempty"`
}

// Validate rejects malformed closings
func (i *ClosingIntent) Validate() error {
	if _, err := time.Parse(DayLayout, i.Day); err != nil {
		return shared.NewValidationError("day", "must use the YYYY-MM-DD format")
	}
	return shared.ValidateAmount("counted_cash", i.CountedCash, false)
}

// ParseDay resolves the business day in loc
func (i *ClosingIntent) ParseDay(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, i.Day, loc)
}

// Request is the message published for every ledger operation
type Request struct {
	OperationID    uuid.UUID            `json:"operation_id"`
	Type           shared.OperationType `json:"type"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	CorrelationID  string               `json:"correlation_id,omitempty"`
	Actor          shared.Actor         `json:"actor"`
	Timestamp      time.Time            `json:"timestamp"`
	Sale           *sale.Intent         `json:"sale,omitempty"`
	Expense        *ExpenseIntent       `json:"expense,omitempty"`
	Transfer       *transfer.Intent     `json:"transfer,omitempty"`
	FloatOpen      *FloatOpenIntent     `json:"float_open,omitempty"`
	Closing        *ClosingIntent       `json:"closing,omitempty"`
}

// NewRequest wraps an intent into a request with a fresh operation id
func NewRequest(opType shared.OperationType, actor shared.Actor, idempotencyKey, correlationID string) *Request {
	return &Request{
		OperationID:    uuid.New(),
		Type:           opType,
		IdempotencyKey: idempotencyKey,
		CorrelationID:  correlationID,
		Actor:          actor,
		Timestamp:      time.Now().UTC(),
	}
}

// Validate checks that the payload matching Type is present and valid
func (r *Request) Validate() error {
	switch r.Type {
	case shared.OperationTypeSale:
		if r.Sale == nil {
			return shared.NewValidationError("sale", "is required")
		}
		return r.Sale.Validate()
	case shared.OperationTypeExpense:
		if r.Expense == nil {
			return shared.NewValidationError("expense", "is required")
		}
		return r.Expense.Validate()
	case shared.OperationTypeTransfer:
		if r.Transfer == nil {
			return shared.NewValidationError("transfer", "is required")
		}
		return r.Transfer.Validate()
	case shared.OperationTypeFloatOpen:
		if r.FloatOpen == nil {
			return shared.NewValidationError("float_open", "is required")
		}
		return r.FloatOpen.Validate()
	case shared.OperationTypeClosing:
		if r.Closing == nil {
			return shared.NewValidationError("closing", "is required")
		}
		return r.Closing.Validate()
	}
	return ErrInvalidOperationType
}

// TicketRef returns the repair ticket billed by the request, if any
func (r *Request) TicketRef() string {
	if r.Sale == nil {
		return ""
	}
	return r.Sale.TicketRef
}
