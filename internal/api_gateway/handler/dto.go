package handler

import (
	"github.com/shopspring/decimal"

	"github.com/shop-backoffice-ledger/internal/domain/repair"
)

// IdempotencyKeyHeader carries the client key of money-moving requests. It
// takes precedence over the idempotency_key body field.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotentReplayedHeader flags a response carrying an already submitted operation
const IdempotentReplayedHeader = "Idempotent-Replayed"

// SaleLineRequest is one cart line. Prices of item lines default to the
// inventory prices when omitted.
type SaleLineRequest struct {
	ItemID      *int64           `json:"item_id,omitempty"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity" binding:"required,min=1,max=2147483647"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreateSaleRequest represents a request to finalize a cart
type CreateSaleRequest struct {
	Lines          []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Wallet         string            `json:"wallet" binding:"required"`
	Description    string            `json:"description,omitempty"`
	Channel        string            `json:"channel,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// CreateExpenseRequest represents a request to book an expense
type CreateExpenseRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Wallet         string          `json:"wallet" binding:"required"`
	Category       string          `json:"category,omitempty"`
	Description    string          `json:"description"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CreateTransferRequest represents a request to move money between wallets
type CreateTransferRequest struct {
	From           string          `json:"from" binding:"required"`
	To             string          `json:"to" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// OpenFloatRequest represents a request to record the opening float
type OpenFloatRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CloseDayRequest represents the physical count of the register. Day
// defaults to the current business day.
type CloseDayRequest struct {
	Day            string          `json:"day,omitempty"`
	CountedCash    decimal.Decimal `json:"counted_cash"`
	Note           string          `json:"note,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// OperationResponse represents an operation record in API responses
type OperationResponse struct {
	OperationID   string  `json:"operation_id"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	FailureReason string  `json:"failure_reason,omitempty"`
	TicketRef     string  `json:"ticket_ref,omitempty"`
	EntryIDs      []int64 `json:"entry_ids,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   string  `json:"processed_at,omitempty"`
}

// OperationListParams filters the operation log
type OperationListParams struct {
	Status  string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=10" binding:"min=1,max=100"`
}

// EntryListParams filters the ledger listing. From and To are business days,
// both inclusive.
type EntryListParams struct {
	Kind            string `form:"kind"`
	Wallet          string `form:"wallet"`
	Category        string `form:"category"`
	From            string `form:"from"`
	To              string `form:"to"`
	ExcludeInternal bool   `form:"exclude_internal"`
	Page            int    `form:"page,default=1" binding:"min=1"`
	PerPage         int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// UpdateEntryRequest represents a correction of a ledger entry. Version is
// the version the client read.
type UpdateEntryRequest struct {
	Version     int              `json:"version" binding:"required,min=1,max=2147483647"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Wallet      *string          `json:"wallet,omitempty"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID              int64            `json:"id"`
	Kind            string           `json:"kind"`
	Amount          decimal.Decimal  `json:"amount"`
	CostBasis       *decimal.Decimal `json:"cost_basis,omitempty"`
	Wallet          string           `json:"wallet"`
	IsInternal      bool             `json:"is_internal"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	TicketRef       string           `json:"ticket_ref,omitempty"`
	TransferID      string           `json:"transfer_id,omitempty"`
	Direction       string           `json:"direction,omitempty"`
	TheoreticalCash *decimal.Decimal `json:"theoretical_cash,omitempty"`
	OperationID     string           `json:"operation_id,omitempty"`
	ActorEmail      string           `json:"actor_email,omitempty"`
	Version         int              `json:"version"`
	CreatedAt       string           `json:"created_at"`
}

// CreateItemRequest represents a request to add an inventory item
type CreateItemRequest struct {
	Name          string          `json:"name" binding:"required"`
	SKU           string          `json:"sku,omitempty"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      int             `json:"quantity" binding:"min=0,max=2147483647"`
}

// UpdateItemRequest edits the descriptive fields of an item. Stock only
// moves through restocks and sales.
type UpdateItemRequest struct {
	Name          *string          `json:"name,omitempty"`
	SKU           *string          `json:"sku,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

// RestockRequest represents received stock
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=2147483647"`
}

// CreateTicketRequest represents a device dropped off for repair, either by
// a known customer or by a new one described inline
type CreateTicketRequest struct {
	CustomerID    string `json:"customer_id,omitempty" binding:"omitempty,uuid"`
	CustomerName  string `json:"customer_name" binding:"required_without=CustomerID"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty" binding:"omitempty,email"`
	Device        string `json:"device" binding:"required"`
	Issue         string `json:"issue"`
}

// AddTicketLineRequest represents a billed part or labor line
type AddTicketLineRequest struct {
	Type        string          `json:"type" binding:"required"`
	ItemID      *int64          `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" binding:"required,min=1,max=2147483647"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// UpdateTicketStatusRequest moves a ticket along its workflow
type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// FinalizeTicketRequest bills a ticket into the given wallet
type FinalizeTicketRequest struct {
	Wallet         string `json:"wallet" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TicketListParams filters repair tickets
type TicketListParams struct {
	Status  string `form:"status"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=10" binding:"min=1,max=100"`
}

// FinalizeTicketResponse returns the completed ticket with its billing operation
type FinalizeTicketResponse struct {
	Ticket    *repair.Ticket    `json:"ticket"`
	Operation OperationResponse `json:"operation"`
}

// DateRangeParams is a range of business days, both inclusive
type DateRangeParams struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// DayParams selects one business day, today when empty
type DayParams struct {
	Date string `form:"date"`
}

// CustomerSearchParams filters the customer directory
type CustomerSearchParams struct {
	Query   string `form:"q"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
