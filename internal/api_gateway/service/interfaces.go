package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/reconciliation"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// OperationService accepts money-moving intents and hands them to the processor
type OperationService interface {
	// Submit validates the request, records it as PENDING and publishes it.
	// A request whose idempotency key was already used returns the existing
	// record with replayed set to true.
	Submit(ctx context.Context, request *operation.Request) (record *operation.Record, replayed bool, err error)

	// ResolveSaleLines fills prices, costs and descriptions that a cart left
	// out from the inventory items it references.
	// Returns ErrItemNotFound for an unknown item.
	ResolveSaleLines(ctx context.Context, lines []SaleLineInput) ([]sale.Line, error)

	// GetOperation returns ErrRecordNotFound when the operation is unknown
	GetOperation(ctx context.Context, operationID uuid.UUID) (*operation.Record, error)
	ListOperations(ctx context.Context, status *shared.OperationStatus, page, perPage int) ([]*operation.Record, int64, error)
}

// EntryService reads and corrects ledger entries
type EntryService interface {
	ListEntries(ctx context.Context, filter ledger.Filter, page, perPage int) ([]*ledger.Entry, int64, error)
	GetEntry(ctx context.Context, id int64) (*ledger.Entry, error)

	// CorrectEntry applies patch when version is still the stored one.
	// Returns ErrConcurrentModification on a stale version and
	// ErrTransferLegImmutable on transfer legs.
	CorrectEntry(ctx context.Context, id int64, version int, patch ledger.Patch, meta ChangeMeta) (*ledger.Entry, error)

	// DeleteEntry removes the entry, and its pair when it is a transfer leg.
	// Returns the ids of every deleted entry.
	DeleteEntry(ctx context.Context, id int64, meta ChangeMeta) ([]int64, error)
}

// InventoryService manages stock-bearing items
type InventoryService interface {
	CreateItem(ctx context.Context, input ItemInput) (*inventory.Item, error)
	GetItem(ctx context.Context, id int64) (*inventory.Item, error)
	ListItems(ctx context.Context, page, perPage int) ([]*inventory.Item, int64, error)
	UpdateItem(ctx context.Context, id int64, patch ItemPatch) (*inventory.Item, error)

	// Restock adds quantity and returns the new stock level
	Restock(ctx context.Context, id int64, quantity int, meta ChangeMeta) (int, error)
	LowStock(ctx context.Context) ([]*inventory.Item, error)
}

// TicketService runs the repair ticket workflow
type TicketService interface {
	CreateTicket(ctx context.Context, input TicketInput) (*repair.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*repair.Ticket, error)
	ListTickets(ctx context.Context, status *repair.Status, page, perPage int) ([]*repair.Ticket, int64, error)
	AddLine(ctx context.Context, id uuid.UUID, line repair.Line) (*repair.Ticket, error)
	Transition(ctx context.Context, id uuid.UUID, to repair.Status) (*repair.Ticket, error)

	// Finalize bills the ticket as a sale on wallet and completes it
	Finalize(ctx context.Context, id uuid.UUID, wallet shared.Wallet, meta SubmitMeta) (*repair.Ticket, *operation.Record, error)
}

// ReportService derives the figures of the ledger
type ReportService interface {
	Summary(ctx context.Context, from, to time.Time) (*ledger.Totals, error)
	Balances(ctx context.Context) (*BalanceReport, error)
	DailySession(ctx context.Context, day time.Time) (*ledger.DailyCashSession, error)

	// ExportDailySession renders the session of day as an xlsx workbook
	ExportDailySession(ctx context.Context, day time.Time) ([]byte, error)
	ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryAmount, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

// CustomerService browses the customer directory and the repair history of a customer
type CustomerService interface {
	SearchCustomers(ctx context.Context, query string, page, perPage int) ([]*CustomerSummary, int64, error)
	GetCustomerHistory(ctx context.Context, id uuid.UUID) (*CustomerHistory, error)
}

// IssueService exposes the inconsistencies found by the reconciliation sweeper
type IssueService interface {
	ListOpenIssues(ctx context.Context, page, perPage int) ([]*reconciliation.Issue, int64, error)
}

// SubmitMeta carries the request context stamped on a submitted operation
type SubmitMeta struct {
	Actor          shared.Actor
	IdempotencyKey string
	CorrelationID  string
}

// ChangeMeta carries the request context stamped on a change event
type ChangeMeta struct {
	Actor         shared.Actor
	CorrelationID string
}

// SaleLineInput is a cart line as sent by the client. Nil prices are taken
// from the inventory item.
type SaleLineInput struct {
	ItemID      *int64
	Description string
	Quantity    int
	UnitPrice   *decimal.Decimal
	UnitCost    *decimal.Decimal
}

// ItemInput holds the fields of a new inventory item
type ItemInput struct {
	Name          string
	SKU           string
	SalePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
	Quantity      int
}

// ItemPatch holds the editable details of an item. Quantity only changes
// through restocks and sales.
type ItemPatch struct {
	Name          *string
	SKU           *string
	SalePrice     *decimal.Decimal
	PurchasePrice *decimal.Decimal
}

// TicketInput holds the fields of a new repair ticket. A known CustomerID
// overrides the name and phone, otherwise the customer is looked up by phone
// or registered.
type TicketInput struct {
	CustomerID    *uuid.UUID
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Device        string
	Issue         string
}

// CustomerSummary is one row of the customer directory
type CustomerSummary struct {
	*customer.Customer
	TicketCount int64 `json:"ticket_count"`
}

// CustomerHistory is a customer with every repair ticket they left
type CustomerHistory struct {
	Customer    *customer.Customer `json:"customer"`
	Tickets     []*repair.Ticket   `json:"tickets"`
	TicketCount int                `json:"ticket_count"`
	OpenTickets int                `json:"open_tickets"`
	BilledTotal decimal.Decimal    `json:"billed_total"`
}

// BalanceReport lists the balance of every wallet
type BalanceReport struct {
	Balances map[shared.Wallet]decimal.Decimal `json:"balances"`
	Total    decimal.Decimal                   `json:"total"`
}

// CategoryAmount is the expense total of one category
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Dashboard is the landing view of the back office
type Dashboard struct {
	TodayRevenue     decimal.Decimal      `json:"today_revenue"`
	YesterdayRevenue decimal.Decimal      `json:"yesterday_revenue"`
	TodayExpenses    decimal.Decimal      `json:"today_expenses"`
	OpenTickets      int64                `json:"open_tickets"`
	LowStockItems    []*inventory.Item    `json:"low_stock_items"`
	RevenueSeries    []ledger.DailyAmount `json:"revenue_series"`
}
