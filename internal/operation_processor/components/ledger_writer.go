package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
)

type LedgerWriterImpl struct {
	entryRepo     ledger.Repository
	inventoryRepo inventory.Repository
	location      *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

func NewLedgerWriter(entryRepo ledger.Repository, inventoryRepo inventory.Repository, location *time.Location, logger *slog.Logger) service.LedgerWriter {
	return &LedgerWriterImpl{
		entryRepo:     entryRepo,
		inventoryRepo: inventoryRepo,
		location:      location,
		now:           time.Now,
		logger:        logger,
	}
}

// Apply writes the rows of the request with repositories bound to tx
func (w *LedgerWriterImpl) Apply(ctx context.Context, tx pgx.Tx, request *operation.Request) (*outbox.ChangeEvent, error) {
	entries := w.entryRepo.WithTx(tx)
	event := outbox.NewChangeEvent(shared.ChangeTypeEntriesCreated, request.Actor, request.CorrelationID)
	operationID := request.OperationID
	event.OperationID = &operationID

	var toCreate []*ledger.Entry
	switch request.Type {
	case shared.OperationTypeSale:
		stock, err := w.decrementStock(ctx, tx, request)
		if err != nil {
			return nil, err
		}
		event.Stock = stock
		toCreate = append(toCreate, request.Sale.RevenueEntry(request.Actor))

	case shared.OperationTypeExpense:
		toCreate = append(toCreate, request.Expense.Entry(request.Actor))

	case shared.OperationTypeTransfer:
		out, in := request.Transfer.Legs(uuid.New(), request.Actor)
		toCreate = append(toCreate, out, in)

	case shared.OperationTypeFloatOpen:
		toCreate = append(toCreate, request.FloatOpen.Entry(request.Actor))

	case shared.OperationTypeClosing:
		closing, drift, err := w.closingEntry(ctx, entries, request)
		if err != nil {
			return nil, err
		}
		event.Drift = drift
		toCreate = append(toCreate, closing)

	default:
		return nil, operation.ErrInvalidOperationType
	}

	for _, entry := range toCreate {
		entry.OperationID = &operationID
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if err := entries.Create(ctx, entry); err != nil {
			return nil, err
		}
	}
	event.Entries = toCreate

	w.logger.Info("Ledger entries written",
		"operation_id", operationID.String(),
		"type", string(request.Type),
		"entries", len(toCreate),
		"stock_changes", len(event.Stock),
	)
	return event, nil
}

// decrementStock removes the sold quantities, in item id order. The first
// item short of stock aborts the whole sale.
func (w *LedgerWriterImpl) decrementStock(ctx context.Context, tx pgx.Tx, request *operation.Request) ([]outbox.StockLevel, error) {
	repo := w.inventoryRepo.WithTx(tx)
	decrements := request.Sale.StockDecrements()
	levels := make([]outbox.StockLevel, 0, len(decrements))

	for _, d := range decrements {
		remaining, err := repo.DecrementStock(ctx, d.ItemID, d.Quantity)
		if err != nil {
			w.logger.Warn("Stock decrement rejected",
				"operation_id", request.OperationID.String(),
				"item_id", d.ItemID,
				"quantity", d.Quantity,
				"error", err,
			)
			return nil, err
		}
		levels = append(levels, outbox.StockLevel{ItemID: d.ItemID, Quantity: remaining, Delta: -d.Quantity})
	}
	return levels, nil
}

// closingEntry builds the snapshot of the current business day. A day that
// already has a closing is rejected.
func (w *LedgerWriterImpl) closingEntry(ctx context.Context, entries ledger.Repository, request *operation.Request) (*ledger.Entry, *ledger.ReconciliationDrift, error) {
	intent := request.Closing
	day, err := intent.ParseDay(w.location)
	if err != nil {
		return nil, nil, shared.NewValidationError("day", "must use the YYYY-MM-DD format")
	}

	today := ledger.StartOfDay(w.now(), w.location)
	if !ledger.StartOfDay(day, w.location).Equal(today) {
		return nil, nil, shared.NewValidationError("day", "only the current business day can be closed")
	}

	start, end := ledger.DayWindow(day, w.location)
	dayEntries, err := entries.ListAll(ctx, ledger.Filter{From: &start, To: &end})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load entries of %s: %w", intent.Day, err)
	}

	session := ledger.BuildSession(day, w.location, dayEntries)
	if session.IsClosed() {
		return nil, nil, ledger.ErrClosingAlreadyRecorded
	}

	entry := ledger.NewClosingEntry(session, intent.CountedCash, intent.Note, request.Actor)
	drift := ledger.NewReconciliationDrift(session.Totals.TheoreticalCash, intent.CountedCash)
	if !drift.Balanced() {
		w.logger.Warn("Cash drift at closing",
			"operation_id", request.OperationID.String(),
			"day", intent.Day,
			"theoretical", drift.Theoretical.String(),
			"counted", drift.Counted.String(),
			"delta", drift.Delta.String(),
		)
	}
	return entry, &drift, nil
}
