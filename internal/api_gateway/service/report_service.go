package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// dashboardDays is the length of the revenue chart, today included
const dashboardDays = 7

// ReportServiceImpl implements the ReportService interface
type ReportServiceImpl struct {
	entryRepo         ledger.Repository
	ticketRepo        repair.Repository
	inventoryRepo     inventory.Repository
	location          *time.Location
	lowStockThreshold int
	now               func() time.Time
	logger            *slog.Logger
}

// NewReportService creates a new report service. Business days are cut in location.
func NewReportService(
	logger *slog.Logger,
	entryRepo ledger.Repository,
	ticketRepo repair.Repository,
	inventoryRepo inventory.Repository,
	location *time.Location,
	lowStockThreshold int,
) ReportService {
	return &ReportServiceImpl{
		entryRepo:         entryRepo,
		ticketRepo:        ticketRepo,
		inventoryRepo:     inventoryRepo,
		location:          location,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
		logger:            logger,
	}
}

// Summary aggregates [from, to). The opening float is the first FloatOpen of
// the range, zero when there is none.
func (s *ReportServiceImpl) Summary(ctx context.Context, from, to time.Time) (*ledger.Totals, error) {
	entries, err := s.entryRepo.ListAll(ctx, ledger.Filter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for summary: %w", err)
	}

	openingFloat := decimal.Zero
	for _, e := range entries {
		if e.Kind == shared.EntryKindFloatOpen {
			openingFloat = e.Amount
			break
		}
	}

	totals := ledger.Aggregate(entries, openingFloat)
	return &totals, nil
}

// Balances computes the cumulative balance of every wallet
func (s *ReportServiceImpl) Balances(ctx context.Context) (*BalanceReport, error) {
	entries, err := s.entryRepo.ListAll(ctx, ledger.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for balances: %w", err)
	}

	balances := ledger.WalletBalances(entries)
	return &BalanceReport{Balances: balances, Total: ledger.SumBalances(balances)}, nil
}

// DailySession derives the cash session of the business day containing day
func (s *ReportServiceImpl) DailySession(ctx context.Context, day time.Time) (*ledger.DailyCashSession, error) {
	start, end := ledger.DayWindow(day, s.location)
	entries, err := s.entryRepo.ListAll(ctx, ledger.Filter{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to load entries of %s: %w", start.Format("2006-01-02"), err)
	}
	return ledger.BuildSession(day, s.location, entries), nil
}

// ExportDailySession renders the session of day as an xlsx workbook
func (s *ReportServiceImpl) ExportDailySession(ctx context.Context, day time.Time) ([]byte, error) {
	session, err := s.DailySession(ctx, day)
	if err != nil {
		return nil, err
	}

	content, err := renderSessionWorkbook(session, s.location)
	if err != nil {
		s.logger.Error("Failed to render daily session workbook", "day", session.DayStart.Format("2006-01-02"), "error", err)
		return nil, err
	}
	return content, nil
}

// ExpensesByCategory sums the expenses of [from, to) per category, largest first
func (s *ReportServiceImpl) ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryAmount, error) {
	entries, err := s.entryRepo.ListAll(ctx, ledger.Filter{
		Kinds:           []shared.EntryKind{shared.EntryKindExpense},
		From:            &from,
		To:              &to,
		ExcludeInternal: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	byCategory := ledger.ExpensesByCategory(entries)
	result := make([]CategoryAmount, 0, len(byCategory))
	for category, amount := range byCategory {
		result = append(result, CategoryAmount{Category: category, Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].Amount.Cmp(result[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// Dashboard gathers the figures of the landing page
func (s *ReportServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	todayStart, tomorrow := ledger.DayWindow(s.now(), s.location)
	yesterday := todayStart.AddDate(0, 0, -1)
	seriesStart := todayStart.AddDate(0, 0, -(dashboardDays - 1))

	entries, err := s.entryRepo.ListAll(ctx, ledger.Filter{From: &seriesStart, To: &tomorrow})
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for dashboard: %w", err)
	}

	today := ledger.Aggregate(inWindow(entries, todayStart, tomorrow), decimal.Zero)
	previous := ledger.Aggregate(inWindow(entries, yesterday, todayStart), decimal.Zero)

	openTickets, err := s.ticketRepo.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.inventoryRepo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TodayRevenue:     today.TotalRevenue,
		YesterdayRevenue: previous.TotalRevenue,
		TodayExpenses:    today.TotalExpense,
		OpenTickets:      openTickets,
		LowStockItems:    lowStock,
		RevenueSeries:    ledger.RevenueSeries(entries, seriesStart, dashboardDays, s.location),
	}, nil
}

func inWindow(entries []*ledger.Entry, from, to time.Time) []*ledger.Entry {
	var window []*ledger.Entry
	for _, e := range entries {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			window = append(window, e)
		}
	}
	return window
}
