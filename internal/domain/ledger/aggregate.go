package ledger

import (
	"time"

	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Totals holds the figures derived from a window of entries
type Totals struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	GrossMargin     decimal.Decimal `json:"gross_margin"`
	TotalExpense    decimal.Decimal `json:"total_expense"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	OpeningFloat    decimal.Decimal `json:"opening_float"`
	TheoreticalCash decimal.Decimal `json:"theoretical_cash"`
}

// Aggregate folds a window of entries into period totals.
//
// Revenue, cost and expense exclude internal transfer legs. Theoretical cash
// starts from openingFloat and follows every cash movement, transfer legs
// included, since money moved out of the register is no longer in it.
// FloatOpen and Closing snapshots are ignored.
func Aggregate(entries []*Entry, openingFloat decimal.Decimal) Totals {
	revenue := decimal.Zero
	cost := decimal.Zero
	expense := decimal.Zero
	cash := openingFloat

	for _, e := range entries {
		switch e.Kind {
		case shared.EntryKindRevenue:
			if !e.IsInternal {
				revenue = revenue.Add(e.Amount)
				cost = cost.Add(e.Cost())
			}
			if e.EffectiveWallet() == shared.WalletCash {
				cash = cash.Add(e.Amount)
			}
		case shared.EntryKindExpense:
			if !e.IsInternal {
				expense = expense.Add(e.Amount)
			}
			if e.EffectiveWallet() == shared.WalletCash {
				cash = cash.Sub(e.Amount)
			}
		}
	}

	gross := revenue.Sub(cost)
	return Totals{
		TotalRevenue:    revenue,
		TotalCost:       cost,
		GrossMargin:     gross,
		TotalExpense:    expense,
		NetProfit:       gross.Sub(expense),
		OpeningFloat:    openingFloat,
		TheoreticalCash: cash,
	}
}

// WalletBalances computes the cumulative balance of every wallet, transfer
// legs included. All known wallets are present in the result.
func WalletBalances(entries []*Entry) map[shared.Wallet]decimal.Decimal {
	balances := make(map[shared.Wallet]decimal.Decimal, len(shared.Wallets))
	for _, w := range shared.Wallets {
		balances[w] = decimal.Zero
	}

	for _, e := range entries {
		w := e.EffectiveWallet()
		switch e.Kind {
		case shared.EntryKindRevenue:
			balances[w] = balances[w].Add(e.Amount)
		case shared.EntryKindExpense:
			balances[w] = balances[w].Sub(e.Amount)
		}
	}
	return balances
}

// SumBalances adds up a balance map
func SumBalances(balances map[shared.Wallet]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b)
	}
	return total
}

// ExpensesByCategory sums non-internal expenses per category
func ExpensesByCategory(entries []*Entry) map[string]decimal.Decimal {
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.Kind != shared.EntryKindExpense || e.IsInternal {
			continue
		}
		category := e.Category
		if category == "" {
			category = shared.DefaultExpenseCategory
		}
		byCategory[category] = byCategory[category].Add(e.Amount)
	}
	return byCategory
}

// DailyAmount is one point of a per-day series
type DailyAmount struct {
	Day    time.Time       `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

// RevenueSeries buckets non-internal revenue into consecutive business days
// starting at from (inclusive). Entries outside the covered days are ignored.
func RevenueSeries(entries []*Entry, from time.Time, days int, loc *time.Location) []DailyAmount {
	start := StartOfDay(from, loc)
	series := make([]DailyAmount, days)
	for i := range series {
		series[i] = DailyAmount{Day: start.AddDate(0, 0, i), Amount: decimal.Zero}
	}

	for _, e := range entries {
		if e.Kind != shared.EntryKindRevenue || e.IsInternal {
			continue
		}
		day := StartOfDay(e.CreatedAt, loc)
		for i := range series {
			if series[i].Day.Equal(day) {
				series[i].Amount = series[i].Amount.Add(e.Amount)
				break
			}
		}
	}
	return series
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayWindow returns the half-open window [dayStart, dayEnd) containing t
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}
