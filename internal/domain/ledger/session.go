package ledger

import (
	"time"

	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReconciliationDrift is the gap between counted and theoretical cash at
// closing. It is reported, never treated as an error.
type ReconciliationDrift struct {
	Theoretical decimal.Decimal `json:"theoretical"`
	Counted     decimal.Decimal `json:"counted"`
	Delta       decimal.Decimal `json:"delta"` // counted - theoretical
}

// NewReconciliationDrift computes the drift of a physical count
func NewReconciliationDrift(theoretical, counted decimal.Decimal) ReconciliationDrift {
	return ReconciliationDrift{
		Theoretical: theoretical,
		Counted:     counted,
		Delta:       counted.Sub(theoretical),
	}
}

// Balanced reports whether the count matches the ledger exactly
func (d ReconciliationDrift) Balanced() bool {
	return d.Delta.IsZero()
}

// DailyCashSession is the derived view of one business day of the register
type DailyCashSession struct {
	DayStart  time.Time            `json:"day_start"`
	DayEnd    time.Time            `json:"day_end"`
	FloatOpen *Entry               `json:"float_open,omitempty"`
	Closing   *Entry               `json:"closing,omitempty"`
	Entries   []*Entry             `json:"entries"`
	Totals    Totals               `json:"totals"`
	Drift     *ReconciliationDrift `json:"drift,omitempty"`
}

// IsClosed reports whether a closing snapshot was recorded for the day
func (s *DailyCashSession) IsClosed() bool {
	return s.Closing != nil
}

// BuildSession derives the cash session of the business day containing day
// from the entries of that day. Entries outside [dayStart, dayEnd) are
// ignored. The latest FloatOpen of the day provides the opening float and
// the latest Closing the snapshot.
func BuildSession(day time.Time, loc *time.Location, entries []*Entry) *DailyCashSession {
	start, end := DayWindow(day, loc)
	session := &DailyCashSession{
		DayStart: start,
		DayEnd:   end,
		Entries:  make([]*Entry, 0, len(entries)),
	}

	for _, e := range entries {
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		switch e.Kind {
		case shared.EntryKindFloatOpen:
			if session.FloatOpen == nil || later(e, session.FloatOpen) {
				session.FloatOpen = e
			}
		case shared.EntryKindClosing:
			if session.Closing == nil || later(e, session.Closing) {
				session.Closing = e
			}
		case shared.EntryKindRevenue, shared.EntryKindExpense:
			session.Entries = append(session.Entries, e)
		}
	}

	openingFloat := decimal.Zero
	if session.FloatOpen != nil {
		openingFloat = session.FloatOpen.Amount
	}
	session.Totals = Aggregate(session.Entries, openingFloat)

	if session.Closing != nil && session.Closing.Theoretical.Valid {
		drift := NewReconciliationDrift(session.Closing.Theoretical.Decimal, session.Closing.Amount)
		session.Drift = &drift
	}
	return session
}

func later(a, b *Entry) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// NewClosingEntry builds the closing snapshot for a session. The amount is
// the physically counted cash; the theoretical cash of the session is kept
// alongside so the drift can be reported later.
func NewClosingEntry(session *DailyCashSession, counted decimal.Decimal, note string, actor shared.Actor) *Entry {
	return &Entry{
		Kind:        shared.EntryKindClosing,
		Amount:      counted,
		Wallet:      WalletPtr(shared.WalletCash),
		Description: note,
		Category:    shared.CategoryClosing,
		Theoretical: decimal.NewNullDecimal(session.Totals.TheoreticalCash),
		Actor:       actor,
	}
}
