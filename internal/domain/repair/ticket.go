// Package repair tracks repair tickets from reception to invoicing.
package repair

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the workflow state of a ticket
type Status string

const (
	StatusReceived   Status = "Reçu"
	StatusInProgress Status = "En cours"
	StatusDone       Status = "Terminé"
)

// OpenStatuses are the statuses counted as pending work
var OpenStatuses = []Status{StatusReceived, StatusInProgress}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// LineType distinguishes parts taken from inventory from labor
type LineType string

const (
	LineTypePart  LineType = "Pièce"
	LineTypeLabor LineType = "Main d'oeuvre"
)

// Common errors
var (
	ErrMissingCustomer      = errors.New("customer name cannot be empty")
	ErrMissingDevice        = errors.New("device cannot be empty")
	ErrInvalidTransition    = errors.New("invalid ticket status transition")
	ErrFinalizationRequired = errors.New("a ticket is completed by finalizing its invoice")
	ErrAlreadyFinalized     = errors.New("ticket is already finalized")
	ErrEmptyInvoice         = errors.New("ticket total must be greater than 0")
	ErrPartWithoutItem      = errors.New("part lines must reference an inventory item")
)

// Line is one billed element of a ticket
type Line struct {
	Type        LineType        `json:"type"`
	ItemID      *int64          `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// Ticket is a device left for repair
type Ticket struct {
	ID            uuid.UUID  `json:"id"`
	Number        string     `json:"number"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	Device        string     `json:"device"`
	Issue         string     `json:"issue"`
	Status        Status     `json:"status"`
	Lines         []Line     `json:"lines"`
	OperationID   *uuid.UUID `json:"operation_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`
}

// NewTicket creates a ticket in the received state
func NewTicket(customerName, customerPhone, device, issue string) (*Ticket, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, ErrMissingCustomer
	}
	if strings.TrimSpace(device) == "" {
		return nil, ErrMissingDevice
	}

	now := time.Now().UTC()
	id := uuid.New()
	return &Ticket{
		ID:            id,
		Number:        fmt.Sprintf("R-%s-%s", now.Format("20060102"), strings.ToUpper(id.String()[:6])),
		CustomerName:  strings.TrimSpace(customerName),
		CustomerPhone: strings.TrimSpace(customerPhone),
		Device:        strings.TrimSpace(device),
		Issue:         strings.TrimSpace(issue),
		Status:        StatusReceived,
		Lines:         []Line{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AddLine appends a billed element. Finalized tickets are frozen.
func (t *Ticket) AddLine(l Line) error {
	if t.Status == StatusDone {
		return ErrAlreadyFinalized
	}
	if err := shared.ValidateQuantity("quantity", l.Quantity); err != nil {
		return err
	}
	if err := shared.ValidateAmount("unit_price", l.UnitPrice, false); err != nil {
		return err
	}
	if err := shared.ValidateAmount("unit_cost", l.UnitCost, false); err != nil {
		return err
	}
	switch l.Type {
	case LineTypePart:
		if l.ItemID == nil {
			return ErrPartWithoutItem
		}
	case LineTypeLabor:
		l.ItemID = nil
		l.UnitCost = decimal.Zero
	default:
		return shared.NewValidationError("type", "unknown line type")
	}
	t.Lines = append(t.Lines, l)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Transition moves the ticket forward. Completion goes through Finalize.
func (t *Ticket) Transition(to Status) error {
	if !to.Valid() {
		return ErrInvalidTransition
	}
	if to == StatusDone {
		return ErrFinalizationRequired
	}
	if t.Status == StatusReceived && to == StatusInProgress {
		t.Status = to
		t.UpdatedAt = time.Now().UTC()
		return nil
	}
	return ErrInvalidTransition
}

// Total is the invoice amount of the ticket
func (t *Ticket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// SaleIntent converts the ticket into the sale billed on finalization
func (t *Ticket) SaleIntent(wallet shared.Wallet) (*sale.Intent, error) {
	if t.Status == StatusDone || t.OperationID != nil {
		return nil, ErrAlreadyFinalized
	}
	if !t.Total().IsPositive() {
		return nil, ErrEmptyInvoice
	}

	lines := make([]sale.Line, 0, len(t.Lines))
	for _, l := range t.Lines {
		line := sale.Line{
			Description: l.Description,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		}
		if l.Type == LineTypePart {
			line.ItemID = l.ItemID
			line.UnitCost = l.UnitCost
		}
		lines = append(lines, line)
	}

	return &sale.Intent{
		Lines:       lines,
		Wallet:      wallet,
		TicketRef:   t.Number,
		Description: fmt.Sprintf("Facture %s - %s (%s)", t.Number, t.CustomerName, t.Device),
	}, nil
}

// MarkFinalized records the operation billing the ticket
func (t *Ticket) MarkFinalized(operationID uuid.UUID) {
	now := time.Now().UTC()
	id := operationID
	t.Status = StatusDone
	t.OperationID = &id
	t.FinalizedAt = &now
	t.UpdatedAt = now
}
