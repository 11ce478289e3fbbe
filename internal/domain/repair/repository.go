package repair

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines repair ticket persistence operations
type Repository interface {
	Create(ctx context.Context, ticket *Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetByNumber(ctx context.Context, number string) (*Ticket, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Ticket, error)
	Count(ctx context.Context, status *Status) (int64, error)
	CountOpen(ctx context.Context) (int64, error)

	// ListByCustomer returns every ticket of a customer, newest first
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Ticket, error)
	// CountByCustomers counts tickets per customer, customers without any are absent
	CountByCustomers(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// Save replaces lines and status when the stored status is still expected
	Save(ctx context.Context, ticket *Ticket, expected Status) error

	// Reopen moves a ticket billed by operationID back to in progress
	Reopen(ctx context.Context, number string, operationID uuid.UUID) error
}

// ErrTicketNotFound indicates missing repair ticket
type ErrTicketNotFound struct {
	Ref string
}

func (e ErrTicketNotFound) Error() string {
	return "repair ticket not found: " + e.Ref
}

// ErrStaleTicket indicates the ticket status changed since it was read
type ErrStaleTicket struct {
	ID uuid.UUID
}

func (e ErrStaleTicket) Error() string {
	return "repair ticket was modified concurrently: " + e.ID.String()
}
