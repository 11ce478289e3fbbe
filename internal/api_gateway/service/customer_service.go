package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
)

// CustomerServiceImpl implements the CustomerService interface
type CustomerServiceImpl struct {
	customerRepo customer.Repository
	ticketRepo   repair.Repository
	logger       *slog.Logger
}

// NewCustomerService creates a new customer directory service
func NewCustomerService(logger *slog.Logger, customerRepo customer.Repository, ticketRepo repair.Repository) CustomerService {
	return &CustomerServiceImpl{
		customerRepo: customerRepo,
		ticketRepo:   ticketRepo,
		logger:       logger,
	}
}

// SearchCustomers returns a page of the directory with the ticket count of each customer
func (s *CustomerServiceImpl) SearchCustomers(ctx context.Context, query string, page, perPage int) ([]*CustomerSummary, int64, error) {
	query = strings.TrimSpace(query)
	offset := (page - 1) * perPage

	customers, err := s.customerRepo.Search(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.customerRepo.CountSearch(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.ID)
	}
	counts, err := s.ticketRepo.CountByCustomers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*CustomerSummary, 0, len(customers))
	for _, c := range customers {
		summaries = append(summaries, &CustomerSummary{Customer: c, TicketCount: counts[c.ID]})
	}
	return summaries, total, nil
}

// GetCustomerHistory returns the customer with their tickets, newest first.
// The billed total only counts finalized tickets.
func (s *CustomerServiceImpl) GetCustomerHistory(ctx context.Context, id uuid.UUID) (*CustomerHistory, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	history := &CustomerHistory{
		Customer:    c,
		Tickets:     tickets,
		TicketCount: len(tickets),
		BilledTotal: decimal.Zero,
	}
	for _, t := range tickets {
		switch {
		case t.Status == repair.StatusDone:
			history.BilledTotal = history.BilledTotal.Add(t.Total())
		case slices.Contains(repair.OpenStatuses, t.Status):
			history.OpenTickets++
		}
	}
	return history, nil
}
