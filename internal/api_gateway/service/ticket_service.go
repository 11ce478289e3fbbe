package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// TicketServiceImpl implements the TicketService interface
type TicketServiceImpl struct {
	ticketRepo    repair.Repository
	customerRepo  customer.Repository
	inventoryRepo inventory.Repository
	operations    OperationService
	logger        *slog.Logger
}

// NewTicketService creates a new repair ticket service
func NewTicketService(logger *slog.Logger, ticketRepo repair.Repository, customerRepo customer.Repository, inventoryRepo inventory.Repository, operations OperationService) TicketService {
	return &TicketServiceImpl{
		ticketRepo:    ticketRepo,
		customerRepo:  customerRepo,
		inventoryRepo: inventoryRepo,
		operations:    operations,
		logger:        logger,
	}
}

// CreateTicket registers the ticket under its customer. The ticket is
// validated before any customer is registered.
func (s *TicketServiceImpl) CreateTicket(ctx context.Context, input TicketInput) (*repair.Ticket, error) {
	var owner *customer.Customer
	if input.CustomerID != nil {
		c, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		owner = c
		input.CustomerName, input.CustomerPhone = c.Name, c.Phone
	}

	ticket, err := repair.NewTicket(input.CustomerName, input.CustomerPhone, input.Device, input.Issue)
	if err != nil {
		return nil, err
	}

	if owner == nil {
		owner, err = s.customerFor(ctx, ticket.CustomerName, input.CustomerEmail, ticket.CustomerPhone)
		if err != nil {
			return nil, err
		}
	}
	ticket.CustomerID = &owner.ID

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("Repair ticket created",
		"ticket_id", ticket.ID.String(),
		"number", ticket.Number,
		"customer_id", owner.ID.String())
	return ticket, nil
}

// customerFor returns the customer already known under phone, or registers a new one
func (s *TicketServiceImpl) customerFor(ctx context.Context, name, email, phone string) (*customer.Customer, error) {
	if phone = customer.NormalizePhone(phone); phone != "" {
		known, err := s.customerRepo.FindByPhone(ctx, phone)
		if err == nil {
			return known, nil
		}
		var notFound customer.ErrCustomerNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	c, err := customer.NewCustomer(name, email, phone)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Customer registered", "customer_id", c.ID.String())
	return c, nil
}

func (s *TicketServiceImpl) GetTicket(ctx context.Context, id uuid.UUID) (*repair.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

func (s *TicketServiceImpl) ListTickets(ctx context.Context, status *repair.Status, page, perPage int) ([]*repair.Ticket, int64, error) {
	offset := (page - 1) * perPage

	tickets, err := s.ticketRepo.List(ctx, status, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ticketRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// AddLine appends a billed element. Part lines must reference an existing
// item and default their description to the item name.
func (s *TicketServiceImpl) AddLine(ctx context.Context, id uuid.UUID, line repair.Line) (*repair.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if line.Type == repair.LineTypePart && line.ItemID != nil {
		item, err := s.inventoryRepo.GetByID(ctx, *line.ItemID)
		if err != nil {
			return nil, err
		}
		if line.Description == "" {
			line.Description = item.Name
		}
	}

	expected := ticket.Status
	if err := ticket.AddLine(line); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Save(ctx, ticket, expected); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Transition moves the ticket to the next workflow status
func (s *TicketServiceImpl) Transition(ctx context.Context, id uuid.UUID, to repair.Status) (*repair.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expected := ticket.Status
	if err := ticket.Transition(to); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Save(ctx, ticket, expected); err != nil {
		return nil, err
	}

	s.logger.Info("Repair ticket moved", "ticket_id", id.String(), "from", string(expected), "to", string(to))
	return ticket, nil
}

// Finalize completes the ticket, then submits the sale billing it. The
// ticket is completed first so a concurrent finalization loses on Save. When
// the sale cannot be submitted the ticket is reopened.
func (s *TicketServiceImpl) Finalize(ctx context.Context, id uuid.UUID, wallet shared.Wallet, meta SubmitMeta) (*repair.Ticket, *operation.Record, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	intent, err := ticket.SaleIntent(wallet)
	if err != nil {
		return nil, nil, err
	}

	request := operation.NewRequest(shared.OperationTypeSale, meta.Actor, meta.IdempotencyKey, meta.CorrelationID)
	request.Sale = intent
	if err := request.Validate(); err != nil {
		return nil, nil, err
	}

	expected := ticket.Status
	ticket.MarkFinalized(request.OperationID)
	if err := s.ticketRepo.Save(ctx, ticket, expected); err != nil {
		return nil, nil, err
	}

	logger := s.logger.With(
		"ticket_id", id.String(),
		"number", ticket.Number,
		"operation_id", request.OperationID.String(),
	)

	record, replayed, err := s.operations.Submit(ctx, request)
	if err != nil {
		logger.Error("Failed to submit ticket invoice, reopening the ticket", "error", err)
		s.reopen(ctx, logger, ticket.Number, request.OperationID)
		return nil, nil, err
	}

	if replayed {
		// the key already billed this ticket once, undo this finalization
		logger.Info("Ticket invoice already submitted", "existing_operation_id", record.OperationID.String())
		s.reopen(ctx, logger, ticket.Number, request.OperationID)
		if ticket, err = s.ticketRepo.GetByID(ctx, id); err != nil {
			return nil, nil, err
		}
		return ticket, record, nil
	}

	logger.Info("Ticket invoice submitted", "total", ticket.Total().String(), "wallet", string(wallet))
	return ticket, record, nil
}

func (s *TicketServiceImpl) reopen(ctx context.Context, logger *slog.Logger, number string, operationID uuid.UUID) {
	if err := s.ticketRepo.Reopen(ctx, number, operationID); err != nil {
		logger.Error("Failed to reopen repair ticket", "error", err)
	}
}
