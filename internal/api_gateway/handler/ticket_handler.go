package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// TicketHandler handles HTTP requests for repair tickets
type TicketHandler struct {
	ticketService service.TicketService
	logger        *slog.Logger
}

// NewTicketHandler creates a new repair ticket handler
func NewTicketHandler(logger *slog.Logger, ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// Create registers a device dropped off for repair
func (h *TicketHandler) Create(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := service.TicketInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Device:        req.Device,
		Issue:         req.Issue,
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			RespondBadRequest(c, "Invalid customer ID")
			return
		}
		input.CustomerID = &id
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), input)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to create ticket", err)
		return
	}

	RespondCreated(c, ticket)
}

// GetByID retrieves a ticket, returns 404 if not found
func (h *TicketHandler) GetByID(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to get ticket", err)
		return
	}

	RespondOK(c, ticket)
}

// List retrieves a page of tickets, optionally filtered by status
func (h *TicketHandler) List(c *gin.Context) {
	var params TicketListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	var status *repair.Status
	if params.Status != "" {
		s := repair.Status(params.Status)
		if !s.Valid() {
			RespondBadRequest(c, "Invalid ticket status")
			return
		}
		status = &s
	}

	tickets, total, err := h.ticketService.ListTickets(c.Request.Context(), status, params.Page, params.PerPage)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to list tickets", err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, tickets, params.Page, params.PerPage, int(total))
}

// AddLine appends a part or labor line to a ticket
func (h *TicketHandler) AddLine(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	var req AddTicketLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ticket, err := h.ticketService.AddLine(c.Request.Context(), id, repair.Line{
		Type:        repair.LineType(req.Type),
		ItemID:      req.ItemID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		UnitCost:    req.UnitCost,
	})
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to add ticket line", err)
		return
	}

	RespondOK(c, ticket)
}

// UpdateStatus moves a ticket along its workflow
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	var req UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ticket, err := h.ticketService.Transition(c.Request.Context(), id, repair.Status(req.Status))
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to move ticket", err)
		return
	}

	RespondOK(c, ticket)
}

// Finalize completes a ticket and submits the sale billing it
func (h *TicketHandler) Finalize(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	var req FinalizeTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	wallet, err := shared.ParseWallet("wallet", req.Wallet)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	meta, ok := submitMeta(c, req.IdempotencyKey)
	if !ok {
		return
	}

	ticket, record, err := h.ticketService.Finalize(c.Request.Context(), id, wallet, meta)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to finalize ticket", err)
		return
	}

	RespondAccepted(c, FinalizeTicketResponse{
		Ticket:    ticket,
		Operation: mapOperationRecordToResponse(record),
	})
}

func parseTicketID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid ticket ID")
		return uuid.Nil, false
	}
	return id, true
}
