package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/domain/transfer"
)

// OperationHandler handles HTTP requests for money-moving operations. Every
// operation is answered 202 Accepted once published. A replayed idempotency
// key is answered 202 as well, with the existing record and the
// Idempotent-Replayed header.
type OperationHandler struct {
	operationService service.OperationService
	location         *time.Location
	now              func() time.Time
	logger           *slog.Logger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(logger *slog.Logger, operationService service.OperationService, location *time.Location) *OperationHandler {
	return &OperationHandler{
		operationService: operationService,
		location:         location,
		now:              time.Now,
		logger:           logger,
	}
}

// CreateSale finalizes a cart
func (h *OperationHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	meta, ok := submitMeta(c, req.IdempotencyKey)
	if !ok {
		return
	}

	inputs := make([]service.SaleLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		inputs = append(inputs, service.SaleLineInput{
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			UnitCost:    l.UnitCost,
		})
	}

	lines, err := h.operationService.ResolveSaleLines(c.Request.Context(), inputs)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to resolve sale lines", err)
		return
	}

	request := newRequest(shared.OperationTypeSale, meta)
	request.Sale = &sale.Intent{
		Lines:       lines,
		Wallet:      shared.Wallet(req.Wallet),
		Description: req.Description,
		Channel:     req.Channel,
	}
	h.submit(c, request)
}

// CreateExpense books money leaving a wallet
func (h *OperationHandler) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	meta, ok := submitMeta(c, req.IdempotencyKey)
	if !ok {
		return
	}

	request := newRequest(shared.OperationTypeExpense, meta)
	request.Expense = &operation.ExpenseIntent{
		Amount:      req.Amount,
		Wallet:      shared.Wallet(req.Wallet),
		Category:    req.Category,
		Description: req.Description,
	}
	h.submit(c, request)
}

// CreateTransfer moves money between two wallets
func (h *OperationHandler) CreateTransfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	meta, ok := submitMeta(c, req.IdempotencyKey)
	if !ok {
		return
	}

	request := newRequest(shared.OperationTypeTransfer, meta)
	request.Transfer = &transfer.Intent{
		From:   shared.Wallet(req.From),
		To:     shared.Wallet(req.To),
		Amount: req.Amount,
		Note:   req.Note,
	}
	h.submit(c, request)
}

// OpenFloat records the opening float of the register
func (h *OperationHandler) OpenFloat(c *gin.Context) {
	var req OpenFloatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	meta, ok := submitMeta(c, req.IdempotencyKey)
	if !ok {
		return
	}

	request := newRequest(shared.OperationTypeFloatOpen, meta)
	request.FloatOpen = &operation.FloatOpenIntent{Amount: req.Amount, Note: req.Note}
	h.submit(c, request)
}

// CloseDay records the counted cash of a business day
func (h *OperationHandler) CloseDay(c *gin.Context) {
	var req CloseDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	meta, ok := submitMeta(c, req.IdempotencyKey)
	if !ok {
		return
	}

	day := req.Day
	if day == "" {
		day = h.now().In(h.location).Format(operation.DayLayout)
	}

	request := newRequest(shared.OperationTypeClosing, meta)
	request.Closing = &operation.ClosingIntent{Day: day, CountedCash: req.CountedCash, Note: req.Note}
	h.submit(c, request)
}

// GetByID retrieves an operation record, returns 404 if not found
func (h *OperationHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid operation ID")
		return
	}

	record, err := h.operationService.GetOperation(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to get operation", err)
		return
	}

	RespondOK(c, mapOperationRecordToResponse(record))
}

// List retrieves the operation log, newest first
func (h *OperationHandler) List(c *gin.Context) {
	var params OperationListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	var status *shared.OperationStatus
	if params.Status != "" {
		s := shared.OperationStatus(params.Status)
		status = &s
	}

	records, total, err := h.operationService.ListOperations(c.Request.Context(), status, params.Page, params.PerPage)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to list operations", err)
		return
	}

	responses := make([]OperationResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapOperationRecordToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

func (h *OperationHandler) submit(c *gin.Context, request *operation.Request) {
	record, replayed, err := h.operationService.Submit(c.Request.Context(), request)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to submit operation", err)
		return
	}

	if replayed {
		h.logger.Info("Idempotency key replayed",
			"operation_id", record.OperationID.String(),
			"status", string(record.Status))
		c.Header(IdempotentReplayedHeader, "true")
	}
	RespondAccepted(c, mapOperationRecordToResponse(record))
}

func newRequest(opType shared.OperationType, meta service.SubmitMeta) *operation.Request {
	return operation.NewRequest(opType, meta.Actor, meta.IdempotencyKey, meta.CorrelationID)
}

// mapOperationRecordToResponse maps an operation record to its response DTO
func mapOperationRecordToResponse(record *operation.Record) OperationResponse {
	response := OperationResponse{
		OperationID:   record.OperationID.String(),
		Type:          string(record.Type),
		Status:        string(record.Status),
		FailureReason: record.FailureReason,
		TicketRef:     record.TicketRef,
		EntryIDs:      record.EntryIDs,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}

	if record.ProcessedAt != nil {
		response.ProcessedAt = record.ProcessedAt.Format(time.RFC3339)
	}

	return response
}
