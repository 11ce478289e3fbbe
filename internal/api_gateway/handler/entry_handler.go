package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// EntryHandler handles HTTP requests for ledger entries
type EntryHandler struct {
	entryService service.EntryService
	location     *time.Location
	logger       *slog.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(logger *slog.Logger, entryService service.EntryService, location *time.Location) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		location:     location,
		logger:       logger,
	}
}

// List retrieves a filtered page of entries, newest first
func (h *EntryHandler) List(c *gin.Context) {
	var params EntryListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter, err := h.buildFilter(params)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entries, total, err := h.entryService.ListEntries(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to list entries", err)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// GetByID retrieves an entry, returns 404 if not found
func (h *EntryHandler) GetByID(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.entryService.GetEntry(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to get entry", err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// Update corrects an entry in place. A stale version is answered 409.
func (h *EntryHandler) Update(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	patch := ledger.Patch{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Wallet != nil {
		wallet, err := shared.ParseWallet("wallet", *req.Wallet)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		patch.Wallet = &wallet
	}

	meta, ok := changeMeta(c)
	if !ok {
		return
	}

	entry, err := h.entryService.CorrectEntry(c.Request.Context(), id, req.Version, patch, meta)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to correct entry", err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// Delete removes an entry, together with its pair for transfer legs
func (h *EntryHandler) Delete(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	meta, ok := changeMeta(c)
	if !ok {
		return
	}

	deleted, err := h.entryService.DeleteEntry(c.Request.Context(), id, meta)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to delete entry", err)
		return
	}

	RespondOK(c, gin.H{"deleted_entry_ids": deleted})
}

func (h *EntryHandler) buildFilter(params EntryListParams) (ledger.Filter, error) {
	filter := ledger.Filter{
		Category:        params.Category,
		ExcludeInternal: params.ExcludeInternal,
	}

	if params.Kind != "" {
		kind := shared.EntryKind(params.Kind)
		if !kind.Valid() {
			return ledger.Filter{}, shared.NewValidationError("kind", "unknown entry kind")
		}
		filter.Kinds = []shared.EntryKind{kind}
	}

	if params.Wallet != "" {
		wallet, err := shared.ParseWallet("wallet", params.Wallet)
		if err != nil {
			return ledger.Filter{}, err
		}
		filter.Wallet = &wallet
	}

	if params.From != "" {
		from, err := parseDay("from", params.From, h.location, time.Time{})
		if err != nil {
			return ledger.Filter{}, err
		}
		filter.From = &from
	}

	if params.To != "" {
		last, err := parseDay("to", params.To, h.location, time.Time{})
		if err != nil {
			return ledger.Filter{}, err
		}
		to := last.AddDate(0, 0, 1)
		filter.To = &to
	}

	return filter, nil
}

// mapEntryToResponse maps a ledger entry to an entry response DTO
func mapEntryToResponse(entry *ledger.Entry) EntryResponse {
	response := EntryResponse{
		ID:          entry.ID,
		Kind:        string(entry.Kind),
		Amount:      entry.Amount,
		Wallet:      string(entry.EffectiveWallet()),
		IsInternal:  entry.IsInternal,
		Description: entry.Description,
		Category:    entry.Category,
		TicketRef:   entry.TicketRef,
		Direction:   string(entry.Direction),
		ActorEmail:  entry.Actor.Email,
		Version:     entry.Version,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}

	if entry.CostBasis.Valid {
		cost := entry.CostBasis.Decimal
		response.CostBasis = &cost
	}
	if entry.Theoretical.Valid {
		theoretical := entry.Theoretical.Decimal
		response.TheoreticalCash = &theoretical
	}
	if entry.TransferID != nil {
		response.TransferID = entry.TransferID.String()
	}
	if entry.OperationID != nil {
		response.OperationID = entry.OperationID.String()
	}

	return response
}
