package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
)

// InventoryHandler handles HTTP requests for the inventory
type InventoryHandler struct {
	inventoryService service.InventoryService
	logger           *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(logger *slog.Logger, inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// Create adds an item to the inventory
func (h *InventoryHandler) Create(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), service.ItemInput{
		Name:          req.Name,
		SKU:           req.SKU,
		SalePrice:     req.SalePrice,
		PurchasePrice: req.PurchasePrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to create item", err)
		return
	}

	RespondCreated(c, item)
}

// GetByID retrieves an item, returns 404 if not found
func (h *InventoryHandler) GetByID(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid item ID")
		return
	}

	item, err := h.inventoryService.GetItem(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to get item", err)
		return
	}

	RespondOK(c, item)
}

// List retrieves a page of items ordered by name
func (h *InventoryHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	items, total, err := h.inventoryService.ListItems(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to list items", err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, items, pagination.Page, pagination.PerPage, int(total))
}

// Update edits the descriptive fields of an item
func (h *InventoryHandler) Update(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), id, service.ItemPatch{
		Name:          req.Name,
		SKU:           req.SKU,
		SalePrice:     req.SalePrice,
		PurchasePrice: req.PurchasePrice,
	})
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to update item", err)
		return
	}

	RespondOK(c, item)
}

// Restock adds received units to an item
func (h *InventoryHandler) Restock(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid item ID")
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	meta, ok := changeMeta(c)
	if !ok {
		return
	}

	quantity, err := h.inventoryService.Restock(c.Request.Context(), id, req.Quantity, meta)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to restock item", err)
		return
	}

	RespondOK(c, gin.H{"item_id": id, "quantity": quantity})
}

// LowStock lists the items under the low-stock threshold
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.inventoryService.LowStock(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to list low stock items", err)
		return
	}

	RespondOK(c, items)
}
