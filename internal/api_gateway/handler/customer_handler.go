package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
)

// CustomerHandler serves the customer directory
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(logger *slog.Logger, customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// Search lists the customers whose name, email or phone contains q
func (h *CustomerHandler) Search(c *gin.Context) {
	var params CustomerSearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	customers, total, err := h.customerService.SearchCustomers(c.Request.Context(), params.Query, params.Page, params.PerPage)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to search customers", err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, customers, params.Page, params.PerPage, int(total))
}

// GetByID returns a customer with their repair history
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid customer ID")
		return
	}

	history, err := h.customerService.GetCustomerHistory(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to get customer", err)
		return
	}

	RespondOK(c, history)
}
