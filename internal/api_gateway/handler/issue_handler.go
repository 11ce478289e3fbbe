package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
)

// IssueHandler exposes the findings of the reconciliation sweeper
type IssueHandler struct {
	issueService service.IssueService
	logger       *slog.Logger
}

// NewIssueHandler creates a new reconciliation issue handler
func NewIssueHandler(logger *slog.Logger, issueService service.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
		logger:       logger,
	}
}

// ListOpen retrieves the unresolved issues, most recently seen first
func (h *IssueHandler) ListOpen(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	issues, total, err := h.issueService.ListOpenIssues(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to list reconciliation issues", err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, issues, pagination.Page, pagination.PerPage, int(total))
}
