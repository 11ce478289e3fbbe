package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles HTTP requests for reports and the dashboard
type ReportHandler struct {
	reportService service.ReportService
	location      *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler. Business days are read in location.
func NewReportHandler(logger *slog.Logger, reportService service.ReportService, location *time.Location) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		location:      location,
		now:           time.Now,
		logger:        logger,
	}
}

// Summary aggregates the entries of a range of business days
func (h *ReportHandler) Summary(c *gin.Context) {
	from, to, ok := h.bindRange(c)
	if !ok {
		return
	}

	totals, err := h.reportService.Summary(c.Request.Context(), from, to)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to compute summary", err)
		return
	}

	RespondOK(c, totals)
}

// Balances reports the cumulative balance of every wallet
func (h *ReportHandler) Balances(c *gin.Context) {
	report, err := h.reportService.Balances(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to compute balances", err)
		return
	}

	RespondOK(c, report)
}

// DailySession reports the cash session of a business day
func (h *ReportHandler) DailySession(c *gin.Context) {
	day, ok := h.bindDay(c)
	if !ok {
		return
	}

	session, err := h.reportService.DailySession(c.Request.Context(), day)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to build daily session", err)
		return
	}

	RespondOK(c, session)
}

// ExportDailySession downloads the cash session of a business day as xlsx
func (h *ReportHandler) ExportDailySession(c *gin.Context) {
	day, ok := h.bindDay(c)
	if !ok {
		return
	}

	content, err := h.reportService.ExportDailySession(c.Request.Context(), day)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to export daily session", err)
		return
	}

	filename := fmt.Sprintf("caisse_%s.xlsx", day.Format(operation.DayLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}

// ExpensesByCategory sums the expenses of a range per category
func (h *ReportHandler) ExpensesByCategory(c *gin.Context) {
	from, to, ok := h.bindRange(c)
	if !ok {
		return
	}

	categories, err := h.reportService.ExpensesByCategory(c.Request.Context(), from, to)
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to compute expenses by category", err)
		return
	}

	RespondOK(c, categories)
}

// Dashboard returns the figures of the landing page
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, h.logger, "Failed to build dashboard", err)
		return
	}

	RespondOK(c, dashboard)
}

func (h *ReportHandler) bindRange(c *gin.Context) (time.Time, time.Time, bool) {
	var params DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "The from and to query parameters are required")
		return time.Time{}, time.Time{}, false
	}

	from, to, err := dayRange(params.From, params.To, h.location)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *ReportHandler) bindDay(c *gin.Context) (time.Time, bool) {
	var params DayParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return time.Time{}, false
	}

	day, err := parseDay("date", params.Date, h.location, h.now())
	if err != nil {
		RespondBadRequest(c, err.Error())
		return time.Time{}, false
	}
	return day, true
}
