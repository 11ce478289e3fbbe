package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
)

func newReportRouter(svc service.ReportService) http.Handler {
	h := NewReportHandler(newTestLogger(), svc, time.UTC)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	router := newTestRouter(testActor)
	router.GET("/reports/summary", h.Summary)
	router.GET("/reports/daily", h.DailySession)
	router.GET("/reports/daily/export", h.ExportDailySession)
	router.GET("/reports/expenses", h.ExpensesByCategory)
	return router
}

func sameInstant(expected time.Time) any {
	return mock.MatchedBy(func(actual time.Time) bool { return actual.Equal(expected) })
}

func TestReportHandler_Summary(t *testing.T) {
	t.Run("InclusiveRange", func(t *testing.T) {
		mockService := new(MockReportService)
		router := newReportRouter(mockService)
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
		mockService.On("Summary", mock.Anything, sameInstant(from), sameInstant(to)).
			Return(&ledger.Totals{TotalRevenue: decimal.RequireFromString("50"), NetProfit: decimal.RequireFromString("20")}, nil).Once()

		rr := serveJSON(router, http.MethodGet, "/reports/summary?from=2026-03-01&to=2026-03-10", nil, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var totals ledger.Totals
		require.NoError(t, decodeData(rr.Body.Bytes(), &totals))
		assert.True(t, totals.NetProfit.Equal(decimal.RequireFromString("20")))
		mockService.AssertExpectations(t)
	})

	t.Run("MissingParams", func(t *testing.T) {
		mockService := new(MockReportService)
		router := newReportRouter(mockService)

		rr := serveJSON(router, http.MethodGet, "/reports/summary?from=2026-03-01", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Summary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReversedRange", func(t *testing.T) {
		mockService := new(MockReportService)
		router := newReportRouter(mockService)

		rr := serveJSON(router, http.MethodGet, "/reports/summary?from=2026-03-10&to=2026-03-01", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("BadDayFormat", func(t *testing.T) {
		mockService := new(MockReportService)
		router := newReportRouter(mockService)

		rr := serveJSON(router, http.MethodGet, "/reports/summary?from=01/03/2026&to=2026-03-10", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReportHandler_DailySession(t *testing.T) {
	mockService := new(MockReportService)
	router := newReportRouter(mockService)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	mockService.On("DailySession", mock.Anything, sameInstant(today)).
		Return(&ledger.DailyCashSession{DayStart: today, DayEnd: today.AddDate(0, 0, 1)}, nil).Once()

	rr := serveJSON(router, http.MethodGet, "/reports/daily", nil, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestReportHandler_ExportDailySession(t *testing.T) {
	t.Run("Attachment", func(t *testing.T) {
		mockService := new(MockReportService)
		router := newReportRouter(mockService)
		day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
		content := []byte("PK\x03\x04")
		mockService.On("ExportDailySession", mock.Anything, sameInstant(day)).Return(content, nil).Once()

		rr := serveJSON(router, http.MethodGet, "/reports/daily/export?date=2026-03-09", nil, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="caisse_2026-03-09.xlsx"`, rr.Header().Get("Content-Disposition"))
		assert.Equal(t, content, rr.Body.Bytes())
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockReportService)
		router := newReportRouter(mockService)
		mockService.On("ExportDailySession", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

		rr := serveJSON(router, http.MethodGet, "/reports/daily/export", nil, nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Empty(t, rr.Header().Get("Content-Disposition"))
	})
}

func TestReportHandler_ExpensesByCategory(t *testing.T) {
	mockService := new(MockReportService)
	router := newReportRouter(mockService)
	mockService.On("ExpensesByCategory", mock.Anything, mock.Anything, mock.Anything).
		Return([]service.CategoryAmount{{Category: "Loyer", Amount: decimal.RequireFromString("400")}}, nil).Once()

	rr := serveJSON(router, http.MethodGet, "/reports/expenses?from=2026-03-01&to=2026-03-31", nil, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var categories []service.CategoryAmount
	require.NoError(t, decodeData(rr.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "Loyer", categories[0].Category)
}
