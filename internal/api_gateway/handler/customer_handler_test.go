package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
)

func newCustomerRouter(svc service.CustomerService) http.Handler {
	h := NewCustomerHandler(newTestLogger(), svc)
	router := newTestRouter(testActor)
	router.GET("/customers", h.Search)
	router.GET("/customers/:id", h.GetByID)
	return router
}

func TestCustomerHandler_Search(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockCustomerService)
		router := newCustomerRouter(mockService)
		nadia := &customer.Customer{ID: uuid.New(), Name: "Nadia", Phone: "0600000000"}
		mockService.On("SearchCustomers", mock.Anything, "nad", 1, 20).
			Return([]*service.CustomerSummary{{Customer: nadia, TicketCount: 3}}, int64(1), nil).Once()

		rr := serveJSON(router, http.MethodGet, "/customers?q=nad", nil, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var rows []struct {
			ID          uuid.UUID `json:"id"`
			Name        string    `json:"name"`
			TicketCount int64     `json:"ticket_count"`
		}
		require.NoError(t, decodeData(rr.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, nadia.ID, rows[0].ID)
		assert.Equal(t, int64(3), rows[0].TicketCount)
		mockService.AssertExpectations(t)
	})

	t.Run("PageTooLarge", func(t *testing.T) {
		mockService := new(MockCustomerService)
		router := newCustomerRouter(mockService)

		rr := serveJSON(router, http.MethodGet, "/customers?per_page=500", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "SearchCustomers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCustomerHandler_GetByID(t *testing.T) {
	t.Run("History", func(t *testing.T) {
		mockService := new(MockCustomerService)
		router := newCustomerRouter(mockService)
		id := uuid.New()
		mockService.On("GetCustomerHistory", mock.Anything, id).Return(&service.CustomerHistory{
			Customer:    &customer.Customer{ID: id, Name: "Nadia"},
			Tickets:     []*repair.Ticket{{ID: uuid.New(), Number: "R-1", Status: repair.StatusDone}},
			TicketCount: 1,
			BilledTotal: decimal.RequireFromString("80.00"),
		}, nil).Once()

		rr := serveJSON(router, http.MethodGet, "/customers/"+id.String(), nil, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var history struct {
			Customer    customer.Customer `json:"customer"`
			Tickets     []repair.Ticket   `json:"tickets"`
			TicketCount int               `json:"ticket_count"`
			OpenTickets int               `json:"open_tickets"`
			BilledTotal decimal.Decimal   `json:"billed_total"`
		}
		require.NoError(t, decodeData(rr.Body.Bytes(), &history))
		assert.Equal(t, "Nadia", history.Customer.Name)
		require.Len(t, history.Tickets, 1)
		assert.Equal(t, 1, history.TicketCount)
		assert.True(t, decimal.RequireFromString("80").Equal(history.BilledTotal))
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockCustomerService)
		router := newCustomerRouter(mockService)
		id := uuid.New()
		mockService.On("GetCustomerHistory", mock.Anything, id).Return(nil, customer.ErrCustomerNotFound{Ref: id.String()}).Once()

		rr := serveJSON(router, http.MethodGet, "/customers/"+id.String(), nil, nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		mockService := new(MockCustomerService)
		router := newCustomerRouter(mockService)

		rr := serveJSON(router, http.MethodGet, "/customers/not-a-uuid", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetCustomerHistory", mock.Anything, mock.Anything)
	})
}
