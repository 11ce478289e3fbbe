package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shop-backoffice-ledger/internal/api_gateway/middleware"
	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

var testActor = shared.Actor{ID: "u-1", Email: "caisse@shop.test"}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter returns a router whose requests are authenticated as actor
// unless actor is zero
func newTestRouter(actor shared.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if !actor.IsZero() {
			c.Set(middleware.ActorKey, actor)
		}
		c.Next()
	})
	return router
}

func serveJSON(router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(b)
		reader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the data field of the response envelope into out
func decodeData(body []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, out)
}

func decodeError(body []byte) (*ErrorInfo, error) {
	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	return response.Error, nil
}

type MockOperationService struct {
	mock.Mock
}

func (m *MockOperationService) Submit(ctx context.Context, request *operation.Request) (*operation.Record, bool, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*operation.Record), args.Bool(1), args.Error(2)
}

func (m *MockOperationService) ResolveSaleLines(ctx context.Context, lines []service.SaleLineInput) ([]sale.Line, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.Line), args.Error(1)
}

func (m *MockOperationService) GetOperation(ctx context.Context, operationID uuid.UUID) (*operation.Record, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operation.Record), args.Error(1)
}

func (m *MockOperationService) ListOperations(ctx context.Context, status *shared.OperationStatus, page, perPage int) ([]*operation.Record, int64, error) {
	args := m.Called(ctx, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*operation.Record), args.Get(1).(int64), args.Error(2)
}

type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) ListEntries(ctx context.Context, filter ledger.Filter, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryService) GetEntry(ctx context.Context, id int64) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockEntryService) CorrectEntry(ctx context.Context, id int64, version int, patch ledger.Patch, meta service.ChangeMeta) (*ledger.Entry, error) {
	args := m.Called(ctx, id, version, patch, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockEntryService) DeleteEntry(ctx context.Context, id int64, meta service.ChangeMeta) ([]int64, error) {
	args := m.Called(ctx, id, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) CreateItem(ctx context.Context, input service.ItemInput) (*inventory.Item, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryService) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryService) ListItems(ctx context.Context, page, perPage int) ([]*inventory.Item, int64, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*inventory.Item), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryService) UpdateItem(ctx context.Context, id int64, patch service.ItemPatch) (*inventory.Item, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryService) Restock(ctx context.Context, id int64, quantity int, meta service.ChangeMeta) (int, error) {
	args := m.Called(ctx, id, quantity, meta)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryService) LowStock(ctx context.Context) ([]*inventory.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Item), args.Error(1)
}

type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) CreateTicket(ctx context.Context, input service.TicketInput) (*repair.Ticket, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repair.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicket(ctx context.Context, id uuid.UUID) (*repair.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repair.Ticket), args.Error(1)
}

func (m *MockTicketService) ListTickets(ctx context.Context, status *repair.Status, page, perPage int) ([]*repair.Ticket, int64, error) {
	args := m.Called(ctx, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*repair.Ticket), args.Get(1).(int64), args.Error(2)
}

func (m *MockTicketService) AddLine(ctx context.Context, id uuid.UUID, line repair.Line) (*repair.Ticket, error) {
	args := m.Called(ctx, id, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repair.Ticket), args.Error(1)
}

func (m *MockTicketService) Transition(ctx context.Context, id uuid.UUID, to repair.Status) (*repair.Ticket, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repair.Ticket), args.Error(1)
}

func (m *MockTicketService) Finalize(ctx context.Context, id uuid.UUID, wallet shared.Wallet, meta service.SubmitMeta) (*repair.Ticket, *operation.Record, error) {
	args := m.Called(ctx, id, wallet, meta)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*repair.Ticket), args.Get(1).(*operation.Record), args.Error(2)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) SearchCustomers(ctx context.Context, query string, page, perPage int) ([]*service.CustomerSummary, int64, error) {
	args := m.Called(ctx, query, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*service.CustomerSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerService) GetCustomerHistory(ctx context.Context, id uuid.UUID) (*service.CustomerHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CustomerHistory), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Summary(ctx context.Context, from, to time.Time) (*ledger.Totals, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Totals), args.Error(1)
}

func (m *MockReportService) Balances(ctx context.Context) (*service.BalanceReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BalanceReport), args.Error(1)
}

func (m *MockReportService) DailySession(ctx context.Context, day time.Time) (*ledger.DailyCashSession, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DailyCashSession), args.Error(1)
}

func (m *MockReportService) ExportDailySession(ctx context.Context, day time.Time) ([]byte, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockReportService) ExpensesByCategory(ctx context.Context, from, to time.Time) ([]service.CategoryAmount, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.CategoryAmount), args.Error(1)
}

func (m *MockReportService) Dashboard(ctx context.Context) (*service.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}
