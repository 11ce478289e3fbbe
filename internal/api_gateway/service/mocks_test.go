package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/reconciliation"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockEntryRepo struct {
	mock.Mock
}

func (m *MockEntryRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepo) GetByID(ctx context.Context, id int64) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockEntryRepo) List(ctx context.Context, filter ledger.Filter, limit, offset int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockEntryRepo) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepo) ListAll(ctx context.Context, filter ledger.Filter) ([]*ledger.Entry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockEntryRepo) Update(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEntryRepo) DeleteByTransferID(ctx context.Context, transferID uuid.UUID) ([]int64, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockEntryRepo) ExistsByOperationID(ctx context.Context, operationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, operationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntryRepo) FindOrphanedTransfers(ctx context.Context) ([]ledger.OrphanedTransfer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.OrphanedTransfer), args.Error(1)
}

func (m *MockEntryRepo) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

type MockInventoryRepo struct {
	mock.Mock
}

func (m *MockInventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepo) GetByID(ctx context.Context, id int64) (*inventory.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*inventory.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*inventory.Item), args.Error(1)
}

func (m *MockInventoryRepo) List(ctx context.Context, limit, offset int) ([]*inventory.Item, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Item), args.Error(1)
}

func (m *MockInventoryRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryRepo) ListLowStock(ctx context.Context, threshold int) ([]*inventory.Item, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Item), args.Error(1)
}

func (m *MockInventoryRepo) UpdateDetails(ctx context.Context, item *inventory.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepo) Restock(ctx context.Context, id int64, quantity int) (int, error) {
	args := m.Called(ctx, id, quantity)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryRepo) DecrementStock(ctx context.Context, id int64, quantity int) (int, error) {
	args := m.Called(ctx, id, quantity)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryRepo) WithTx(tx pgx.Tx) inventory.Repository {
	return m
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockOperationRepo struct {
	mock.Mock
}

func (m *MockOperationRepo) Create(ctx context.Context, record *operation.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockOperationRepo) GetByID(ctx context.Context, operationID uuid.UUID) (*operation.Record, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operation.Record), args.Error(1)
}

func (m *MockOperationRepo) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*operation.Record, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operation.Record), args.Error(1)
}

func (m *MockOperationRepo) List(ctx context.Context, status *shared.OperationStatus, limit, offset int) ([]*operation.Record, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*operation.Record), args.Error(1)
}

func (m *MockOperationRepo) Count(ctx context.Context, status *shared.OperationStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOperationRepo) MarkCompleted(ctx context.Context, operationID uuid.UUID, entryIDs []int64) error {
	args := m.Called(ctx, operationID, entryIDs)
	return args.Error(0)
}

func (m *MockOperationRepo) MarkFailed(ctx context.Context, operationID uuid.UUID, reason string) error {
	args := m.Called(ctx, operationID, reason)
	return args.Error(0)
}

type MockTicketRepo struct {
	mock.Mock
}

func (m *MockTicketRepo) Create(ctx context.Context, ticket *repair.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepo) GetByID(ctx context.Context, id uuid.UUID) (*repair.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repair.Ticket), args.Error(1)
}

func (m *MockTicketRepo) GetByNumber(ctx context.Context, number string) (*repair.Ticket, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repair.Ticket), args.Error(1)
}

func (m *MockTicketRepo) List(ctx context.Context, status *repair.Status, limit, offset int) ([]*repair.Ticket, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repair.Ticket), args.Error(1)
}

func (m *MockTicketRepo) Count(ctx context.Context, status *repair.Status) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepo) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepo) Save(ctx context.Context, ticket *repair.Ticket, expected repair.Status) error {
	args := m.Called(ctx, ticket, expected)
	return args.Error(0)
}

func (m *MockTicketRepo) Reopen(ctx context.Context, number string, operationID uuid.UUID) error {
	args := m.Called(ctx, number, operationID)
	return args.Error(0)
}

func (m *MockTicketRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*repair.Ticket, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repair.Ticket), args.Error(1)
}

func (m *MockTicketRepo) CountByCustomers(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, customerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) Search(ctx context.Context, query string, limit, offset int) ([]*customer.Customer, error) {
	args := m.Called(ctx, query, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) CountSearch(ctx context.Context, query string) (int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(int64), args.Error(1)
}

type MockIssueRepo struct {
	mock.Mock
}

func (m *MockIssueRepo) Upsert(ctx context.Context, issue *reconciliation.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *MockIssueRepo) ListOpen(ctx context.Context, limit, offset int) ([]*reconciliation.Issue, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reconciliation.Issue), args.Error(1)
}

func (m *MockIssueRepo) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIssueRepo) ResolveMissing(ctx context.Context, kind reconciliation.IssueKind, activeKeys []string) (int64, error) {
	args := m.Called(ctx, kind, activeKeys)
	return args.Get(0).(int64), args.Error(1)
}

type MockOperationPublisher struct {
	mock.Mock
}

func (m *MockOperationPublisher) PublishOperation(ctx context.Context, req *operation.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockOperationPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
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

func (m *MockOperationService) ResolveSaleLines(ctx context.Context, lines []SaleLineInput) ([]sale.Line, error) {
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
