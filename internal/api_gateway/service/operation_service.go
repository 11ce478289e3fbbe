package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/sale"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/domain/transfer"
	"github.com/shop-backoffice-ledger/internal/platform/messaging/producers"
)

// ErrOperationNotPublished is returned when an accepted operation could not
// be handed to the processor. The operation is recorded as FAILED.
var ErrOperationNotPublished = errors.New("operation could not be handed to the processor")

// OperationServiceImpl implements the OperationService interface
type OperationServiceImpl struct {
	operationRepo operation.Repository
	entryRepo     ledger.Repository
	inventoryRepo inventory.Repository
	publisher     producers.OperationPublisher
	logger        *slog.Logger
}

// NewOperationService creates a new operation service
func NewOperationService(
	logger *slog.Logger,
	operationRepo operation.Repository,
	entryRepo ledger.Repository,
	inventoryRepo inventory.Repository,
	publisher producers.OperationPublisher,
) OperationService {
	return &OperationServiceImpl{
		operationRepo: operationRepo,
		entryRepo:     entryRepo,
		inventoryRepo: inventoryRepo,
		publisher:     publisher,
		logger:        logger,
	}
}

// Submit records the request as PENDING and publishes it, supporting
// idempotency via the request idempotency key.
func (s *OperationServiceImpl) Submit(ctx context.Context, request *operation.Request) (*operation.Record, bool, error) {
	if request.Actor.IsZero() {
		return nil, false, shared.NewValidationError("actor", "is required")
	}
	if err := request.Validate(); err != nil {
		return nil, false, err
	}

	logger := s.logger.With(
		"operation_id", request.OperationID.String(),
		"type", string(request.Type),
		"correlation_id", request.CorrelationID,
	)

	if key := request.IdempotencyKey; key != "" {
		existing, err := s.operationRepo.GetByIdempotencyKey(ctx, key)
		if err != nil {
			logger.Error("Failed to check for existing operation with idempotency key",
				"idempotency_key", key,
				"error", err,
			)
			return nil, false, err
		}
		if existing != nil {
			logger.Info("Found existing operation with idempotency key",
				"idempotency_key", key,
				"existing_operation_id", existing.OperationID.String(),
				"status", string(existing.Status),
			)
			return existing, true, nil
		}
	}

	if request.Type == shared.OperationTypeTransfer {
		if err := s.checkTransferBalance(ctx, request.Transfer); err != nil {
			return nil, false, err
		}
	}

	record := operation.NewPendingRecord(request)
	if err := s.operationRepo.Create(ctx, record); err != nil {
		var duplicate operation.ErrDuplicateRecord
		if errors.As(err, &duplicate) && request.IdempotencyKey != "" {
			// a concurrent request with the same key won the insert
			if existing, getErr := s.operationRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey); getErr == nil && existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, fmt.Errorf("failed to record operation %s: %w", request.OperationID, err)
	}

	if err := s.publisher.PublishOperation(ctx, request); err != nil {
		logger.Error("Failed to publish operation request", "error", err)
		if markErr := s.operationRepo.MarkFailed(ctx, request.OperationID, string(shared.FailureReasonPublishFailed)); markErr != nil {
			logger.Error("Failed to mark unpublished operation as failed", "error", markErr)
		}
		return nil, false, fmt.Errorf("%w: %w", ErrOperationNotPublished, err)
	}

	logger.Info("Operation request published")
	return record, false, nil
}

// checkTransferBalance is the soft check of the source wallet. The store does
// not enforce it, a concurrent expense can still overdraw the wallet.
func (s *OperationServiceImpl) checkTransferBalance(ctx context.Context, intent *transfer.Intent) error {
	entries, err := s.entryRepo.ListAll(ctx, ledger.Filter{})
	if err != nil {
		return fmt.Errorf("failed to load wallet balances: %w", err)
	}

	if err := intent.CheckAvailable(ledger.WalletBalances(entries)); err != nil {
		s.logger.Info("Transfer rejected by the balance check",
			"from", string(intent.From),
			"amount", intent.Amount.String(),
		)
		return err
	}
	return nil
}

// ResolveSaleLines completes cart lines from the inventory items they reference
func (s *OperationServiceImpl) ResolveSaleLines(ctx context.Context, inputs []SaleLineInput) ([]sale.Line, error) {
	var ids []int64
	for _, in := range inputs {
		if in.ItemID != nil {
			ids = append(ids, *in.ItemID)
		}
	}

	items := map[int64]*inventory.Item{}
	if len(ids) > 0 {
		found, err := s.inventoryRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load sale items: %w", err)
		}
		items = found
	}

	lines := make([]sale.Line, 0, len(inputs))
	for idx, in := range inputs {
		line := sale.Line{
			ItemID:      in.ItemID,
			Description: in.Description,
			Quantity:    in.Quantity,
		}

		if in.ItemID == nil {
			if in.UnitPrice == nil {
				return nil, shared.NewValidationError(fmt.Sprintf("lines[%d].unit_price", idx), "is required on lines without item")
			}
			line.UnitPrice = *in.UnitPrice
			lines = append(lines, line)
			continue
		}

		item, ok := items[*in.ItemID]
		if !ok {
			return nil, inventory.ErrItemNotFound{ItemID: *in.ItemID}
		}
		line.UnitPrice = item.SalePrice
		if in.UnitPrice != nil {
			line.UnitPrice = *in.UnitPrice
		}
		line.UnitCost = item.PurchasePrice
		if in.UnitCost != nil {
			line.UnitCost = *in.UnitCost
		}
		if line.Description == "" {
			line.Description = item.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// GetOperation retrieves an operation record by its id
func (s *OperationServiceImpl) GetOperation(ctx context.Context, operationID uuid.UUID) (*operation.Record, error) {
	record, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		if !errors.Is(err, operation.ErrRecordNotFound{}) {
			s.logger.Error("Failed to get operation", "operation_id", operationID.String(), "error", err)
		}
		return nil, err
	}
	return record, nil
}

// ListOperations retrieves a page of operation records, newest first
func (s *OperationServiceImpl) ListOperations(ctx context.Context, status *shared.OperationStatus, page, perPage int) ([]*operation.Record, int64, error) {
	offset := (page - 1) * perPage

	records, err := s.operationRepo.List(ctx, status, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.operationRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
