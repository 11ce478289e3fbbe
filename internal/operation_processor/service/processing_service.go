package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/locking"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

// ClosingLockKey is the lock serializing the closings of a business day
func ClosingLockKey(day string) string {
	return "closing:" + day
}

type ProcessingServiceImpl struct {
	db              persistence.TxBeginner
	validator       OperationValidator
	ledgerWriter    LedgerWriter
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	locker          locking.Locker
	closingLockTTL  time.Duration
	logger          *slog.Logger
}

func NewProcessingService(
	db persistence.TxBeginner,
	validator OperationValidator,
	ledgerWriter LedgerWriter,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	locker locking.Locker,
	closingLockTTL time.Duration,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		db:              db,
		validator:       validator,
		ledgerWriter:    ledgerWriter,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		locker:          locker,
		closingLockTTL:  closingLockTTL,
		logger:          logger,
	}
}

// ProcessOperation applies one request in a single database transaction.
// Business failures are recorded and acknowledged with a nil error; any other
// error is returned so the message is retried.
func (s *ProcessingServiceImpl) ProcessOperation(ctx context.Context, request *operation.Request) error {
	logger := s.logger.With("operation_id", request.OperationID.String(), "type", string(request.Type))
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing operation")

	// 1. Validate the request
	if err := s.validator.Validate(ctx, request); err != nil {
		return s.fail(ctx, logger, request, shared.FailureReasonValidation, err)
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err // Let Kafka retry
	}
	if skip {
		return nil // Already applied
	}

	// 3. Write entries, stock and outbox atomically
	apply := func(ctx context.Context) error {
		return persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
			event, err := s.ledgerWriter.Apply(ctx, tx, request)
			if err != nil {
				return err
			}
			return s.outboxManager.CreateOutboxEntry(ctx, tx, event)
		})
	}

	if request.Type == shared.OperationTypeClosing {
		err = locking.WithLock(ctx, s.locker, logger, ClosingLockKey(request.Closing.Day), s.closingLockTTL, apply)
	} else {
		err = apply(ctx)
	}

	if err != nil {
		if reason, ok := FailureReasonOf(err); ok {
			return s.fail(ctx, logger, request, reason, err)
		}
		logger.Error("Failed to apply operation", "error", err)
		return fmt.Errorf("failed to apply operation %s: %w", request.OperationID.String(), err)
	}

	logger.Info("Operation applied")
	return nil
}

func (s *ProcessingServiceImpl) fail(ctx context.Context, logger *slog.Logger, request *operation.Request, reason shared.FailureReason, cause error) error {
	logger.Error("Operation failed", "reason", string(reason), "error", cause)
	if err := s.failureRecorder.RecordFailure(ctx, request, reason, cause); err != nil {
		logger.Error("Failed to record operation failure", "reason", string(reason), "error", err)
		return err
	}
	return nil
}

// FailureReasonOf maps the business errors of an operation to the reason
// stored on its record. A data exception raised by postgres (class 22, such
// as a numeric overflow) is a validation failure since retrying cannot help.
// ok is false for infrastructure errors.
func FailureReasonOf(err error) (reason shared.FailureReason, ok bool) {
	var validationErr shared.ValidationError
	var stockErr inventory.ErrInsufficientStock
	var itemErr inventory.ErrItemNotFound
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &validationErr), errors.Is(err, operation.ErrInvalidOperationType):
		return shared.FailureReasonValidation, true
	case errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "22"):
		return shared.FailureReasonValidation, true
	case errors.As(err, &stockErr):
		return shared.FailureReasonInsufficientStock, true
	case errors.As(err, &itemErr):
		return shared.FailureReasonItemNotFound, true
	case errors.Is(err, ledger.ErrClosingAlreadyRecorded):
		return shared.FailureReasonClosingAlreadyRecorded, true
	case errors.Is(err, locking.ErrNotObtained):
		return shared.FailureReasonClosingLocked, true
	}
	return "", false
}
