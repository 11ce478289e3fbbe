package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
)

type FailureRecorderImpl struct {
	operationRepo operation.Repository
	ticketRepo    repair.Repository
	logger        *slog.Logger
}

func NewFailureRecorder(operationRepo operation.Repository, ticketRepo repair.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		operationRepo: operationRepo,
		ticketRepo:    ticketRepo,
		logger:        logger,
	}
}

// RecordFailure marks the operation FAILED. A failed invoice moves its repair
// ticket back to in progress so it can be corrected and finalized again.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *operation.Request, reason shared.FailureReason, cause error) error {
	logger := r.logger.With("operation_id", request.OperationID.String(), "type", string(request.Type))
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Error("Recording failed operation", "reason", string(reason), "error", cause)

	err := r.operationRepo.MarkFailed(ctx, request.OperationID, string(reason))
	if err != nil {
		if !errors.Is(err, operation.ErrRecordNotFound{}) {
			return err
		}
		logger.Warn("No operation record to mark as failed")
	}

	ticketRef := request.TicketRef()
	if ticketRef == "" {
		return nil
	}

	if err := r.ticketRepo.Reopen(ctx, ticketRef, request.OperationID); err != nil {
		var notFound repair.ErrTicketNotFound
		if errors.As(err, &notFound) {
			logger.Warn("Repair ticket not billed by this operation, left unchanged", "ticket_ref", ticketRef)
			return nil
		}
		logger.Error("Failed to reopen repair ticket", "ticket_ref", ticketRef, "error", err)
		return err
	}

	logger.Info("Repair ticket reopened after failed invoice", "ticket_ref", ticketRef)
	return nil
}
