package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
)

type OperationValidatorImpl struct {
	entryRepo ledger.Repository
	logger    *slog.Logger
}

func NewOperationValidator(entryRepo ledger.Repository, logger *slog.Logger) service.OperationValidator {
	return &OperationValidatorImpl{
		entryRepo: entryRepo,
		logger:    logger,
	}
}

// Validate checks the envelope and the intent matching the request type
func (v *OperationValidatorImpl) Validate(ctx context.Context, request *operation.Request) error {
	if request.OperationID == uuid.Nil {
		return shared.NewValidationError("operation_id", "is required")
	}
	if request.Actor.IsZero() {
		return shared.NewValidationError("actor", "is required")
	}

	if err := request.Validate(); err != nil {
		v.logger.Warn("Invalid operation request",
			"operation_id", request.OperationID.String(),
			"type", string(request.Type),
			"error", err,
		)
		return err
	}
	return nil
}

// CheckIdempotency reports whether the operation already produced entries
func (v *OperationValidatorImpl) CheckIdempotency(ctx context.Context, request *operation.Request) (bool, error) {
	exists, err := v.entryRepo.ExistsByOperationID(ctx, request.OperationID)
	if err != nil {
		v.logger.Error("Failed to check ledger for idempotency", "operation_id", request.OperationID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for operation %s: %w", request.OperationID.String(), err)
	}

	if exists {
		v.logger.Info("Operation already applied (idempotency)", "operation_id", request.OperationID.String())
	}
	return exists, nil
}
