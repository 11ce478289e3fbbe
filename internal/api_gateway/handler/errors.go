package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/domain/transfer"
)

var badRequestErrors = []error{
	inventory.ErrEmptyName,
	inventory.ErrInvalidQuantity,
	inventory.ErrNegativeQuantity,
	repair.ErrMissingCustomer,
	customer.ErrMissingName,
	repair.ErrMissingDevice,
	repair.ErrPartWithoutItem,
	operation.ErrInvalidOperationType,
}

var conflictErrors = []error{
	ledger.ErrConcurrentModification,
	repair.ErrAlreadyFinalized,
	repair.ErrInvalidTransition,
	repair.ErrFinalizationRequired,
}

var unprocessableErrors = []error{
	transfer.ErrExceedsBalance,
	ledger.ErrTransferLegImmutable,
	repair.ErrEmptyInvoice,
}

// respondWithServiceError maps a service error onto the response envelope.
// Unknown errors are logged and hidden behind a 500.
func respondWithServiceError(c *gin.Context, logger *slog.Logger, message string, err error) {
	var validationErr shared.ValidationError
	if errors.As(err, &validationErr) || isAny(err, badRequestErrors) {
		RespondBadRequest(c, err.Error())
		return
	}

	var (
		itemNotFound   inventory.ErrItemNotFound
		ticketNotFound repair.ErrTicketNotFound
		noCustomer     customer.ErrCustomerNotFound
		duplicateSKU   inventory.ErrDuplicateSKU
		staleTicket    repair.ErrStaleTicket
	)
	switch {
	case errors.Is(err, ledger.ErrEntryNotFound{}),
		errors.Is(err, operation.ErrRecordNotFound{}),
		errors.As(err, &itemNotFound),
		errors.As(err, &ticketNotFound),
		errors.As(err, &noCustomer):
		RespondNotFound(c, err.Error())
	case errors.As(err, &duplicateSKU), errors.As(err, &staleTicket), isAny(err, conflictErrors):
		RespondConflict(c, err.Error())
	case isAny(err, unprocessableErrors):
		RespondUnprocessable(c, err.Error())
	case errors.Is(err, service.ErrOperationNotPublished):
		logger.Error(message, "error", err)
		RespondServiceUnavailable(c, "The operation was recorded as failed, retry later")
	default:
		logger.Error(message, "error", err)
		RespondInternalError(c)
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
