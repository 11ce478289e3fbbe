package components

import (
	"log/slog"

	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/domain/inventory"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
	"github.com/shop-backoffice-ledger/internal/platform/locking"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

// Repositories groups the stores used while processing operations
type Repositories struct {
	Entries    ledger.Repository
	Inventory  inventory.Repository
	Outbox     outbox.Repository
	Operations operation.Repository
	Tickets    repair.Repository
}

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	db persistence.TxBeginner,
	repos Repositories,
	locker locking.Locker,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewOperationValidator(repos.Entries, logger)
	ledgerWriter := NewLedgerWriter(repos.Entries, repos.Inventory, cfg.Ledger.Location(), logger)
	outboxManager := NewOutboxManager(repos.Outbox, logger)
	failureRecorder := NewFailureRecorder(repos.Operations, repos.Tickets, logger)

	baseService := service.NewProcessingService(
		db,
		validator,
		ledgerWriter,
		outboxManager,
		failureRecorder,
		locker,
		cfg.Ledger.ClosingLockTTL,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
