package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/data/mongo"
	"github.com/shop-backoffice-ledger/internal/data/postgres"
	"github.com/shop-backoffice-ledger/internal/logger"
	"github.com/shop-backoffice-ledger/internal/operation_processor/components"
	"github.com/shop-backoffice-ledger/internal/operation_processor/consumer"
	"github.com/shop-backoffice-ledger/internal/operation_processor/outbox_poller"
	"github.com/shop-backoffice-ledger/internal/operation_processor/reconciliation_sweeper"
	"github.com/shop-backoffice-ledger/internal/operation_processor/service"
	"github.com/shop-backoffice-ledger/internal/platform/locking"
	"github.com/shop-backoffice-ledger/internal/platform/messaging/consumers"
	"github.com/shop-backoffice-ledger/internal/platform/messaging/producers"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("operation_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Operation Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"timezone", cfg.Ledger.Timezone,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisDB, err := persistence.NewRedisDB(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	entryRepo := postgres.NewEntryRepository(log, postgresDB)
	inventoryRepo := postgres.NewInventoryRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	operationRepo := mongo.NewOperationRepository(log, mongoDB.Database())
	ticketRepo := mongo.NewTicketRepository(log, mongoDB.Database())
	issueRepo := mongo.NewIssueRepository(log, mongoDB.Database())

	if err := operationRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create operation indexes", "error", err)
		os.Exit(1)
	}

	locker := locking.NewRedisLocker(redisDB.Client(), log.With("component", "locker"))

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	changeProducer, err := producers.NewChangeEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize change event producer", "error", err)
		os.Exit(1)
	}

	processingService := components.CreateProcessingService(
		postgresDB.Pool(),
		components.Repositories{
			Entries:    entryRepo,
			Inventory:  inventoryRepo,
			Outbox:     outboxRepo,
			Operations: operationRepo,
			Tickets:    ticketRepo,
		},
		locker,
		log,
		cfg,
	)

	operationEventHandler := consumer.NewOperationEventHandler(
		log.With("component", "consumer"),
		processingService,
		dlqProducer,
	)
	kafkaConsumer.OnExhausted(operationEventHandler.HandleExhausted)

	changePublisher := outbox_poller.NewChangePublisher(
		outboxRepo,
		operationRepo,
		changeProducer,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		changePublisher,
		log.With("component", "outbox_poller"),
	)

	sweeper := reconciliation_sweeper.NewSweeper(
		&cfg.Reconciliation,
		entryRepo,
		issueRepo,
		locker,
		log.With("component", "reconciliation_sweeper"),
	)

	errChan := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.OperationTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, operationEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	var shutdownErr error
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
			shutdownErr = err
		}
	}

	if err := changeProducer.Close(); err != nil {
		log.Error("Error closing change event producer", "error", err)
		shutdownErr = err
	}

	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}

	if err := redisDB.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serviceErr != nil {
		log.Error("Operation Processor shutdown with errors", "error", serviceErr)
	}
	if shutdownErr != nil {
		log.Error("Operation Processor shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Operation Processor shutdown completed successfully")
}
