package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shop-backoffice-ledger/internal/api_gateway"
	"github.com/shop-backoffice-ledger/internal/api_gateway/handler"
	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/data/mongo"
	"github.com/shop-backoffice-ledger/internal/data/postgres"
	"github.com/shop-backoffice-ledger/internal/logger"
	"github.com/shop-backoffice-ledger/internal/platform/messaging/producers"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	// Migrations run before the pool is opened
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

	// Publishes operation requests to the processor
	operationProducer, err := producers.NewOperationRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize operation request producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	entryRepo := postgres.NewEntryRepository(log, postgresDB)
	inventoryRepo := postgres.NewInventoryRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	operationRepo := mongo.NewOperationRepository(log, mongoDB.Database())
	ticketRepo := mongo.NewTicketRepository(log, mongoDB.Database())
	customerRepo := mongo.NewCustomerRepository(log, mongoDB.Database())
	issueRepo := mongo.NewIssueRepository(log, mongoDB.Database())

	if err := operationRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create operation indexes", "error", err)
		os.Exit(1)
	}
	if err := ticketRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create ticket indexes", "error", err)
		os.Exit(1)
	}
	if err := customerRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create customer indexes", "error", err)
		os.Exit(1)
	}

	// Initialize services
	location := cfg.Ledger.Location()
	operationService := service.NewOperationService(log, operationRepo, entryRepo, inventoryRepo, operationProducer)
	services := api_gateway.Services{
		Operations: operationService,
		Entries:    service.NewEntryService(log, postgresDB.Pool(), entryRepo, outboxRepo),
		Inventory:  service.NewInventoryService(log, postgresDB.Pool(), inventoryRepo, outboxRepo, cfg.Ledger.LowStockThreshold),
		Tickets:    service.NewTicketService(log, ticketRepo, customerRepo, inventoryRepo, operationService),
		Customers:  service.NewCustomerService(log, customerRepo, ticketRepo),
		Reports:    service.NewReportService(log, entryRepo, ticketRepo, inventoryRepo, location, cfg.Ledger.LowStockThreshold),
		Issues:     service.NewIssueService(log, issueRepo),

		HealthChecks: map[string]handler.Pinger{
			"postgres": postgresDB,
			"mongodb":  mongoDB,
		},
	}

	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized", "timezone", location.String())

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores they use
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	if err := operationProducer.Close(); err != nil {
		log.Error("Error closing operation request producer", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
