package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/handler"
	"github.com/shop-backoffice-ledger/internal/api_gateway/service"
	"github.com/shop-backoffice-ledger/internal/config"
)

// Services are the application services exposed over HTTP
type Services struct {
	Operations service.OperationService
	Entries    service.EntryService
	Inventory  service.InventoryService
	Tickets    service.TicketService
	Customers  service.CustomerService
	Reports    service.ReportService
	Issues     service.IssueService

	// HealthChecks are pinged by /health, keyed by dependency name
	HealthChecks map[string]handler.Pinger
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger // For structured logging
	httpServer      *http.Server // Underlying HTTP server
	httpRouter      *gin.Engine  // Gin router instance
	shutdownTimeout time.Duration
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()
	location := cfg.Ledger.Location()

	setupRouter(log, httpRouter, &cfg.Auth, handlers{
		operations: handler.NewOperationHandler(log, services.Operations, location),
		entries:    handler.NewEntryHandler(log, services.Entries, location),
		inventory:  handler.NewInventoryHandler(log, services.Inventory),
		tickets:    handler.NewTicketHandler(log, services.Tickets),
		customers:  handler.NewCustomerHandler(log, services.Customers),
		reports:    handler.NewReportHandler(log, services.Reports, location),
		issues:     handler.NewIssueHandler(log, services.Issues),
		health:     handler.NewHealthHandler(log, services.HealthChecks),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server within the shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
