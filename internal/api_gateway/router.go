package api_gateway

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/handler"
	"github.com/shop-backoffice-ledger/internal/api_gateway/middleware"
	"github.com/shop-backoffice-ledger/internal/config"
)

// handlers groups the HTTP handlers mounted by setupRouter
type handlers struct {
	operations *handler.OperationHandler
	entries    *handler.EntryHandler
	inventory  *handler.InventoryHandler
	tickets    *handler.TicketHandler
	customers  *handler.CustomerHandler
	reports    *handler.ReportHandler
	issues     *handler.IssueHandler
	health     *handler.HealthHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, authCfg *config.AuthConfig, h handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints, all authenticated
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(authCfg, logger))
	{
		// Money-moving intents, processed asynchronously
		v1.POST("/sales", h.operations.CreateSale)
		v1.POST("/expenses", h.operations.CreateExpense)
		v1.POST("/transfers", h.operations.CreateTransfer)
		v1.POST("/float", h.operations.OpenFloat)
		v1.POST("/closings", h.operations.CloseDay)

		operations := v1.Group("/operations")
		{
			operations.GET("", h.operations.List)
			operations.GET("/:id", h.operations.GetByID)
		}

		entries := v1.Group("/entries")
		{
			entries.GET("", h.entries.List)
			entries.GET("/:id", h.entries.GetByID)
			entries.PATCH("/:id", h.entries.Update)
			entries.DELETE("/:id", h.entries.Delete)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.POST("", h.inventory.Create)
			inventory.GET("", h.inventory.List)
			inventory.GET("/low-stock", h.inventory.LowStock)
			inventory.GET("/:id", h.inventory.GetByID)
			inventory.PATCH("/:id", h.inventory.Update)
			inventory.POST("/:id/restock", h.inventory.Restock)
		}

		tickets := v1.Group("/tickets")
		{
			tickets.POST("", h.tickets.Create)
			tickets.GET("", h.tickets.List)
			tickets.GET("/:id", h.tickets.GetByID)
			tickets.POST("/:id/lines", h.tickets.AddLine)
			tickets.PATCH("/:id/status", h.tickets.UpdateStatus)
			tickets.POST("/:id/finalize", h.tickets.Finalize)
		}

		customers := v1.Group("/customers")
		{
			customers.GET("", h.customers.Search)
			customers.GET("/:id", h.customers.GetByID)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/summary", h.reports.Summary)
			reports.GET("/balances", h.reports.Balances)
			reports.GET("/daily", h.reports.DailySession)
			reports.GET("/daily/export", h.reports.ExportDailySession)
			reports.GET("/expenses", h.reports.ExpensesByCategory)
		}
		v1.GET("/dashboard", h.reports.Dashboard)

		v1.GET("/reconciliation/issues", h.issues.ListOpen)
	}

	// Health check endpoint for monitoring
	r.GET("/health", h.health.Check)
}
