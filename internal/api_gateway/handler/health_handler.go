package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the gateway cannot serve without
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the reachability of the stores behind the API
type HealthHandler struct {
	checks map[string]Pinger
	now    func() time.Time
	logger *slog.Logger
}

func NewHealthHandler(logger *slog.Logger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		now:    time.Now,
		logger: logger,
	}
}

// Check pings every dependency, answering 503 when one of them is down
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	dependencies := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", "dependency", name, "error", err)
			dependencies[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		dependencies[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": dependencies,
		"timestamp":    h.now().UTC(),
	})
}
