package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/straye-as/erp-desk/internal/database"
	"github.com/straye-as/erp-desk/internal/upstream"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const readinessTimeout = 3 * time.Second

// Pinger is implemented by the snapshot cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamProber is implemented by the ERP client
type UpstreamProber interface {
	HealthCheck(ctx context.Context) *upstream.HealthStatus
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db       *gorm.DB
	cache    Pinger
	upstream UpstreamProber
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. Any dependency may be nil.
func NewHealthHandler(db *gorm.DB, cache Pinger, prober UpstreamProber, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		cache:    cache,
		upstream: prober,
		logger:   logger,
	}
}

// Live reports that the process is serving
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Ready checks the draft store, the snapshot cache and the ERP API.
// An unreachable ERP degrades the response but does not fail it, since the
// desk keeps serving cached snapshots and open drafts.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	status := "healthy"
	code := http.StatusOK

	if h.db != nil {
		if err := database.HealthCheck(ctx, h.db); err != nil {
			h.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Error("Cache health check failed", zap.Error(err))
			checks["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else {
			checks["cache"] = map[string]interface{}{"status": "healthy"}
		}
	}

	if h.upstream != nil {
		probe := h.upstream.HealthCheck(ctx)
		checks["erp"] = probe
		if probe.Status != "healthy" && code == http.StatusOK {
			h.logger.Warn("ERP health check failed", zap.String("error", probe.Error))
			status = "degraded"
		}
	}

	respondJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
