package handler

import (
	"net/http"
	"strconv"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/service"
	"go.uber.org/zap"
)

// DashboardHandler serves the dashboard and reference data
type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Counts inquiries, purchase orders and users by status
// @Tags Dashboard
// @Produce json
// @Param refresh query bool false "Bypass the session snapshot"
// @Success 200 {object} domain.DashboardSummary
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	summary, err := h.dashboardService.Summary(r.Context(), refresh)
	if err != nil {
		handleServiceError(w, h.logger, "load dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Enums godoc
// @Summary Enumerations
// @Description Returns every canonical enumeration with labels and colors
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.EnumsResponse
// @Router /enums [get]
func (h *DashboardHandler) Enums(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Enums())
}
