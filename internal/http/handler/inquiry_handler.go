package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/export"
	"github.com/straye-as/erp-desk/internal/service"
	"go.uber.org/zap"
)

// InquiryHandler handles HTTP requests for inquiries and their interactions
type InquiryHandler struct {
	inquiryService *service.InquiryService
	logger         *zap.Logger
}

// NewInquiryHandler creates a new InquiryHandler
func NewInquiryHandler(inquiryService *service.InquiryService, logger *zap.Logger) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
		logger:         logger,
	}
}

// List godoc
// @Summary List inquiries
// @Description Returns a filtered, paginated list of the session's inquiries with status and tab counts
// @Tags Inquiries
// @Produce json
// @Param search query string false "Free text search"
// @Param status query string false "Inquiry status"
// @Param slaStatus query string false "SLA status"
// @Param source query string false "Inquiry source"
// @Param dateFrom query string false "Inclusive start date"
// @Param dateTo query string false "Inclusive end date"
// @Param tab query string false "Tab name"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param refresh query bool false "Bypass the session snapshot"
// @Success 200 {object} domain.ListResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /inquiries [get]
func (h *InquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.inquiryService.List(r.Context(), r.URL.Query())
	if err != nil {
		handleServiceError(w, h.logger, "list inquiries", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Export godoc
// @Summary Export inquiries
// @Description Returns the filtered inquiries as an xlsx workbook
// @Tags Inquiries
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /inquiries/export [get]
func (h *InquiryHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.inquiryService.Filtered(r.Context(), r.URL.Query())
	if err != nil {
		handleServiceError(w, h.logger, "export inquiries", err)
		return
	}
	data, err := export.Inquiries(records)
	if err != nil {
		handleServiceError(w, h.logger, "export inquiries", err)
		return
	}
	writeWorkbook(w, "inquiries", data)
}

// GetByID godoc
// @Summary Get inquiry
// @Description Returns a specific inquiry with its interactions
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {object} domain.InquiryRecord
// @Failure 404 {object} domain.ErrorResponse "Inquiry not found"
// @Security BearerAuth
// @Router /inquiries/{id} [get]
func (h *InquiryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	inquiry, err := h.inquiryService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "get inquiry", err)
		return
	}
	respondJSON(w, http.StatusOK, inquiry)
}

// Delete godoc
// @Summary Delete inquiry
// @Tags Inquiries
// @Param id path string true "Inquiry ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse "Inquiry not found"
// @Security BearerAuth
// @Router /inquiries/{id} [delete]
func (h *InquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	if err := h.inquiryService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "delete inquiry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInteractions godoc
// @Summary List interactions
// @Description Returns the interactions logged against an inquiry
// @Tags Interactions
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {array} domain.InteractionRecord
// @Security BearerAuth
// @Router /inquiries/{id}/interactions [get]
func (h *InquiryHandler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	interactions, err := h.inquiryService.ListInteractions(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "list interactions", err)
		return
	}
	respondJSON(w, http.StatusOK, interactions)
}

// AddInteraction godoc
// @Summary Add interaction
// @Description Logs a call, email, message, meeting or visit against an inquiry
// @Tags Interactions
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param request body domain.CreateInteractionRequest true "Interaction data"
// @Success 201 {object} domain.InteractionRecord
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /inquiries/{id}/interactions [post]
func (h *InquiryHandler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	var req domain.CreateInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	interaction, err := h.inquiryService.AddInteraction(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, "add interaction", err)
		return
	}
	respondJSON(w, http.StatusCreated, interaction)
}

// DeleteInteraction godoc
// @Summary Delete interaction
// @Tags Interactions
// @Param id path string true "Interaction ID"
// @Success 204
// @Security BearerAuth
// @Router /interactions/{id} [delete]
func (h *InquiryHandler) DeleteInteraction(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid interaction ID")
		return
	}

	if err := h.inquiryService.DeleteInteraction(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "delete interaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeWorkbook(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
