package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/service"
	"go.uber.org/zap"
)

// DraftHandler handles HTTP requests for create and edit dialogs
type DraftHandler struct {
	draftService *service.DraftService
	logger       *zap.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(draftService *service.DraftService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		logger:       logger,
	}
}

func draftEntity(r *http.Request) domain.EntityType {
	return domain.EntityType(chi.URLParam(r, "entity"))
}

// List godoc
// @Summary List drafts
// @Description Returns the session's open dialogs for an entity
// @Tags Drafts
// @Produce json
// @Param entity path string true "inquiries or purchase-orders"
// @Success 200 {array} domain.DraftDTO
// @Router /drafts/{entity} [get]
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.draftService.List(r.Context(), draftEntity(r))
	if err != nil {
		handleServiceError(w, h.logger, "list drafts", err)
		return
	}
	respondJSON(w, http.StatusOK, drafts)
}

// Create godoc
// @Summary Open create dialog
// @Description Opens a dialog for a new record, optionally seeded with initial fields
// @Tags Drafts
// @Accept json
// @Produce json
// @Param entity path string true "inquiries or purchase-orders"
// @Param request body domain.OpenDraftRequest false "Initial fields"
// @Success 201 {object} domain.DraftDTO
// @Failure 400 {object} domain.ErrorResponse
// @Router /drafts/{entity} [post]
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	draft, err := h.draftService.OpenCreate(r.Context(), draftEntity(r), req.Initial)
	if err != nil {
		handleServiceError(w, h.logger, "open draft", err)
		return
	}
	respondJSON(w, http.StatusCreated, draft)
}

// OpenEdit godoc
// @Summary Open edit dialog
// @Description Loads the record from the ERP and opens a dialog over its copy
// @Tags Drafts
// @Produce json
// @Param entity path string true "inquiries or purchase-orders"
// @Param recordId path string true "Record ID"
// @Success 201 {object} domain.DraftDTO
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Router /drafts/{entity}/edit/{recordId} [post]
func (h *DraftHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	rid, ok := recordID(r, "recordId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	draft, err := h.draftService.OpenEdit(r.Context(), draftEntity(r), rid)
	if err != nil {
		handleServiceError(w, h.logger, "open draft", err)
		return
	}
	respondJSON(w, http.StatusCreated, draft)
}

// Get godoc
// @Summary Get draft
// @Tags Drafts
// @Produce json
// @Param entity path string true "inquiries or purchase-orders"
// @Param draftId path string true "Draft ID"
// @Success 200 {object} domain.DraftDTO
// @Failure 404 {object} domain.ErrorResponse
// @Router /drafts/{entity}/{draftId} [get]
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID")
		return
	}

	draft, err := h.draftService.Get(r.Context(), draftEntity(r), id)
	if err != nil {
		handleServiceError(w, h.logger, "get draft", err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// Patch godoc
// @Summary Change draft fields
// @Description Applies field changes to the draft. Either every change applies or none do.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param entity path string true "inquiries or purchase-orders"
// @Param draftId path string true "Draft ID"
// @Param request body domain.PatchDraftRequest true "Field changes"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /drafts/{entity}/{draftId} [patch]
func (h *DraftHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID")
		return
	}

	var req domain.PatchDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.draftService.Patch(r.Context(), draftEntity(r), id, req.Changes)
	if err != nil {
		handleServiceError(w, h.logger, "update draft", err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// Submit godoc
// @Summary Submit draft
// @Description Validates the draft and sends it to the ERP. A failed submit keeps the draft open.
// @Tags Drafts
// @Produce json
// @Param entity path string true "inquiries or purchase-orders"
// @Param draftId path string true "Draft ID"
// @Success 200 {object} domain.SubmitDraftResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Router /drafts/{entity}/{draftId}/submit [post]
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID")
		return
	}

	result, err := h.draftService.Submit(r.Context(), draftEntity(r), id)
	if err != nil {
		handleServiceError(w, h.logger, "submit draft", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Cancel godoc
// @Summary Cancel draft
// @Description Closes the dialog and discards the draft
// @Tags Drafts
// @Param entity path string true "inquiries or purchase-orders"
// @Param draftId path string true "Draft ID"
// @Success 204
// @Router /drafts/{entity}/{draftId} [delete]
func (h *DraftHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID")
		return
	}

	if err := h.draftService.Cancel(r.Context(), draftEntity(r), id); err != nil {
		handleServiceError(w, h.logger, "cancel draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
