package handler

import (
	"net/http"

	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/service"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for the HR user directory
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param search query string false "Free text search"
// @Param employment_status query string false "Employment status"
// @Param tab query string false "Tab name"
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.userService.List(r.Context(), r.URL.Query())
	if err != nil {
		handleServiceError(w, h.logger, "list users", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.UserRecord
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "get user", err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// meResponse is the caller's application context
type meResponse struct {
	UserID      string     `json:"userId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Email       string     `json:"email,omitempty"`
	Roles       []string   `json:"roles"`
	IsAdmin     bool       `json:"isAdmin"`
	Anonymous   bool       `json:"anonymous"`
	Theme       auth.Theme `json:"theme"`
	SessionID   string     `json:"sessionId"`
}

// Me godoc
// @Summary Current context
// @Description Returns the caller's user, theme and session
// @Tags Users
// @Produce json
// @Success 200 {object} meResponse
// @Router /me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	app, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No application context")
		return
	}
	resp := meResponse{
		Roles:     []string{},
		Anonymous: app.Anonymous(),
		Theme:     app.Theme,
		SessionID: app.SessionID,
	}
	if !app.Anonymous() {
		resp.UserID = app.User.UserID
		resp.DisplayName = app.User.DisplayName
		resp.Email = app.User.Email
		resp.IsAdmin = app.User.IsAdministrator()
		if app.User.Roles != nil {
			resp.Roles = app.User.Roles
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
