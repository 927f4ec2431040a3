package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/filter"
	"github.com/straye-as/erp-desk/internal/form"
	"github.com/straye-as/erp-desk/internal/service"
	"go.uber.org/zap"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errors := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fieldName := toJSONFieldName(fe.Field())
			errors[fieldName] = formatValidationError(fe)
		}
	}
	respondFieldErrors(w, errors)
}

// respondFieldErrors sends a validation error response for a field map
func respondFieldErrors(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fields,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s", fe.Param())
	case "uuid":
		return "Must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusBadGateway:
		return domain.ErrorTypeUpstream
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps service errors to HTTP responses. action names the
// failed operation in the log line.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, action string, err error) {
	var verr *domain.ValidationError
	var nferr *domain.NotFoundError
	var nerr *domain.NetworkError

	switch {
	case errors.As(err, &verr):
		respondFieldErrors(w, verr.Fields)
	case errors.As(err, &nferr):
		respondWithError(w, http.StatusNotFound, nferr.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, filter.ErrUnknownTab), errors.Is(err, filter.ErrUnknownField),
		errors.Is(err, service.ErrInvalidChange), errors.Is(err, service.ErrUnknownEntity):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, form.ErrSubmitInFlight):
		respondWithError(w, http.StatusConflict, "A submit is already in progress for this draft")
	case errors.Is(err, form.ErrCancelled):
		respondWithError(w, http.StatusConflict, "The dialog was cancelled")
	case errors.Is(err, form.ErrNotOpen), errors.Is(err, form.ErrAlreadyOpen):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &nerr):
		logger.Warn("upstream request failed", zap.String("action", action), zap.Error(err))
		respondWithError(w, http.StatusBadGateway, "The ERP service could not complete the request")
	case errors.Is(err, domain.ErrUpstream):
		logger.Warn("upstream request failed", zap.String("action", action), zap.Error(err))
		respondWithError(w, http.StatusBadGateway, "The ERP service could not complete the request")
	default:
		logger.Error("request failed", zap.String("action", action), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", action))
	}
}

// recordID reads a non-empty id path parameter
func recordID(r *http.Request, param string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, param))
	return id, id != ""
}

// draftID reads a UUID path parameter
func draftID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "draftId"))
}
