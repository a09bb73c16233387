package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/auth"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/payments"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeExpiredToken  = "EXPIRED_TOKEN"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeNoSlots       = "NO_SLOTS_AVAILABLE"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
)

// Convenience functions for common errors
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

// TokenError maps a credential failure to 401.
func TokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		WriteError(w, http.StatusUnauthorized, "unauthorized access", CodeExpiredToken)
	case errors.Is(err, auth.ErrInvalidToken):
		WriteError(w, http.StatusUnauthorized, "unauthorized access", CodeInvalidToken)
	default:
		Unauthorized(w, "unauthorized access")
	}
}

// FromError maps a service error onto the HTTP error taxonomy. Unclassified
// errors are logged and answered with a generic 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		WriteErrorWithDetails(w, http.StatusBadRequest, "invalid id", CodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrValidation):
		WriteErrorWithDetails(w, http.StatusBadRequest, "invalid input", CodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "not found")
	case errors.Is(err, domain.ErrForbidden):
		Forbidden(w, "forbidden access")
	case errors.Is(err, domain.ErrNoSlotsAvailable):
		WriteError(w, http.StatusConflict, "no slots available", CodeNoSlots)
	case errors.Is(err, domain.ErrConflict):
		Conflict(w, "conflict")
	case errors.Is(err, payments.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "payment gateway unavailable", CodeUnavailable)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		TokenError(w, err)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		InternalError(w, "internal server error")
	}
}
