package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/provider"
	"github.com/ppiankov/ipintel/internal/validate"
)

const (
	labelError      = "Error"
	labelRateLimit  = "Rate Limit Error"
	labelValidation = "Validation Error"

	maskedMessage = "Service temporarily unavailable"
)

// writeJSON sends data with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError sends the standard error body
func writeError(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:      label,
		Message:    message,
		StatusCode: status,
	})
}

// errorStatus maps a lookup error to the HTTP status, label and message sent
// to the client. Authentication failures are masked so key problems are
// never exposed.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, validate.ErrEmpty):
		return http.StatusBadRequest, labelValidation, validate.ErrEmpty.Error()
	case errors.Is(err, validate.ErrInvalidIP):
		return http.StatusBadRequest, labelValidation, validate.InvalidIPMessage
	}

	var pe *provider.Error
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError, labelError, "Internal server error"
	}

	switch pe.Kind {
	case provider.KindRateLimited:
		return http.StatusTooManyRequests, labelRateLimit, pe.Message
	case provider.KindAuthFailed:
		return http.StatusInternalServerError, labelError, maskedMessage
	case provider.KindBadRequest:
		return http.StatusBadRequest, labelError, pe.Message
	case provider.KindProviderUnavailable, provider.KindTimeout:
		return http.StatusServiceUnavailable, labelError, pe.Message
	default:
		return http.StatusInternalServerError, labelError, pe.Message
	}
}
