package status

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/localrivet/ankimcp/internal/errortypes"
)

// ErrorResponse represents the structure of error responses sent by the listener
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Common error codes
const (
	ErrorCodeInvalidRequest = "INVALID_REQUEST"
	ErrorCodeInternalError  = "INTERNAL_ERROR"
	ErrorCodeUnavailable    = "UNAVAILABLE"
)

// writeErrorResponse writes a structured error response to the HTTP response writer
func writeErrorResponse(w http.ResponseWriter, status int, code, message string, err error) {
	errResp := ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}

		logErr := errortypes.InternalError(err, fmt.Sprintf("status listener error (%s)", code)).
			WithField("status_code", status).
			WithField("error_code", code)
		errortypes.LogError(nil, logErr)
	}

	writeJSON(w, status, errResp)
}

// writeJSON encodes data as the response body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode status response", "error", err)
	}
}

// handleBadRequest handles 400 Bad Request errors
func handleBadRequest(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusBadRequest, ErrorCodeInvalidRequest, message, err)
}

// handleInternalError handles 500 Internal Server Error errors
func handleInternalError(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusInternalServerError, ErrorCodeInternalError, message, err)
}
