// Package shared centralizes JSON response writing so every handler returns
// the same error envelope.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "distrack/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a domain error to its HTTP status and envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorDetails(w, err, nil)
}

// WriteErrorDetails is WriteError with an extra machine-readable payload,
// used when a blocked transition must tell the caller what is wrong.
func WriteErrorDetails(w http.ResponseWriter, err error, details any) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
		Details: details,
	})
}
