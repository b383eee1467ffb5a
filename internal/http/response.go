package http

import (
	"encoding/json"
	"net/http"

	"bilancio/internal/log"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Error("Failed to write JSON response", log.FieldError, err)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{Message: "validation failed", Errors: fields})
}

func writeOK(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
