// Package utils holds the JSON response helpers shared by the HTTP handlers.
package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorBody is the wire shape every handler uses for failures.
type errorBody struct {
	Error string `json:"error"`
}

// RespondJSON writes payload as the JSON response body with the given
// status. The status line is already on the wire if encoding fails, so the
// failure can only be logged, not reported to the client.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] encode response failed: %v", err)
	}
}

// RespondError writes the shared error body with the given status.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorBody{Error: message})
}

// RespondAccepted writes the empty 202 acknowledgment the avatar platform
// expects from skill lifecycle endpoints.
func RespondAccepted(w http.ResponseWriter) {
	RespondJSON(w, http.StatusAccepted, struct{}{})
}
