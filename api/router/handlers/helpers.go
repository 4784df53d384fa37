package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"replicate/logger"
	"replicate/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

// decodeJSONBody decodes the request body into dst and rejects trailing data.
func decodeJSONBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request payload: unexpected data after JSON object")
	}
	return nil
}

// NotFoundHandler logs and rejects requests no route matched.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	logger.Error("API catch-all: unhandled route %s %s", r.Method, r.URL.Path)
	writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", r.Method, r.URL.Path))
}
