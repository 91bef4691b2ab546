// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"
)

// Handler serves the unauthenticated root endpoints.
type Handler struct {
	privacyPolicyURL string
}

// New creates a new Handler instance.
func New(privacyPolicyURL string) *Handler {
	return &Handler{privacyPolicyURL: privacyPolicyURL}
}

// Hello is the service root endpoint.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "ArkWatch API - monitor URLs for changes",
		"version": "1.0.0",
		"docs":    "/api/v1",
	}
	writeJSON(w, http.StatusOK, response)
}

// Privacy returns the privacy policy location.
// GET /privacy
func (h *Handler) Privacy(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"privacy_policy": h.privacyPolicyURL,
		"message":        "ArkWatch stores only the data needed to run your watches. Export or erase it any time via /api/v1/auth/account.",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"error": "resource not found",
	}
	writeJSON(w, http.StatusNotFound, response)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"error": "method not allowed",
	}
	writeJSON(w, http.StatusMethodNotAllowed, response)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = err
	}
}
