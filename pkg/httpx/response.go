package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code. It sets
// Content-Type and no-store caching headers, responses here tend to carry
// tokens.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError writes a structured error body in the shape the token
// endpoints use everywhere: {"error": ..., "error_description": ...}.
func WriteError(w http.ResponseWriter, code int, kind, description string) {
	WriteJSON(w, code, map[string]string{
		"error":             kind,
		"error_description": description,
	})
}
