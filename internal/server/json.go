package server

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error kinds carried in the "error" field.
const (
	kindValidation      = "validation"
	kindUnauthorized    = "unauthorized"
	kindForbidden       = "forbidden"
	kindNotFound        = "not_found"
	kindConflict        = "conflict"
	kindRateLimited     = "rate_limited"
	kindOracleFailure   = "oracle_failure"
	kindProviderFailure = "provider_failure"
	kindSearchExhausted = "search_exhausted"
	kindInternal        = "internal"
)

// ErrorResponse is the shape of every error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: msg})
}
