package web

// errors.go provides unified error response handling for the web layer.
//
// All API responses are JSON. Errors are logged with full technical
// details server-side (correlated by chi request ID) and returned to
// clients as a sanitized message plus a stable machine-readable code.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/logging"
)

// ErrorResponse is the JSON body for every API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Stable error codes returned to clients.
const (
	codeBadRequest  = "BAD_REQUEST"
	codeParseFailed = "PARSE_FAILED"
	codeNotFound    = "NOT_FOUND"
	codeTooLarge    = "PAYLOAD_TOO_LARGE"
	codeInternal    = "INTERNAL"
	codeUnavailable = "UNAVAILABLE"
	codeRateLimited = "RATE_LIMITED"
)

// respondError logs the technical error and writes the sanitized JSON
// error body. The message must already be safe to show to a client;
// internal details belong in err only.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	logger.Error("request error", attrs...)

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes v as the JSON response body with the given status.
// Encoding errors are logged; headers are already sent at that point.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; record the failure for debugging.
		slog.Error("json encode error", "error", err)
	}
}
