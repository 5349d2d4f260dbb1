// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ManuGH/geoanonymizer/internal/log"
)

// apiError pairs a stable machine-readable code with a human-readable
// message.
type apiError struct {
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

var (
	errUnauthorized      = &apiError{Code: "UNAUTHORIZED", Message: "Authentication required"}
	errInvalidInput      = &apiError{Code: "INVALID_INPUT", Message: "Invalid input parameters"}
	errRateLimitExceeded = &apiError{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded - too many requests"}
	errBodyTooLarge      = &apiError{Code: "BODY_TOO_LARGE", Message: "Request body exceeds the configured limit"}
	errRunFailed         = &apiError{Code: "RUN_FAILED", Message: "Anonymization run failed"}
	errInternalServer    = &apiError{Code: "INTERNAL_SERVER_ERROR", Message: "An internal error occurred"}
)

// respondError writes apiErr as an RFC 7807 problem document. detail may
// add the specific failure; it must not leak internals.
func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *apiError, detail string) {
	problemType := "error/" + strings.ToLower(apiErr.Code)
	writeProblem(w, r, status, problemType, apiErr.Message, apiErr.Code, detail)
}

// writeProblem emits an RFC 7807 response body. The request ID is carried
// both in the body and the response header so clients and logs correlate.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(headerRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res["requestId"] = reqID
		w.Header().Set(headerRequestID, reqID)
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance := r.URL.EscapedPath(); instance != "" {
		res["instance"] = instance
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.WithComponentFromContext(r.Context(), "api").Error().
			Err(err).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}

// writeJSON writes v with the given status code. Encode failures after the
// header is sent can only be logged.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithComponentFromContext(r.Context(), "api").Error().
			Err(err).
			Int("status", code).
			Msg("failed to encode JSON response")
	}
}
