// SPDX-License-Identifier: MIT

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/metrics"
	"github.com/ManuGH/geoanonymizer/internal/ratelimit"
)

// extractToken reads the bearer token from the Authorization header, with
// X-API-Token as fallback. Query parameters are never consulted so tokens
// stay out of access logs and traces.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return r.Header.Get("X-API-Token")
}

// authorizeToken compares tokens in constant time. Empty tokens never
// authorize.
func authorizeToken(got, expected string) bool {
	if strings.TrimSpace(expected) == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// requireAuth enforces the configured API token on everything under /v1.
// An empty token fails closed unless anonymous access was switched on
// explicitly.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.API.Token

		if token == "" {
			if s.cfg.API.Anonymous {
				next.ServeHTTP(w, r)
				return
			}
			log.FromContext(r.Context()).Error().
				Str("event", "auth.fail_closed").
				Msg("GEOANON_API_TOKEN not set and GEOANON_API_ANONYMOUS!=true, denying access")
			metrics.IncHTTPRejected("auth")
			respondError(w, r, http.StatusUnauthorized, errUnauthorized, "")
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")
		remote := ratelimit.GetClientIP(r)

		got := extractToken(r)
		if got == "" {
			logger.Warn().Str("event", "auth.missing_header").Msg("authorization header missing")
			metrics.IncHTTPRejected("auth")
			s.auditor.AuthMissing(remote, r.URL.Path)
			respondError(w, r, http.StatusUnauthorized, errUnauthorized, "")
			return
		}

		if !authorizeToken(got, token) {
			logger.Warn().Str("event", "auth.invalid_token").Msg("invalid api token")
			metrics.IncHTTPRejected("auth")
			s.auditor.AuthFailure(remote, r.URL.Path, "invalid token")
			respondError(w, r, http.StatusUnauthorized, errUnauthorized, "")
			return
		}

		s.auditor.AuthSuccess(remote, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
