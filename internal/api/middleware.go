// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/metrics"
	"github.com/ManuGH/geoanonymizer/internal/ratelimit"
)

const headerRequestID = "X-Request-ID"

// requestID tags every request with a correlation ID, honoring one supplied
// by the client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// securityHeaders adds the standard hardening headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// recoverer turns panics in downstream handlers into logged 500 responses
// instead of crashing the process.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Error().
					Str("event", "panic.recovered").
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				respondError(w, r, http.StatusInternalServerError, errInternalServer, "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// tracing instruments requests with OpenTelemetry server spans. Health and
// metrics probes are filtered out to keep the trace stream quiet.
func tracing(serviceName string) func(http.Handler) http.Handler {
	if serviceName == "" {
		serviceName = "geoanonymizer"
	}
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithSpanOptions(
				trace.WithAttributes(semconv.ServiceName(serviceName)),
			),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanNameFormatter),
		)
	}
}

func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return true
}

// spanNameFormatter keeps span names to method and path. Query values never
// appear because tokens or column names may ride in them.
func spanNameFormatter(operation string, r *http.Request) string {
	name := operation + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		name += "?"
	}
	return name
}

// observe records request metrics and an access log line, labeled by chi
// route pattern so metric cardinality stays bounded.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		duration := time.Since(start)
		metrics.ObserveHTTPRequest(route, r.Method, status, duration)

		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Info().
			Str("event", "http.request").
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int64(log.FieldDurationMS, duration.Milliseconds()).
			Msg("request handled")

		if strings.HasPrefix(route, "/v1/") {
			s.auditor.APIAccess(ratelimit.GetClientIP(r), r.Method, route, status)
		}
	})
}

// rateLimit enforces the layered limiter for one request class.
func (s *Server) rateLimit(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := ratelimit.GetClientIP(r)
			if !s.limiter.Allow(clientIP, class) {
				log.WithComponentFromContext(r.Context(), "api").Warn().
					Str("event", "ratelimit.exceeded").
					Str("class", class).
					Str("client_ip", clientIP).
					Msg("request rate limited")
				metrics.IncHTTPRejected("rate_limit")
				s.auditor.RateLimitExceeded(clientIP, r.URL.Path)
				w.Header().Set("Retry-After", "1")
				respondError(w, r, http.StatusTooManyRequests, errRateLimitExceeded, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Flood cap in front of auth; the class budgets in rateLimit are tighter.
const (
	floodRequestLimit = 600
	floodWindow       = time.Minute
)

// floodLimit caps per-IP request volume in a sliding window. It runs before
// auth, so unauthenticated spam is bounded too.
func (s *Server) floodLimit(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ratelimit.GetClientIP(r)
			log.WithComponentFromContext(r.Context(), "api").Warn().
				Str("event", "ratelimit.flood").
				Str("client_ip", clientIP).
				Msg("request rate limited")
			metrics.IncHTTPRejected("rate_limit")
			s.auditor.RateLimitExceeded(clientIP, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			respondError(w, r, http.StatusTooManyRequests, errRateLimitExceeded, "")
		}),
	)
}

// maxBody caps the request body at cfg.API.BodyLimit bytes. Reads past the
// cap fail inside the handler, which maps them to 413.
func (s *Server) maxBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.API.BodyLimit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.API.BodyLimit)
		}
		next.ServeHTTP(w, r)
	})
}
