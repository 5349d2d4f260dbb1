// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ManuGH/geoanonymizer/internal/ratelimit"
)

func TestRateLimitExceeded(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{
		GlobalRate:  1000,
		GlobalBurst: 1000,
		PerIPRate:   1000,
		PerIPBurst:  1000,
		ClassRates:  map[string]rate.Limit{ratelimit.ClassRead: 1},
		ClassBurst:  map[string]int{ratelimit.ClassRead: 1},
	})

	auditor := &recordingAuditor{}
	s := newTestServer(t, testConfig(t), Options{Limiter: limiter, Auditor: auditor})
	handler := s.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/strategies", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/strategies", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	problem := decodeProblem(t, rec)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", problem["code"])
	assert.Len(t, auditor.ratelimit, 1)
}

func TestFloodLimit(t *testing.T) {
	s := newTestServer(t, testConfig(t), Options{})
	h := s.floodLimit(3, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/strategies", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/strategies", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	problem := decodeProblem(t, rec)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", problem["code"])
}

func TestRateLimiterFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.RPS = 100
	cfg.API.RateLimit.Burst = 200

	s := newTestServer(t, cfg, Options{})
	assert.NotNil(t, s.limiter)

	cfg.API.RateLimit.Enabled = false
	s = newTestServer(t, cfg, Options{})
	assert.Nil(t, s.limiter)
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.BodyLimit = 16

	s := newTestServer(t, cfg, Options{})
	handler := s.Handler()

	// The first line alone exceeds the cap, so the limit trips before any
	// output row could stream.
	body := strings.NewReader(strings.Repeat("x", 64) + ",lat,lon\n1,48.1,16.2\n")
	req := authedRequest(http.MethodPost, "/v1/anonymize", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	problem := decodeProblem(t, rec)
	assert.Equal(t, "BODY_TOO_LARGE", problem["code"])
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testConfig(t), Options{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	s := newTestServer(t, testConfig(t), Options{})
	handler := s.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "client-supplied-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied-id", rec.Header().Get(headerRequestID))
}

func TestRecovererTurnsPanicsInto500(t *testing.T) {
	panicky := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/strategies", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", problem["code"])
}
