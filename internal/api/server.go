// SPDX-License-Identifier: MIT

// Package api serves the anonymization HTTP API: health and metrics on the
// root, and anonymize/strategies/runs under /v1 behind bearer auth.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"
	xrate "golang.org/x/time/rate"

	"github.com/ManuGH/geoanonymizer/internal/audit"
	"github.com/ManuGH/geoanonymizer/internal/config"
	"github.com/ManuGH/geoanonymizer/internal/health"
	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/jobs"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/ratelimit"
)

// Auditor receives security-relevant API events.
type Auditor interface {
	AuthSuccess(remoteAddr, endpoint string)
	AuthFailure(remoteAddr, endpoint, reason string)
	AuthMissing(remoteAddr, endpoint string)
	RateLimitExceeded(remoteAddr, endpoint string)
	APIAccess(remoteAddr, method, endpoint string, statusCode int)
}

// Options carries the server's collaborators. Every field may be nil; the
// constructor fills in working defaults.
type Options struct {
	Runner  *jobs.Runner
	History *history.Store
	Health  *health.Manager
	Auditor Auditor
	Limiter *ratelimit.Limiter
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.AppConfig
	runner    *jobs.Runner
	history   *history.Store
	health    *health.Manager
	auditor   Auditor
	limiter   *ratelimit.Limiter
	startTime time.Time

	httpServer *http.Server
}

// New assembles the API server from cfg and its collaborators.
func New(cfg config.AppConfig, opts Options) *Server {
	s := &Server{
		cfg:       cfg,
		runner:    opts.Runner,
		history:   opts.History,
		health:    opts.Health,
		auditor:   opts.Auditor,
		limiter:   opts.Limiter,
		startTime: time.Now(),
	}
	if s.runner == nil {
		s.runner = jobs.NewRunner(jobs.RunnerOptions{})
	}
	if s.health == nil {
		s.health = health.NewManager(cfg.Version)
	}
	if s.auditor == nil {
		s.auditor = audit.NewLogger()
	}
	if s.limiter == nil && cfg.API.RateLimit.Enabled {
		s.limiter = limiterFromConfig(cfg.API.RateLimit)
	}
	return s
}

// limiterFromConfig scales the default limiter so the configured global
// budget stays the ceiling for the per-class splits.
func limiterFromConfig(rl config.RateLimitSettings) *ratelimit.Limiter {
	c := ratelimit.DefaultConfig()
	if rl.RPS > 0 {
		c.GlobalRate = xrate.Limit(rl.RPS)
	}
	if rl.Burst > 0 {
		c.GlobalBurst = rl.Burst
	}
	return ratelimit.New(c)
}

// Handler builds the full route tree with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Recoverer first so every later panic turns into a 500, request IDs
	// next so every later log line can be correlated.
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(securityHeaders)
	r.Use(tracing(s.cfg.LogService))
	r.Use(s.observe)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.floodLimit(floodRequestLimit, floodWindow))
		}
		r.Use(s.requireAuth)

		r.With(s.rateLimit(ratelimit.ClassAnonymize), s.maxBody).
			Post("/anonymize", s.handleAnonymize)
		r.With(s.rateLimit(ratelimit.ClassRead)).
			Get("/strategies", s.handleStrategies)
		r.With(s.rateLimit(ratelimit.ClassRead)).
			Get("/runs", s.handleRuns)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains it.
// The listener caps concurrent connections at cfg.API.MaxConns.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.API.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.API.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.API.MaxConns)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger := log.WithComponent("api")
	logger.Info().
		Str("event", "api.start").
		Str("addr", ln.Addr().String()).
		Bool("auth", s.cfg.API.Token != "").
		Msg("✓ api server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api server shutdown error")
			return err
		}
		logger.Info().Str("event", "api.stop").Msg("api server stopped")
		return nil
	}
}
