// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/jobs"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/metrics"
	"github.com/ManuGH/geoanonymizer/internal/ratelimit"
	"github.com/ManuGH/geoanonymizer/spatial/mask"
)

const headerRunID = "X-Run-ID"

// handleAnonymize streams the CSV request body through one anonymization
// run and streams the anonymized CSV back. Settings come from the server
// config with query parameter overrides. The run ID is announced in the
// X-Run-ID header before the first row.
func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	req, err := s.requestFromQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, errInvalidInput, err.Error())
		return
	}

	runID := uuid.NewString()
	ctx := log.ContextWithRunID(r.Context(), runID)

	w.Header().Set(headerRunID, runID)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")

	// Output rows stream out while input rows stream in, so once the first
	// byte is written the status code is spoken for. Failures before that
	// still get a full problem response.
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	_, err = s.runner.RunStream(ctx, ww, r.Body, req)
	if err == nil {
		return
	}

	if ww.BytesWritten() > 0 {
		logger := log.WithComponentFromContext(ctx, "api")
		logger.Error().
			Err(err).
			Str("event", "anonymize.truncated").
			Msg("run failed after streaming began, response truncated")
		return
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, jobs.ErrInvalidRequest):
		respondError(ww, r, http.StatusBadRequest, errInvalidInput, err.Error())
	case errors.As(err, &maxBytesErr):
		metrics.IncHTTPRejected("body_limit")
		respondError(ww, r, http.StatusRequestEntityTooLarge, errBodyTooLarge, "")
	default:
		respondError(ww, r, http.StatusUnprocessableEntity, errRunFailed, err.Error())
	}
}

// requestFromQuery merges the configured run defaults with the request's
// query parameter overrides.
func (s *Server) requestFromQuery(r *http.Request) (jobs.Request, error) {
	settings := s.cfg.Run
	q := r.URL.Query()

	if v := q.Get("strategy"); v != "" {
		settings.Strategy = v
	}
	if v := q.Get("lat"); v != "" {
		settings.LatColumn = v
	}
	if v := q.Get("lon"); v != "" {
		settings.LonColumn = v
	}
	if v := q.Get("alt"); v != "" {
		settings.AltColumn = v
	}
	if v := q.Get("decimals"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return jobs.Request{}, fmt.Errorf("decimals: %w", err)
		}
		settings.Decimals = n
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return jobs.Request{}, fmt.Errorf("seed: %w", err)
		}
		settings.Seed = n
	}
	if v := q.Get("on-error"); v != "" {
		settings.OnError = v
	}
	if v := q.Get("fence-policy"); v != "" {
		settings.FencePolicy = v
	}

	req := jobs.Request{
		Input:    "-",
		Output:   "-",
		Mode:     "api",
		Actor:    ratelimit.GetClientIP(r),
		Settings: settings,
	}

	if v := q.Get("no-header"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return jobs.Request{}, fmt.Errorf("no-header: %w", err)
		}
		req.NoHeader = b
	}
	if v := q.Get("consistent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return jobs.Request{}, fmt.Errorf("consistent: %w", err)
		}
		req.Consistent = b
	}
	return req, nil
}

// handleStrategies lists every strategy form the anonymizer accepts.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"strategies": mask.Specs()})
}

// handleRuns returns the most recent runs, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, errInvalidInput, "limit must be a positive integer")
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	runs := []history.Run{}
	if s.history != nil {
		recent, err := s.history.Recent(r.Context(), limit)
		if err != nil {
			log.WithComponentFromContext(r.Context(), "api").Error().
				Err(err).
				Str("event", "runs.query_failed").
				Msg("querying run history failed")
			respondError(w, r, http.StatusInternalServerError, errInternalServer, "")
			return
		}
		if recent != nil {
			runs = recent
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}
