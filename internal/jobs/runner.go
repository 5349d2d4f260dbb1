// SPDX-License-Identifier: MIT

// Package jobs runs the anonymization pipeline: it turns a Request into a
// tracked run with audit, history, metrics and optional PostGIS mirroring
// around the root geoanonymizer stream.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/geoanonymizer"
	"github.com/ManuGH/geoanonymizer/internal/audit"
	"github.com/ManuGH/geoanonymizer/internal/cache"
	"github.com/ManuGH/geoanonymizer/internal/fsutil"
	"github.com/ManuGH/geoanonymizer/internal/history"
	"github.com/ManuGH/geoanonymizer/internal/log"
	"github.com/ManuGH/geoanonymizer/internal/metrics"
	"github.com/ManuGH/geoanonymizer/internal/sink"
	"github.com/ManuGH/geoanonymizer/internal/store"
	"github.com/ManuGH/geoanonymizer/internal/telemetry"
	"github.com/ManuGH/geoanonymizer/spatial"
	"github.com/ManuGH/geoanonymizer/spatial/geofence"
	"github.com/ManuGH/geoanonymizer/spatial/mask"
	"github.com/ManuGH/geoanonymizer/tabular"
)

// ErrInvalidRequest marks failures caused by the request itself: bad
// strategy specs, fence files, column specs or error modes. API handlers
// map it to a client error.
var ErrInvalidRequest = errors.New("invalid run request")

// fenceTTL caps how long a parsed fence is reused. The cache key carries
// mtime and size, so the TTL only matters for same-stat rewrites.
const fenceTTL = time.Minute

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

// RunnerOptions are the long-lived dependencies of a Runner. Any field
// may be nil; a Runner without them still anonymizes.
type RunnerOptions struct {
	Store   store.Store    // consistency store, required for Consistent requests
	History *history.Store // run history, skipped when nil
	Audit   *audit.Logger  // audit trail, defaults to the process logger
	Mirror  *sink.PostGIS  // PostGIS mirror, skipped when nil
}

// Runner executes anonymization runs. All methods are safe for concurrent
// use; the API and the watcher share one instance.
type Runner struct {
	store   store.Store
	history *history.Store
	auditor *audit.Logger
	mirror  *sink.PostGIS
	fences  cache.Cache

	mu      sync.Mutex
	lastRun time.Time
	lastErr string
}

// NewRunner builds a Runner around opts.
func NewRunner(opts RunnerOptions) *Runner {
	auditor := opts.Audit
	if auditor == nil {
		auditor = audit.NewLogger()
	}
	return &Runner{
		store:   opts.Store,
		history: opts.History,
		auditor: auditor,
		mirror:  opts.Mirror,
		fences:  cache.New(),
	}
}

// LastRun reports the finish time of the most recent run and its error
// message, empty after a success. It backs the last_run health check.
func (r *Runner) LastRun() (time.Time, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastErr
}

// Run executes one file-to-file run. Input "-" reads the standard input,
// Output "-" writes the standard output. File outputs are replaced
// atomically: a failed run leaves the previous output untouched. On
// failure the returned result, when non-nil, carries the stats up to it.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	src, err := openInput(req.Input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	target, err := openOutput(req.Output)
	if err != nil {
		return nil, err
	}
	defer target.Abort()

	res, err := r.RunStream(ctx, target, src, req)
	if err != nil {
		return res, err
	}
	if err := target.Commit(); err != nil {
		return res, fmt.Errorf("commit output: %w", err)
	}
	return res, nil
}

// RunStream anonymizes src into dst as one tracked run: parse the
// settings, stream the rows, record the outcome in metrics, audit trail
// and run history. Run adds atomic file handling on top; the API hands
// its response writer straight in here. A run ID already in ctx is kept,
// so callers can announce it before the stream starts.
func (r *Runner) RunStream(ctx context.Context, dst io.Writer, src io.Reader, req Request) (*Result, error) {
	rc, err := r.buildRun(req)
	if err != nil {
		return nil, err
	}

	runID := log.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = log.ContextWithRunID(ctx, runID)
	}
	logger := log.WithComponentFromContext(ctx, "jobs")

	ctx, span := telemetry.Tracer("jobs").Start(ctx, "run")
	defer span.End()

	var batch *sink.Batch
	if r.mirror != nil {
		batch = r.mirror.Begin(runID)
		rc.opts.Masked = func(row *tabular.Row, point spatial.Point) {
			var alt *float64
			if point.HasAlt {
				a := point.Alt
				alt = &a
			}
			batch.Add(int64(row.Index), point.Lat, point.Lon, alt, row.Fields)
		}
	}
	rc.opts.Logger = &logger

	logger.Info().
		Str("event", "run.start").
		Str(log.FieldStrategy, req.Settings.Strategy).
		Str("mode", req.Mode).
		Str(log.FieldInput, req.Input).
		Str(log.FieldOutput, req.Output).
		Msg("starting anonymization run")
	r.auditor.RunStart(req.Actor, runID, req.Settings.Strategy, req.Input)

	started := time.Now()
	stats, runErr := geoanonymizer.Anonymize(ctx, dst, src, rc.opts)
	finished := time.Now()

	res := &Result{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Input:      req.Input,
		Output:     req.Output,
		Stats:      stats,
	}

	if runErr == nil && batch != nil {
		copied, err := batch.Flush(ctx)
		if err != nil {
			// The primary output is already complete; losing the mirror
			// is logged, not fatal.
			logger.Warn().
				Err(err).
				Str("event", "run.mirror_failed").
				Msg("postgis mirror flush failed")
		} else {
			res.Mirrored = copied
		}
	}

	r.finish(ctx, logger, span, req, rc.fencePolicy, res, runErr)
	return res, runErr
}

// runConfig is a parsed, ready-to-stream request.
type runConfig struct {
	opts        geoanonymizer.Options
	fencePolicy string // canonical policy name, empty without a fence
}

// buildRun translates the request into processor options. Separated from
// RunStream for easier testing.
func (r *Runner) buildRun(req Request) (runConfig, error) {
	s := req.Settings

	strategy, err := mask.Parse(s.Strategy)
	if err != nil {
		return runConfig{}, invalid(fmt.Errorf("parse strategy: %w", err))
	}
	if s.Seed != 0 {
		strategy = mask.WithRand(strategy, rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed))))
	}
	if req.Consistent {
		if r.store == nil {
			return runConfig{}, invalid(errors.New("consistent masking requires a store"))
		}
		strategy = mask.Consistent{Inner: strategy, Store: r.store}
	}

	onError, err := geoanonymizer.ParseErrorMode(s.OnError)
	if err != nil {
		return runConfig{}, invalid(err)
	}

	rc := runConfig{opts: geoanonymizer.Options{
		Strategy:  strategy,
		LatColumn: s.LatColumn,
		LonColumn: s.LonColumn,
		AltColumn: s.AltColumn,
		OnError:   onError,
		Validate:  s.Validate,
		Decimals:  s.Decimals,
		NoHeader:  req.NoHeader,
	}}

	if s.FencePath != "" {
		policy, err := geofence.ParsePolicy(s.FencePolicy)
		if err != nil {
			return runConfig{}, invalid(err)
		}
		fence, err := r.loadFence(policy, s.FencePath)
		if err != nil {
			return runConfig{}, invalid(err)
		}
		rc.opts.Fence = fence
		rc.fencePolicy = policy.String()
	}
	return rc, nil
}

// loadFence parses a fence file, reusing the parsed form while the file
// stays unchanged. Fences are immutable after loading, so concurrent runs
// share one.
func (r *Runner) loadFence(policy geofence.Policy, path string) (*geofence.Fence, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%s|%d|%d", path, policy, info.ModTime().UnixNano(), info.Size())
	if v, ok := r.fences.Get(key); ok {
		return v.(*geofence.Fence), nil
	}
	fence, err := geofence.Load(policy, path)
	if err != nil {
		return nil, err
	}
	r.fences.Set(key, fence, fenceTTL)
	return fence, nil
}

// finish records one run everywhere it is accounted for: metrics, the
// trace span, the run history, the audit trail and the last-run state.
func (r *Runner) finish(ctx context.Context, logger zerolog.Logger, span trace.Span, req Request, fencePolicy string, res *Result, runErr error) {
	stats := res.Stats
	duration := res.Duration()

	metrics.RecordRun(req.Mode, runErr, duration)
	metrics.RecordRowCounts(stats.Masked, stats.Kept, stats.Dropped, stats.Errors)
	metrics.IncStrategyApplied(req.Settings.Strategy)
	if fencePolicy != "" {
		metrics.RecordFenceDecisions(fencePolicy, stats.Masked, stats.FenceKept, stats.FenceDropped)
	}

	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}
	span.SetAttributes(telemetry.RunAttributes(res.RunID, req.Mode, req.Settings.Strategy, outcome, duration.Milliseconds())...)
	span.SetAttributes(telemetry.RowAttributes(int64(stats.Rows), int64(stats.Masked), int64(stats.Dropped), int64(stats.Errors))...)
	if fencePolicy != "" {
		span.SetAttributes(telemetry.FenceAttributes(fencePolicy)...)
	}
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}

	if r.history != nil {
		rec := history.Run{
			ID:         res.RunID,
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			Mode:       req.Mode,
			Strategy:   req.Settings.Strategy,
			Input:      req.Input,
			Output:     req.Output,
			Rows:       stats.Rows,
			Masked:     stats.Masked,
			Dropped:    stats.Dropped,
			Failed:     stats.Errors,
			Outcome:    outcome,
		}
		if runErr != nil {
			rec.Error = runErr.Error()
		}
		if err := r.history.Record(ctx, rec); err != nil {
			logger.Warn().
				Err(err).
				Str("event", "run.history_failed").
				Msg("recording run in history failed")
		}
	}

	if runErr != nil {
		r.auditor.RunError(req.Actor, res.RunID, runErr.Error())
		logger.Error().
			Err(runErr).
			Str("event", "run.failed").
			Int(log.FieldRows, stats.Rows).
			Int64(log.FieldDurationMS, duration.Milliseconds()).
			Msg("anonymization run failed")
	} else {
		r.auditor.RunComplete(req.Actor, res.RunID, int64(stats.Rows), int64(stats.Masked), duration.Milliseconds())
		logger.Info().
			Str("event", "run.success").
			Int(log.FieldRows, stats.Rows).
			Int(log.FieldMasked, stats.Masked).
			Int(log.FieldDropped, stats.Dropped).
			Int(log.FieldFailed, stats.Errors).
			Int64(log.FieldDurationMS, duration.Milliseconds()).
			Msg("anonymization run completed")
	}

	r.mu.Lock()
	r.lastRun = res.FinishedAt
	r.lastErr = ""
	if runErr != nil {
		r.lastErr = runErr.Error()
	}
	r.mu.Unlock()
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if err := fsutil.IsRegularFile(path); err != nil {
		return nil, invalid(err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func openOutput(path string) (sink.Target, error) {
	if path == "" || path == "-" {
		return sink.NewStream(os.Stdout), nil
	}
	return sink.NewFile(path)
}
