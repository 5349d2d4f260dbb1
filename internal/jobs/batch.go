// SPDX-License-Identifier: MIT

package jobs

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/geoanonymizer/internal/log"
)

// defaultBatchLimit bounds parallel runs when the caller does not.
const defaultBatchLimit = 4

// BatchResult pairs a request with its outcome.
type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// Batch executes the requests with at most limit running at once. Every
// request runs to completion regardless of other failures; canceling ctx
// stops the in-flight runs. Results keep the order of the requests.
func (r *Runner) Batch(ctx context.Context, reqs []Request, limit int) []BatchResult {
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	logger := log.WithComponentFromContext(ctx, "jobs")
	logger.Info().
		Str("event", "batch.start").
		Int("inputs", len(reqs)).
		Int("limit", limit).
		Msg("starting batch run")

	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := r.Run(ctx, req)
			results[i] = BatchResult{Request: req, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, br := range results {
		if br.Err != nil {
			failed++
		}
	}
	logger.Info().
		Str("event", "batch.done").
		Int("inputs", len(reqs)).
		Int(log.FieldFailed, failed).
		Msg("batch run finished")
	return results
}
