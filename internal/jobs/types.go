// SPDX-License-Identifier: MIT

package jobs

import (
	"time"

	"github.com/ManuGH/geoanonymizer"
	"github.com/ManuGH/geoanonymizer/internal/config"
)

// Request describes one anonymization run.
type Request struct {
	// Input and Output are file paths; "-" or empty selects the standard
	// streams.
	Input  string
	Output string

	// Mode tags the origin of the run: cli, api, watch or batch.
	Mode string

	// Actor identifies who triggered the run, for the audit trail.
	Actor string

	// Settings are the fully resolved run settings. Callers merge config
	// defaults with their own overrides before submitting.
	Settings config.RunSettings

	// NoHeader treats the first input record as data.
	NoHeader bool

	// Consistent routes the strategy through the runner's store so equal
	// inputs keep masking to equal outputs across runs.
	Consistent bool
}

// Result is the outcome of one finished run.
type Result struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Input      string              `json:"input"`
	Output     string              `json:"output"`
	Stats      geoanonymizer.Stats `json:"stats"`

	// Mirrored is the number of rows copied to the PostGIS sink, zero
	// when no mirror is configured.
	Mirrored int64 `json:"mirrored,omitempty"`
}

// Duration is the wall-clock time the run took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
