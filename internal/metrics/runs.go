// SPDX-License-Identifier: MIT
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_runs_total",
		Help: "Total number of anonymization runs by mode and outcome",
	}, []string{"mode", "outcome"}) // mode=cli|api|watch|batch, outcome=success|failure

	runDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoanonymizer_run_duration_seconds",
		Help:    "Wall-clock duration of anonymization runs",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"mode"})

	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_rows_total",
		Help: "Total rows handled across runs by result",
	}, []string{"result"}) // result=masked|kept|dropped|failed

	strategyAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_strategy_applied_total",
		Help: "Runs per strategy kind",
	}, []string{"strategy"})

	fenceDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_fence_decisions_total",
		Help: "Geofence containment decisions by policy and resulting action",
	}, []string{"policy", "side"}) // side=masked|kept|dropped

	configValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoanonymizer_config_validation_errors_total",
		Help: "Total number of configuration validation errors",
	})
)

// RecordRun records one finished run.
func RecordRun(mode string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m := normalizeModeLabel(mode)
	runsTotal.WithLabelValues(m, outcome).Inc()
	runDurationSeconds.WithLabelValues(m).Observe(duration.Seconds())
}

// RecordRowCounts adds one run's row accounting to the totals.
func RecordRowCounts(masked, kept, dropped, failed int) {
	if masked > 0 {
		rowsTotal.WithLabelValues("masked").Add(float64(masked))
	}
	if kept > 0 {
		rowsTotal.WithLabelValues("kept").Add(float64(kept))
	}
	if dropped > 0 {
		rowsTotal.WithLabelValues("dropped").Add(float64(dropped))
	}
	if failed > 0 {
		rowsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// IncStrategyApplied counts a run of the given strategy spec. The label is
// the strategy kind, not the full spec, to keep cardinality bounded.
func IncStrategyApplied(spec string) {
	strategyAppliedTotal.WithLabelValues(normalizeStrategyLabel(spec)).Inc()
}

// RecordFenceDecisions adds one run's fence outcomes. Callers only record
// when a fence was actually consulted, so an unfenced run leaves the
// counters untouched.
func RecordFenceDecisions(policy string, masked, kept, dropped int) {
	if masked > 0 {
		fenceDecisionsTotal.WithLabelValues(policy, "masked").Add(float64(masked))
	}
	if kept > 0 {
		fenceDecisionsTotal.WithLabelValues(policy, "kept").Add(float64(kept))
	}
	if dropped > 0 {
		fenceDecisionsTotal.WithLabelValues(policy, "dropped").Add(float64(dropped))
	}
}

func IncConfigValidationError() { configValidationErrors.Inc() }

func normalizeModeLabel(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "cli", "api", "watch", "batch":
		return strings.ToLower(strings.TrimSpace(mode))
	default:
		return "unknown"
	}
}

func normalizeStrategyLabel(spec string) string {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if strings.Contains(spec, "+") {
		return "chain"
	}
	name, _, _ := strings.Cut(spec, ":")
	switch name {
	case "", "none", "identity":
		return "none"
	case "round", "offset", "circle", "sphere", "within-circle", "within-sphere",
		"donut", "sphere-donut", "gauss", "sphere-gauss", "bimodal",
		"sphere-bimodal", "geohash", "cell":
		return name
	default:
		return "unknown"
	}
}
