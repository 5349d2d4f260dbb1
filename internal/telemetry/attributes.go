// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Run attributes
	RunIDKey       = "run.id"
	RunModeKey     = "run.mode"
	RunStrategyKey = "run.strategy"
	RunOutcomeKey  = "run.outcome"
	RunDurationKey = "run.duration_ms"

	// Row accounting attributes
	RowsTotalKey   = "rows.total"
	RowsMaskedKey  = "rows.masked"
	RowsDroppedKey = "rows.dropped"
	RowsFailedKey  = "rows.failed"

	// Fence attributes
	FencePolicyKey = "fence.policy"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RunAttributes creates span attributes describing an anonymization run.
func RunAttributes(runID, mode, strategy, outcome string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RunIDKey, runID),
		attribute.String(RunModeKey, mode),
		attribute.String(RunStrategyKey, strategy),
		attribute.String(RunOutcomeKey, outcome),
		attribute.Int64(RunDurationKey, durationMS),
	}
}

// RowAttributes creates span attributes for the row accounting of a run.
func RowAttributes(total, masked, dropped, failed int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(RowsTotalKey, total),
		attribute.Int64(RowsMaskedKey, masked),
		attribute.Int64(RowsDroppedKey, dropped),
		attribute.Int64(RowsFailedKey, failed),
	}
}

// FenceAttributes creates span attributes for geofence filtering.
func FenceAttributes(policy string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if policy != "" {
		attrs = append(attrs, attribute.String(FencePolicyKey, policy))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
