// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldRunID         = "run_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStrategy  = "strategy"
	FieldStore     = "store"

	// Run accounting fields
	FieldRows       = "rows"
	FieldMasked     = "masked"
	FieldDropped    = "dropped"
	FieldFailed     = "failed"
	FieldDurationMS = "duration_ms"

	// Path / address fields
	FieldInput  = "input"
	FieldOutput = "output"
	FieldPath   = "path"
	FieldListen = "listen"
)
