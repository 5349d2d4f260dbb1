// SPDX-License-Identifier: MIT

// Package audit provides structured audit logging for security-sensitive operations.
// It follows the WHO/WHAT/WHEN pattern for compliance and forensics.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/geoanonymizer/internal/log"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Run events
	EventRunStart   EventType = "run.start"
	EventRunSuccess EventType = "run.success"
	EventRunError   EventType = "run.error"

	// Watch events
	EventWatchFile EventType = "watch.file"

	// Authentication events
	EventAuthSuccess EventType = "auth.success"
	EventAuthFailure EventType = "auth.failure"
	EventAuthMissing EventType = "auth.missing"

	// API access events
	EventAPIAccess    EventType = "api.access"
	EventAPIForbidden EventType = "api.forbidden"
	EventAPIRateLimit EventType = "api.ratelimit"
)

// Event represents a structured audit event.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	Actor      string            `json:"actor"`             // WHO: username, IP, or "system"
	Action     string            `json:"action"`            // WHAT: human-readable action description
	Resource   string            `json:"resource"`          // Resource affected (e.g., endpoint, input file)
	Result     string            `json:"result"`            // success, failure, denied
	RemoteAddr string            `json:"remote_addr"`       // Client IP address
	RequestID  string            `json:"request_id"`        // Correlation ID
	RunID      string            `json:"run_id"`            // Anonymization run ID
	Details    map[string]string `json:"details,omitempty"` // Additional context
}

// Logger provides audit logging functionality.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new audit logger with a dedicated "audit" component.
func NewLogger() *Logger {
	auditLogger := log.WithComponent("audit").With().
		Str("log_type", "audit").
		Logger()

	return &Logger{
		logger: auditLogger,
	}
}

// Log writes an audit event to the audit log.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	logEvent := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	if event.RemoteAddr != "" {
		logEvent.Str("remote_addr", event.RemoteAddr)
	}
	if event.RequestID != "" {
		logEvent.Str("request_id", event.RequestID)
	}
	if event.RunID != "" {
		logEvent.Str("run_id", event.RunID)
	}

	for key, value := range event.Details {
		logEvent.Str(key, value)
	}

	logEvent.Msg("audit event")
}

// LogFromContext logs an audit event, filling request and run IDs from the
// context when the event does not carry them already.
func (l *Logger) LogFromContext(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = log.RequestIDFromContext(ctx)
	}
	if event.RunID == "" {
		event.RunID = log.RunIDFromContext(ctx)
	}

	l.Log(event)
}

// RunStart logs the start of an anonymization run.
func (l *Logger) RunStart(actor, runID, strategy, input string) {
	l.Log(Event{
		Type:     EventRunStart,
		Actor:    actor,
		Action:   "started anonymization run",
		Resource: input,
		Result:   "started",
		RunID:    runID,
		Details: map[string]string{
			"strategy": strategy,
		},
	})
}

// RunComplete logs a completed anonymization run.
func (l *Logger) RunComplete(actor, runID string, rows, masked, durationMS int64) {
	l.Log(Event{
		Type:     EventRunSuccess,
		Actor:    actor,
		Action:   "completed anonymization run",
		Resource: "run",
		Result:   "success",
		RunID:    runID,
		Details: map[string]string{
			"rows":        strconv.FormatInt(rows, 10),
			"masked":      strconv.FormatInt(masked, 10),
			"duration_ms": strconv.FormatInt(durationMS, 10),
		},
	})
}

// RunError logs a failed anonymization run.
func (l *Logger) RunError(actor, runID, reason string) {
	l.Log(Event{
		Type:     EventRunError,
		Actor:    actor,
		Action:   "anonymization run failed",
		Resource: "run",
		Result:   "failure",
		RunID:    runID,
		Details: map[string]string{
			"error": reason,
		},
	})
}

// WatchFile logs a file picked up from the drop folder.
func (l *Logger) WatchFile(path, result string) {
	l.Log(Event{
		Type:     EventWatchFile,
		Actor:    "watcher",
		Action:   "processed dropped file",
		Resource: path,
		Result:   result,
	})
}

// AuthSuccess logs a successful authentication.
func (l *Logger) AuthSuccess(remoteAddr, endpoint string) {
	l.Log(Event{
		Type:       EventAuthSuccess,
		Actor:      remoteAddr,
		Action:     "authenticated successfully",
		Resource:   endpoint,
		Result:     "success",
		RemoteAddr: remoteAddr,
	})
}

// AuthFailure logs a failed authentication attempt.
func (l *Logger) AuthFailure(remoteAddr, endpoint, reason string) {
	l.Log(Event{
		Type:       EventAuthFailure,
		Actor:      remoteAddr,
		Action:     "authentication failed",
		Resource:   endpoint,
		Result:     "failure",
		RemoteAddr: remoteAddr,
		Details: map[string]string{
			"reason": reason,
		},
	})
}

// AuthMissing logs a request without authentication.
func (l *Logger) AuthMissing(remoteAddr, endpoint string) {
	l.Log(Event{
		Type:       EventAuthMissing,
		Actor:      remoteAddr,
		Action:     "accessed endpoint without authentication",
		Resource:   endpoint,
		Result:     "denied",
		RemoteAddr: remoteAddr,
	})
}

// APIAccess logs API endpoint access.
func (l *Logger) APIAccess(remoteAddr, method, endpoint string, statusCode int) {
	result := "success"
	if statusCode >= 400 {
		result = "failure"
	}

	l.Log(Event{
		Type:       EventAPIAccess,
		Actor:      remoteAddr,
		Action:     method + " " + endpoint,
		Resource:   endpoint,
		Result:     result,
		RemoteAddr: remoteAddr,
		Details: map[string]string{
			"method":      method,
			"status_code": strconv.Itoa(statusCode),
		},
	})
}

// RateLimitExceeded logs rate limit violations.
func (l *Logger) RateLimitExceeded(remoteAddr, endpoint string) {
	l.Log(Event{
		Type:       EventAPIRateLimit,
		Actor:      remoteAddr,
		Action:     "rate limit exceeded",
		Resource:   endpoint,
		Result:     "denied",
		RemoteAddr: remoteAddr,
	})
}
