// SPDX-License-Identifier: MIT

// Package ratelimit guards the anonymization endpoints against upload storms.
// Limits stack in three layers: a global budget for the whole process, a
// budget per request class (uploads are far more expensive than reads), and
// a per-client budget.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geoanonymizer",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total rate limit rejections",
		},
		[]string{"limit_type", "class"},
	)
)

// Request classes. Anonymize carries a CSV body through the full transform
// pipeline; reads only touch sqlite or static data.
const (
	ClassAnonymize = "anonymize"
	ClassRead      = "read"
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-client limits
	PerIPRate  rate.Limit
	PerIPBurst int

	// Per-class limits
	ClassRates map[string]rate.Limit
	ClassBurst map[string]int

	// Cleanup interval for per-IP limiters
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		GlobalRate:  50,
		GlobalBurst: 100,

		PerIPRate:  10,
		PerIPBurst: 20,

		ClassRates: map[string]rate.Limit{
			ClassAnonymize: 5,
			ClassRead:      30,
		},
		ClassBurst: map[string]int{
			ClassAnonymize: 10,
			ClassRead:      60,
		},

		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter manages layered rate limiting for API clients
type Limiter struct {
	config Config

	global   *rate.Limiter
	perIP    map[string]*rate.Limiter
	perClass map[string]*rate.Limiter
	mu       sync.RWMutex

	lastCleanup time.Time
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	l := &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perIP:       make(map[string]*rate.Limiter),
		perClass:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}

	for class, classRate := range config.ClassRates {
		burst := config.ClassBurst[class]
		l.perClass[class] = rate.NewLimiter(classRate, burst)
	}

	return l
}

// Allow checks if a request is allowed under rate limits.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(clientIP, class string) bool {
	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", class).Inc()
		return false
	}

	l.mu.RLock()
	classLimiter, exists := l.perClass[class]
	l.mu.RUnlock()

	if exists && !classLimiter.Allow() {
		rateLimitExceeded.WithLabelValues("per_class", class).Inc()
		return false
	}

	// Cleanup runs before the per-IP lookup so the current client's
	// limiter survives the sweep.
	l.maybeCleanup()

	ipLimiter := l.getIPLimiter(clientIP)
	if !ipLimiter.Allow() {
		rateLimitExceeded.WithLabelValues("per_ip", class).Inc()
		return false
	}

	return true
}

// getIPLimiter returns the rate limiter for a specific client IP
func (l *Limiter) getIPLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.perIP[ip]
	if !exists {
		limiter = rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)
		l.perIP[ip] = limiter
	}

	return limiter
}

// maybeCleanup drops all per-IP limiters once the cleanup interval has
// passed. Idle clients re-enter with a fresh bucket.
func (l *Limiter) maybeCleanup() {
	if time.Since(l.lastCleanup) < l.config.CleanupInterval {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.perIP = make(map[string]*rate.Limiter)
	l.lastCleanup = time.Now()
}

// GetClientIP extracts the real client IP from the request
func GetClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2";
	// the first one is the original client.
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if first != "" {
			return first
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
