// SPDX-License-Identifier: MIT
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_http_requests_total",
		Help: "HTTP requests by route, method, and status code",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoanonymizer_http_request_duration_seconds",
		Help:    "HTTP request handling duration by route",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"route"})

	httpRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_http_rejected_total",
		Help: "Requests rejected before handling, by reason",
	}, []string{"reason"}) // reason=auth|rate_limit|body_limit
)

// ObserveHTTPRequest records a handled request.
func ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncHTTPRejected records a request turned away before its handler ran.
func IncHTTPRejected(reason string) {
	httpRejectedTotal.WithLabelValues(reason).Inc()
}
