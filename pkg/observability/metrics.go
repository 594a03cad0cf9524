// Package observability provides Prometheus metrics, logger setup, and
// HTTP middleware for monitoring the blobgate service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// RequestBuckets defines histogram buckets for gated request latencies,
// ranging from 5ms to 10s. Uploads of large blobs dominate the tail.
var RequestBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blobgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: RequestBuckets,
		},
		[]string{"method"},
	)

	// GateRejectionsTotal counts requests stopped by a gate check, by the
	// failing check (unauthenticated, unauthorized, bad_request).
	GateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobgate_gate_rejections_total",
			Help: "Gate rejections",
		},
		[]string{"reason"},
	)

	// HandlerErrorsTotal counts errors returned or panicked by gated
	// handlers, by the response status they map to.
	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobgate_handler_errors_total",
			Help: "Handler errors",
		},
		[]string{"status"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blobgate_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)

	// TokenDecodeFailuresTotal counts bearer tokens that could not be decoded.
	TokenDecodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blobgate_token_decode_failures_total",
			Help: "Token decode failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		GateRejectionsTotal,
		HandlerErrorsTotal,
		RateLimitRejectedTotal,
		TokenDecodeFailuresTotal,
	)
}
