package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_requests_total",
			Help: "Total number of listings API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listings_request_duration_seconds",
			Help:    "Listings API request latency by endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_errors_total",
			Help: "Total number of listings API errors by class",
		},
		[]string{"class"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_retries_total",
			Help: "Total number of retry attempts by error class",
		},
		[]string{"error_class"},
	)

	retryBackoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listings_retry_backoff_seconds",
			Help:    "Backoff duration before retry attempts",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"error_class"},
	)

	retryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_retry_exhausted_total",
			Help: "Total number of requests that failed after all retry attempts",
		},
		[]string{"error_class"},
	)

	breakerRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_breaker_rejections_total",
			Help: "Total number of requests rejected by the open circuit breaker",
		},
	)
)
