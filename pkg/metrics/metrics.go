// Package metrics provides the centralized Prometheus metrics registry for
// the listings client. All metrics are defined in their respective packages
// (client, cache, ratelimit, pager) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the listings client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Quota Metrics (pkg/ratelimit):
//   - listings_quota_remaining (Gauge): Requests remaining in the current quota window
//   - listings_quota_blocks_total (Counter): Requests blocked due to critical quota level
//   - listings_quota_throttles_total (Counter): Requests throttled due to warning quota level
//
// Cache Metrics (pkg/cache):
//   - listings_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - listings_cache_misses_total (Counter): Cache misses
//   - listings_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - listings_304_responses_total (Counter): 304 Not Modified responses
//   - listings_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - listings_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - listings_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - listings_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - listings_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - listings_breaker_rejections_total (Counter): Requests rejected by the open circuit breaker
//
// Retry Metrics (pkg/client):
//   - listings_retries_total{error_class} (Counter): Retry attempts by error class
//   - listings_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - listings_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pager Metrics (pkg/pager):
//   - listings_pager_batches_appended_total (Counter): Batches appended to the displayed list
//   - listings_pager_prefetch_hits_total (Counter): Show-more calls served from the pending buffer
//   - listings_pager_fetches_total{result} (Counter): Batch fetches by result (ok, error, deduplicated)
//   - listings_pager_pending_batches (Gauge): Batches currently parked in the pending buffer
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(listings_cache_hits_total[5m])) /
//   (sum(rate(listings_cache_hits_total[5m])) + sum(rate(listings_cache_misses_total[5m])))
//
//   # Prefetch Hit Rate (how often show-more needed no waiting)
//   rate(listings_pager_prefetch_hits_total[5m]) /
//   rate(listings_pager_batches_appended_total[5m])
//
//   # Quota Status
//   listings_quota_remaining < 20
//
//   # Request Error Rate
//   rate(listings_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(listings_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(listings_304_responses_total[5m]) / rate(listings_requests_total[5m])
