// Package metrics provides the centralized Prometheus metrics reference for
// kinofetch. All metrics are defined in their respective packages (engine,
// ratelimit, httpfetch, extract, pagecache) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by kinofetch.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Pacing Metrics (pkg/ratelimit):
//   - kinofetch_pacing_delay_seconds (Gauge): Current adaptive inter-request delay
//   - kinofetch_pacing_tightened_total (Counter): Delay increases after failures
//   - kinofetch_pacing_relaxed_total (Counter): Delay decreases after success runs
//
// Engine Metrics (pkg/engine):
//   - kinofetch_attempt_outcomes_total{outcome} (Counter): Attempt outcomes by classification
//   - kinofetch_attempt_duration_seconds (Histogram): Duration of accepted fetches
//   - kinofetch_retries_total (Counter): Retry attempts across all targets
//   - kinofetch_retry_exhausted_total (Counter): Targets that spent their whole retry budget
//   - kinofetch_batches_processed_total (Counter): Completed batches
//
// HTTP Metrics (pkg/httpfetch):
//   - kinofetch_http_requests_total{status} (Counter): HTTP responses by status code
//   - kinofetch_http_request_duration_seconds (Histogram): Wall time per HTTP request
//   - kinofetch_http_transport_errors_total{class} (Counter): Transport failures (timeout, transport)
//
// Extraction Metrics (pkg/extract):
//   - kinofetch_fields_extracted_total{field} (Counter): Extracted fields by name
//   - kinofetch_parse_failures_total (Counter): Pages that could not be parsed as HTML
//
// Page Cache Metrics (pkg/pagecache):
//   - kinofetch_page_cache_hits_total (Counter): Fetches served from Redis
//   - kinofetch_page_cache_misses_total (Counter): Lookups that went to the network
//   - kinofetch_page_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Success rate of fetch attempts
//   rate(kinofetch_attempt_outcomes_total{outcome="accepted"}[5m]) /
//   sum(rate(kinofetch_attempt_outcomes_total[5m]))
//
//   # Cache hit rate
//   rate(kinofetch_page_cache_hits_total[5m]) /
//   (rate(kinofetch_page_cache_hits_total[5m]) + rate(kinofetch_page_cache_misses_total[5m]))
//
//   # Current pacing delay (watch it tighten under 429 pressure)
//   kinofetch_pacing_delay_seconds
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(kinofetch_http_request_duration_seconds_bucket[5m]))
