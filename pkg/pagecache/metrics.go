package pagecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for page cache operations.
var (
	// CacheHits counts fetches served from Redis instead of the network.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_page_cache_hits_total",
		Help: "Fetches served from the page cache",
	})

	// CacheMisses counts lookups that had to go to the network.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_page_cache_misses_total",
		Help: "Page cache lookups that missed",
	})

	// CacheErrors counts failed cache operations by operation type.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinofetch_page_cache_errors_total",
		Help: "Page cache operation errors",
	}, []string{"operation"})
)
