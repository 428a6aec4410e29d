package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the response cache.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dotastats_cache_hits_total",
		Help: "Reads served from the cache without network access",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dotastats_cache_misses_total",
		Help: "Reads that required an upstream fetch",
	})

	cacheFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dotastats_cache_fetches_total",
		Help: "Successful upstream fetches stored in the cache",
	})

	cacheFlushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dotastats_cache_flushes_total",
		Help: "Successful snapshot writes",
	})

	cacheFlushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dotastats_cache_flush_errors_total",
		Help: "Failed snapshot writes",
	})
)
