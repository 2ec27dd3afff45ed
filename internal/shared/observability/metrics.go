package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TokenCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agatypes_token_cache_hits_total",
		Help: "Total number of token reads served from the per-document cache.",
	})

	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agatypes_token_refresh_total",
		Help: "Total number of backend refreshes by outcome (ok, diagnostic, failed).",
	}, []string{"outcome"})

	BackendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agatypes_backend_seconds",
		Help:    "Time spent waiting on the tokenizer backend.",
		Buckets: prometheus.DefBuckets,
	})

	CachedDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agatypes_cached_documents",
		Help: "Current number of documents held by the token index.",
	})

	TokenEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agatypes_token_evictions_total",
		Help: "Total number of documents evicted from the token index for capacity.",
	})

	ResolutionCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agatypes_resolution_cycles_total",
		Help: "Total number of identifier resolutions cut short by the cycle guard.",
	})

	SessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agatypes_session_seconds",
		Help:    "Time spent in consumer-facing session operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agatypes_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRefreshThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agatypes_watch_refresh_throttled_total",
		Help: "Total number of watch-driven refreshes delayed by the per-document limiter.",
	})
)
