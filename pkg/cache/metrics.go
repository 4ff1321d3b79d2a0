package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_cache_hits_total",
		Help: "Total number of result cache hits",
	}, []string{"kind"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_cache_misses_total",
		Help: "Total number of result cache misses",
	}, []string{"kind"})

	CacheSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_cache_sets_total",
		Help: "Total number of result cache sets",
	}, []string{"kind"})

	CacheDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_insights_cache_deletes_total",
		Help: "Total number of result cache deletes",
	})
)
