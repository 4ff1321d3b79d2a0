package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ResultsStoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_results_stored_total",
		Help: "Total number of insight results written, by kind and status",
	}, []string{"kind", "status"})

	StoreDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_insights_store_duration_seconds",
		Help:    "Time spent writing one insight result",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)
