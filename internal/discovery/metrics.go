package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsDiscoveredTotal tracks total markets returned by the Gamma API.
	MarketsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_insights_discovery_markets_total",
		Help: "Total number of markets fetched from Gamma API",
	})

	// NewMarketsTotal tracks markets seen for the first time.
	NewMarketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_insights_discovery_new_markets_total",
		Help: "Total number of markets seen for the first time",
	})

	// PollDurationSeconds tracks refresh latency.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_insights_discovery_refresh_duration_seconds",
		Help:    "Duration of Gamma API market refreshes",
		Buckets: prometheus.DefBuckets,
	})

	// PollErrorsTotal tracks refresh failures.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_insights_discovery_refresh_errors_total",
		Help: "Total number of Gamma API refresh failures",
	})
)
