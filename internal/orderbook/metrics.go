package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal tracks applied book events by type.
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_orderbook_updates_total",
		Help: "Total number of book events applied",
	}, []string{"event_type"})

	// InvalidUpdatesTotal tracks events rejected as malformed.
	InvalidUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_orderbook_invalid_updates_total",
		Help: "Total number of book events that could not be parsed",
	}, []string{"event_type"})

	// BooksTracked tracks the number of books held in memory.
	BooksTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_insights_orderbook_books_tracked",
		Help: "Number of order books tracked in memory",
	})

	// ApplyDurationSeconds tracks time spent applying one event.
	ApplyDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_insights_orderbook_apply_duration_seconds",
		Help:    "Time spent applying one book event",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
	})
)
