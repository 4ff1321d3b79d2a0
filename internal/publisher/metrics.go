package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	SignalsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_signals_published_total",
		Help: "Total number of stream entries written, by stream type and status",
	}, []string{"stream_type", "status"})
)
