package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connected is 1 while the market channel connection is up.
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_insights_ws_connected",
		Help: "Whether the CLOB market channel connection is up",
	})

	// ReconnectsTotal tracks reconnection attempts by result.
	ReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_ws_reconnects_total",
		Help: "Total number of WebSocket reconnection attempts",
	}, []string{"result"})

	// MessagesTotal tracks book events received by type.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_ws_messages_total",
		Help: "Total number of CLOB market channel events received",
	}, []string{"event_type"})

	// MessagesDroppedTotal tracks events dropped because the consumer fell behind.
	MessagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_insights_ws_messages_dropped_total",
		Help: "Total number of events dropped on a full buffer",
	})

	// SubscribedAssets tracks how many token IDs are subscribed.
	SubscribedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_insights_ws_subscribed_assets",
		Help: "Number of CLOB token IDs subscribed on the market channel",
	})

	// ConnectionDurationSeconds tracks how long connections stay up.
	ConnectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_insights_ws_connection_duration_seconds",
		Help:    "Lifetime of market channel connections",
		Buckets: []float64{1, 10, 60, 300, 900, 3600, 14400, 86400},
	})
)
