package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal tracks scans by outcome.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_scanner_runs_total",
		Help: "Total number of scheduled market scans",
	}, []string{"status"})

	// ScanDurationSeconds tracks how long a full scan takes.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_insights_scanner_run_duration_seconds",
		Help:    "Duration of a full market scan",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	// MarketsScannedTotal tracks markets classified by the scanner.
	MarketsScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_insights_scanner_markets_classified_total",
		Help: "Total number of markets classified by the scanner",
	})

	// DivergentPairs is the number of divergent pairs found by the last scan.
	DivergentPairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_insights_scanner_divergent_pairs",
		Help: "Related market pairs whose prices diverged in the last scan",
	})

	// StatesClassifiedTotal tracks live market-state labels assigned by the scanner.
	StatesClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_scanner_states_classified_total",
		Help: "Total number of live market-state classifications by label",
	}, []string{"state"})
)
