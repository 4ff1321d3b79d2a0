package insights

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ComputationsTotal counts engine runs by kind and status (ok, invalid, error).
	ComputationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_computations_total",
		Help: "Total number of engine computations",
	}, []string{"kind", "status"})

	ComputeDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polymarket_insights_compute_duration_seconds",
		Help:    "Time spent in a scoring engine",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"kind"})

	// LabelsAssignedTotal counts the label each fresh result carries.
	LabelsAssignedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_labels_assigned_total",
		Help: "Total number of labels assigned, by kind and label",
	}, []string{"kind", "label"})

	ArchiveErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_insights_archive_errors_total",
		Help: "Total number of results that could not be archived",
	}, []string{"kind"})
)
