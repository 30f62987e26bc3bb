package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on the default registry through promauto, so the
// CLI can expose them with promhttp.Handler() without extra wiring.

var (
	// PipelineStepsTotal counts executed pipeline steps, labeled by operation
	// and outcome ("ok" or "error").
	PipelineStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgraph_pipeline_steps_total",
			Help: "Total number of pipeline steps executed",
		},
		[]string{"op", "status"},
	)

	// PipelineStepDuration measures step wall time. Distance steps are
	// quadratic in the population size, hence the wide buckets.
	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kektorgraph_pipeline_step_duration_seconds",
			Help:    "Duration of pipeline steps in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"op"},
	)

	// DistancePairsTotal counts metric evaluations, labeled by metric.
	DistancePairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgraph_distance_pairs_total",
			Help: "Total number of pairwise distance evaluations",
		},
		[]string{"metric"},
	)

	// EdgesCreatedTotal counts edges materialized by the distance engine.
	EdgesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgraph_edges_created_total",
			Help: "Total number of similarity edges created",
		},
		[]string{"relation"},
	)
)

var (
	// HTTPRequestsTotal counts requests served by the metrics endpoint.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kektorgraph_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kektorgraph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
