// Package metrics provides Prometheus metrics collection for the ensemble evaluator.
// It defines the model loading, evaluation and streaming metrics that are exposed
// via the Prometheus metrics endpoint when one is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the evaluator.
type Metrics struct {
	// Model loading metrics
	ModelsRequested   prometheus.Counter // Model resources requested
	ModelLoadFailures prometheus.Counter // Model resources that failed to load
	ModelsLoaded      prometheus.Gauge   // Models currently in the ensemble
	DataWidth         prometheus.Gauge   // Width of the test points the ensemble expects

	// Evaluation metrics
	Evaluations       prometheus.Counter   // Ensemble evaluations performed
	EvaluationLatency prometheus.Histogram // Per-point ensemble evaluation latency

	// Stream metrics
	RecordsProcessed  prometheus.Counter // Records read and answered
	ZeroWeightRecords prometheus.Counter // Records whose ensemble weight summed to zero

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ModelsRequested: factory.NewCounter(prometheus.CounterOpts{
			Name: "det_models_requested_total",
			Help: "Total number of model resources requested",
		}),
		ModelLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "det_model_load_failures_total",
			Help: "Total number of model resources that failed to load",
		}),
		ModelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "det_models_loaded",
			Help: "Number of models in the ensemble",
		}),
		DataWidth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "det_data_width",
			Help: "Number of coordinates per test point",
		}),
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "det_evaluations_total",
			Help: "Total number of ensemble evaluations",
		}),
		EvaluationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "det_evaluation_latency_seconds",
			Help:    "Ensemble evaluation latency per test point in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 18),
		}),
		RecordsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "det_records_processed_total",
			Help: "Total number of input records answered",
		}),
		ZeroWeightRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "det_zero_weight_records_total",
			Help: "Total number of records whose ensemble weight summed to zero",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "det_errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
