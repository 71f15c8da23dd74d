package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "power_forecast"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecasting pipeline.
type Metrics struct {
	ObservationsRead  prometheus.Counter
	MissingReadings   prometheus.Counter
	HourlyRecordsKept prometheus.Counter
	HourlyDropped     prometheus.Counter
	PipelineRunning   prometheus.Gauge
	Runs              *prometheus.CounterVec // labels: outcome={success,partial,failed}

	// Per-model metrics.
	ModelFitDuration *prometheus.HistogramVec // labels: model
	ModelFailures    *prometheus.CounterVec   // labels: model
	ModelMAE         *prometheus.GaugeVec     // labels: model
	ModelRMSE        *prometheus.GaugeVec     // labels: model

	// Sink metrics.
	SinkErrors *prometheus.CounterVec // labels: sink={kafka,parquet}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so repeated
// calls from tests never panic with "already registered".
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_read_total",
			Help:      "Minute-level readings parsed from the input file.",
		}),
		MissingReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_readings_total",
			Help:      "Readings marked missing in the input file.",
		}),
		HourlyRecordsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hourly_records_kept_total",
			Help:      "Hourly records that survived cleaning.",
		}),
		HourlyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hourly_records_dropped_total",
			Help:      "Hourly records dropped because the hour had no readings.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		ModelFitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_fit_duration_seconds",
			Help:      "Time spent fitting and forecasting per model.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"model"}),
		ModelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_failures_total",
			Help:      "Forecasters that failed to produce a forecast.",
		}, []string{"model"}),
		ModelMAE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_mae",
			Help:      "Mean absolute error of the latest forecast per model.",
		}, []string{"model"}),
		ModelRMSE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_rmse",
			Help:      "Root mean squared error of the latest forecast per model.",
		}, []string{"model"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed report publications and forecast exports by sink.",
		}, []string{"sink"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ObservationsRead,
		m.MissingReadings,
		m.HourlyRecordsKept,
		m.HourlyDropped,
		m.PipelineRunning,
		m.Runs,
		m.ModelFitDuration,
		m.ModelFailures,
		m.ModelMAE,
		m.ModelRMSE,
		m.SinkErrors,
	}
}
