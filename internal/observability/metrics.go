package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "landlord_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk pipeline.
type Metrics struct {
	RowsRead         *prometheus.CounterVec // labels: dataset
	Matches          *prometheus.CounterVec // labels: dataset, match_type
	ResolveCache     *prometheus.CounterVec // labels: result={hit,miss}
	SpatialOverrides prometheus.Counter
	MessagesProduced prometheus.Counter

	// Run metrics.
	RunDuration prometheus.Histogram
	Runs        *prometheus.CounterVec // labels: outcome={success,error}

	PropertiesScored prometheus.Gauge
	BadLandlords     prometheus.Gauge
	PipelineRunning  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Input rows read, by dataset.",
		}, []string{"dataset"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Events resolved to a property key, by dataset and match type.",
		}, []string{"dataset", "match_type"}),
		ResolveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_cache_total",
			Help:      "Address resolution cache lookups by result.",
		}, []string{"result"}),
		SpatialOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spatial_overrides_total",
			Help:      "Properties whose district was replaced by polygon containment.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total score messages written to the sink topic.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-score-write run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		PropertiesScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "properties_scored",
			Help:      "Properties scored by the latest successful run.",
		}),
		BadLandlords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bad_landlords",
			Help:      "Landlords flagged by the latest successful run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RowsRead,
		m.Matches,
		m.ResolveCache,
		m.SpatialOverrides,
		m.MessagesProduced,
		m.RunDuration,
		m.Runs,
		m.PropertiesScored,
		m.BadLandlords,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rows_read_total"}, []string{"dataset"}),
		Matches:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "matches_total"}, []string{"dataset", "match_type"}),
		ResolveCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "resolve_cache_total"}, []string{"result"}),
		SpatialOverrides: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "spatial_overrides_total"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_produced_total"}),
		RunDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		Runs:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "runs_total"}, []string{"outcome"}),
		PropertiesScored: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "properties_scored"}),
		BadLandlords:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "bad_landlords"}),
		PipelineRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
	}
}
