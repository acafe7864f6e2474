package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecastnet"

// Stage labels for the unit and duration metrics.
const (
	StageCorrelate = "correlate"
	StageBand      = "band"
	StageEvaluate  = "evaluate"
)

// Outcome labels for UnitsProcessed.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds the Prometheus collectors for build and evaluation runs.
type Metrics struct {
	UnitsProcessed   *prometheus.CounterVec   // labels: stage, outcome
	DegenerateSeries prometheus.Counter
	EdgesBuilt       prometheus.Counter
	EdgeWeight       prometheus.Histogram     // positive edge weights only
	StageDuration    *prometheus.HistogramVec // labels: stage
	RunActive        prometheus.Gauge
	BandF1           *prometheus.GaugeVec // labels: band
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can build as many sets as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UnitsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Work units processed by stage and outcome.",
		}, []string{"stage", "outcome"}),
		DegenerateSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_series_total",
			Help:      "Series excluded from a correlation matrix.",
		}),
		EdgesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_total",
			Help:      "Edges written across all built networks.",
		}),
		EdgeWeight: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "edge_weight",
			Help:      "Distribution of positive edge weights in built networks.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of one work unit by stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_active",
			Help:      "1 while a build or evaluation run is in progress.",
		}),
		BandF1: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "band_f1",
			Help:      "F1 score of the most recently evaluated date, by band.",
		}, []string{"band"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UnitsProcessed,
		m.DegenerateSeries,
		m.EdgesBuilt,
		m.EdgeWeight,
		m.StageDuration,
		m.RunActive,
		m.BandF1,
	}
}
