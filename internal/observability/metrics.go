package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_impact"

// Metrics holds the Prometheus collectors for scenario runs, feed ingestion
// and result delivery.
type Metrics struct {
	ScenarioRuns     *prometheus.CounterVec // labels: source={manual,usgs,gdacs}
	ScenarioFailures *prometheus.CounterVec // labels: stage={validate,assess,persist}
	ScenarioDuration prometheus.Histogram
	Assessments      prometheus.Counter
	LastAvgDamage    prometheus.Gauge

	AlertsRaised *prometheus.CounterVec // labels: severity={HIGH,CRITICAL}

	// Feed ingestion metrics.
	FeedEvents *prometheus.CounterVec // labels: source, outcome={assessed,duplicate,filtered,invalid,error}

	PublishedMessages prometheus.Counter
	PublishErrors     prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		ScenarioRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_runs_total",
			Help:      "Completed scenario runs by source.",
		}, []string{"source"}),
		ScenarioFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_failures_total",
			Help:      "Scenario runs that failed, by stage.",
		}, []string{"stage"}),
		ScenarioDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_duration_seconds",
			Help:      "Wall time to assess the catalogue against one earthquake.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		Assessments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Building assessments computed.",
		}),
		LastAvgDamage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_avg_damage_percent",
			Help:      "Average physical damage of the most recent run.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Building alerts stored, by severity.",
		}, []string{"severity"}),
		FeedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Feed events handled by source and outcome.",
		}, []string{"source", "outcome"}),
		PublishedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_messages_total",
			Help:      "Assessment messages written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Connected run stream subscribers.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ScenarioRuns,
		m.ScenarioFailures,
		m.ScenarioDuration,
		m.Assessments,
		m.LastAvgDamage,
		m.AlertsRaised,
		m.FeedEvents,
		m.PublishedMessages,
		m.PublishErrors,
		m.StreamSubscribers,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Register adds the metrics to reg. Used by tests that scrape a private registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
