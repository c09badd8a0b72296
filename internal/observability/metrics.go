package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh-and-serve loop.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec // labels: trigger={timer,manual}, outcome={success,failure}
	RefreshJoins    prometheus.Counter
	RefreshInFlight prometheus.Gauge
	RefreshDuration prometheus.Histogram

	SnapshotEvents    prometheus.Gauge
	SnapshotTimestamp prometheus.Gauge

	PageRequests prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RefreshTotal,
		m.RefreshJoins,
		m.RefreshInFlight,
		m.RefreshDuration,
		m.SnapshotEvents,
		m.SnapshotTimestamp,
		m.PageRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics with nothing registered to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_watch",
			Name:      "refresh_total",
			Help:      "Refresh attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		RefreshJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_watch",
			Name:      "refresh_joins_total",
			Help:      "Refresh requests that joined an already in-flight fetch instead of starting a new one.",
		}),
		RefreshInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_watch",
			Name:      "refresh_in_flight",
			Help:      "1 while a fetch is in flight, 0 otherwise.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_watch",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-persist-publish cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		SnapshotEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_watch",
			Name:      "snapshot_events",
			Help:      "Number of features in the currently published snapshot.",
		}),
		SnapshotTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_watch",
			Name:      "snapshot_timestamp_seconds",
			Help:      "Unix time of the last successful fetch, 0 before the first one.",
		}),
		PageRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_watch",
			Name:      "page_requests_total",
			Help:      "Dashboard page renders.",
		}),
	}
}
