package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeStale     = "stale"
)

// Metrics holds the widget's prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	activeSessions prometheus.Gauge
	onlineSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_widget",
			Name:      "fetches_total",
			Help:      "Forecast fetches by outcome. Stale results were superseded by a newer query.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forecast_widget",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent waiting for the forecast provider.",
			Buckets:   prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_widget",
			Name:      "active_sessions",
			Help:      "Live widget sessions, online or not.",
		}),
		onlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_widget",
			Name:      "online_sessions",
			Help:      "Sessions whose browser last reported connectivity.",
		}),
	}
	reg.MustRegister(m.fetches, m.fetchDuration, m.activeSessions, m.onlineSessions)
	return m
}

// ObserveFetch records one settled fetch.
func (m *Metrics) ObserveFetch(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(took.Seconds())
}

// SetSessions records the number of mounted sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// SetOnlineSessions records how many sessions report connectivity.
func (m *Metrics) SetOnlineSessions(n int) {
	if m == nil {
		return
	}
	m.onlineSessions.Set(float64(n))
}
