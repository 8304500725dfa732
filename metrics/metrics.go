package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EugenePawit/expiration-tracker/models"
)

// DispatchMetrics carries the prometheus instruments for the dispatch
// pipeline. One instance per process, registered on its own registry so
// tests can construct as many as they like.
type DispatchMetrics struct {
	registry *prometheus.Registry

	RunsTotal          prometheus.Counter
	SentTotal          *prometheus.CounterVec
	FailedTotal        *prometheus.CounterVec
	SkippedTotal       prometheus.Counter
	CleanedTotal       prometheus.Counter
	SubscriptionsGauge prometheus.Gauge
}

func NewDispatchMetrics() *DispatchMetrics {
	m := &DispatchMetrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_dispatch_runs_total",
			Help: "Total number of dispatch runs executed",
		}),
		SentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expiry_notifications_sent_total",
			Help: "Notifications accepted by the push service",
		}, []string{"transport"}),
		FailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expiry_notifications_failed_total",
			Help: "Deliveries that failed transiently",
		}, []string{"transport"}),
		SkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_endpoints_skipped_total",
			Help: "Endpoints with nothing due at dispatch time",
		}),
		CleanedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_endpoints_cleaned_total",
			Help: "Endpoints deleted after a permanent delivery failure",
		}),
		SubscriptionsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "expiry_subscriptions",
			Help: "Endpoint records seen by the last dispatch run",
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal, m.SentTotal, m.FailedTotal,
		m.SkippedTotal, m.CleanedTotal, m.SubscriptionsGauge,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveRun folds one run summary into the counters.
func (m *DispatchMetrics) ObserveRun(transport string, res models.RunResult) {
	m.RunsTotal.Inc()
	m.SentTotal.WithLabelValues(transport).Add(float64(res.Sent))
	m.FailedTotal.WithLabelValues(transport).Add(float64(res.Failed))
	m.SkippedTotal.Add(float64(res.Skipped))
	m.CleanedTotal.Add(float64(res.Cleaned))
	m.SubscriptionsGauge.Set(float64(res.Considered))
}

// Handler serves the /metrics endpoint for this registry.
func (m *DispatchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
