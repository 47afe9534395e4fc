package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the dispute module.
type Metrics struct {
	Submitted *prometheus.CounterVec
	Closed    *prometheus.CounterVec
	Open      prometheus.Gauge
}

// New creates and registers all dispute metrics.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_disputes_submitted_total",
			Help: "Disputes filed, by type and priority",
		}, []string{"dispute_type", "priority"}),
		Closed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_disputes_closed_total",
			Help: "Disputes closed, by outcome",
		}, []string{"outcome"}),
		Open: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "landreg_disputes_open",
			Help: "Disputes currently in a non-terminal status",
		}),
	}
}

func (m *Metrics) ObserveSubmitted(disputeType, priority string) {
	m.Submitted.WithLabelValues(disputeType, priority).Inc()
	m.Open.Inc()
}

func (m *Metrics) ObserveClosed(outcome string) {
	m.Closed.WithLabelValues(outcome).Inc()
	m.Open.Dec()
}
