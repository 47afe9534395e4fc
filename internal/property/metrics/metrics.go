package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the property module.
type Metrics struct {
	Registered  prometheus.Counter
	Approved    prometheus.Counter
	Rejected    prometheus.Counter
	Transitions *prometheus.CounterVec
}

// New creates and registers all property metrics.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landreg_properties_registered_total",
			Help: "Total number of property registration applications submitted",
		}),
		Approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landreg_properties_approved_total",
			Help: "Total number of applications approved by a land officer",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landreg_properties_rejected_total",
			Help: "Total number of applications rejected by a land officer",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_workflow_transitions_total",
			Help: "Workflow transitions by event and resulting status",
		}, []string{"event", "status"}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.Registered.Inc()
}

func (m *Metrics) IncrementApproved() {
	m.Approved.Inc()
}

func (m *Metrics) IncrementRejected() {
	m.Rejected.Inc()
}

func (m *Metrics) ObserveTransition(event, status string) {
	m.Transitions.WithLabelValues(event, status).Inc()
}
