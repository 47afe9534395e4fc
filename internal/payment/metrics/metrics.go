package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the payment module.
type Metrics struct {
	Initiated       *prometheus.CounterVec
	Settled         *prometheus.CounterVec
	AmountCollected prometheus.Counter
}

// New creates and registers all payment metrics.
func New() *Metrics {
	return &Metrics{
		Initiated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_payments_initiated_total",
			Help: "Payments initiated, by method",
		}, []string{"method"}),
		Settled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_payments_settled_total",
			Help: "Gateway outcomes, by method and result",
		}, []string{"method", "result"}),
		AmountCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landreg_payments_collected_etb_total",
			Help: "Sum of completed payment amounts in ETB",
		}),
	}
}

func (m *Metrics) IncrementInitiated(method string) {
	m.Initiated.WithLabelValues(method).Inc()
}

func (m *Metrics) ObserveSettlement(method, result string, amount float64) {
	m.Settled.WithLabelValues(method, result).Inc()
	if result == "completed" {
		m.AmountCollected.Add(amount)
	}
}
