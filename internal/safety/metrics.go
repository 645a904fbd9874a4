package safety

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gate decisions by outcome. Construct once at startup.
type Metrics struct {
	evaluations *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "supportops_gate_evaluations_total",
			Help: "Gate evaluations by resulting audit status.",
		}, []string{"status", "class"}),
	}
}

// IncEvaluation records one evaluation. Nil-safe so tests can run the gate
// without a registry.
func (m *Metrics) IncEvaluation(status, class string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(status, class).Inc()
}
