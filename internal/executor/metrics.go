package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks execution outcomes and sink latency. Construct once at
// startup.
type Metrics struct {
	executions  *prometheus.CounterVec
	sinkLatency prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		executions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "supportops_executions_total",
			Help: "Action executions by outcome (executed, blocked, external_failure, unsupported).",
		}, []string{"outcome"}),
		sinkLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "supportops_sink_call_duration_seconds",
			Help:    "Latency of external sink calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncExecution records one executor outcome. Nil-safe.
func (m *Metrics) IncExecution(outcome string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(outcome).Inc()
}

// ObserveSinkLatency records one sink call duration. Nil-safe.
func (m *Metrics) ObserveSinkLatency(seconds float64) {
	if m == nil {
		return
	}
	m.sinkLatency.Observe(seconds)
}
