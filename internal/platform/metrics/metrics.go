package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics. Subsystems own their own
// metric structs; this covers the shared transport surface.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	TriageRequests  prometheus.Counter
}

// New creates and registers the transport metrics. Call once at startup;
// promauto registers against the default registry.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "supportops_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		TriageRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportops_triage_requests_total",
			Help: "Total triage requests received.",
		}),
	}
}

// ObserveRequest records one served request. Nil-safe so handlers can run
// without metrics in tests.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}

// IncTriageRequests counts one triage request. Nil-safe.
func (m *Metrics) IncTriageRequests() {
	if m == nil {
		return
	}
	m.TriageRequests.Inc()
}
