// Package metrics provides the ambient Prometheus observability
// FlowBridge exposes on GET /metrics: pure observations of the
// Request Pipeline's terminal outcomes, with no effect on routing
// decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome classes a completed request can be observed under.
const (
	OutcomeDropped        = "dropped"
	OutcomeRouted         = "routed"
	OutcomeRoutingError   = "routing_error"
	OutcomeForwardError   = "forward_error"
	OutcomeInvalidRequest = "invalid_request"
)

// Collector holds the Prometheus metrics FlowBridge registers.
type Collector struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ForwardOutcomes *prometheus.CounterVec
	ForwardDuration *prometheus.HistogramVec
}

// New creates a Collector and registers its metrics against the
// default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Collector registered against reg, so
// tests can use a scratch registry instead of the global default.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbridge",
				Name:      "requests_total",
				Help:      "Total webhook requests processed, labeled by terminal outcome class.",
			},
			[]string{"outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowbridge",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds for every endpoint except /metrics, labeled by response status class.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowbridge",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests (every endpoint except /metrics) currently being processed.",
			},
		),
		ForwardOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbridge",
				Name:      "forward_outcomes_total",
				Help:      "Forwarder outcomes, labeled by outcome kind (ok/timeout/connection_error/bad_response).",
			},
			[]string{"kind"},
		),
		ForwardDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowbridge",
				Name:      "forward_duration_seconds",
				Help:      "Outbound forward call duration in seconds.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
	}
}
