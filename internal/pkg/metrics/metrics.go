// Package metrics holds the Prometheus collectors of the order service.
// Collectors are registered on an explicit registerer so tests can use a
// fresh prometheus.Registry. All recording methods are nil-safe.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradeerp"

// Outcome labels.
const (
	OutcomeApplied  = "applied"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route", "method"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// LifecycleMetrics counts what happens to orders.
type LifecycleMetrics struct {
	ordersCreated   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	events          *prometheus.CounterVec
	batchRejections *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by numbering scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Requested status transitions, by target status and outcome.",
		}, []string{"to", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_events_total",
			Help:      "Handled lifecycle events, by event type and outcome.",
		}, []string{"type", "outcome"}),
		batchRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_allocation_rejections_total",
			Help:      "Batch mutations rejected for exceeding the ordered quantity.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.ordersCreated, m.transitions, m.events, m.batchRejections)
	return m
}

func (m *LifecycleMetrics) OrderCreated(scheme, outcome string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(scheme, outcome).Inc()
}

func (m *LifecycleMetrics) Transition(to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to, outcome).Inc()
}

func (m *LifecycleMetrics) Event(eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, outcome).Inc()
}

func (m *LifecycleMetrics) BatchRejected(operation string) {
	if m == nil {
		return
	}
	m.batchRejections.WithLabelValues(operation).Inc()
}

// Handler exposes the collectors of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
