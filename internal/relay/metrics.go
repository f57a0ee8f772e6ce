// ABOUTME: Prometheus metrics for event processing and downstream invocations
// ABOUTME: Implements the recorder interfaces consumed by dispatch and invoke

package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors on a private registry so
// tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	invocations     *prometheus.CounterVec
	identityLookups *prometheus.CounterVec
}

// NewMetrics creates and registers the relay's collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Inbound events by payload type and processing outcome.",
		}, []string{"type", "outcome"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_invocations_total",
			Help: "Downstream invocations by target, mode, and outcome.",
		}, []string{"target", "mode", "outcome"}),
		identityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_identity_lookups_total",
			Help: "Directory email lookups by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(m.events, m.invocations, m.identityLookups)
	return m
}

// RecordEvent counts one processed inbound event.
func (m *Metrics) RecordEvent(eventType, outcome string) {
	m.events.WithLabelValues(eventType, outcome).Inc()
}

// RecordInvocation counts one downstream invocation.
func (m *Metrics) RecordInvocation(target, mode, outcome string) {
	m.invocations.WithLabelValues(target, mode, outcome).Inc()
}

// RecordIdentityLookup counts one directory email lookup.
func (m *Metrics) RecordIdentityLookup(outcome string) {
	m.identityLookups.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler serving the metrics exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
