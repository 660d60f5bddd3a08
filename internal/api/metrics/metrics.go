// Package metrics exposes Prometheus instrumentation for the key and
// rate-limit core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the request gate and the
// key lifecycle.
type Metrics struct {
	gateDecisions    *prometheus.CounterVec
	keyVerifications *prometheus.CounterVec
	keysIssued       prometheus.Counter
	keysRevoked      prometheus.Counter
}

// New creates a Metrics instance registered against reg. Passing a fresh
// registry per Application keeps tests free of duplicate-registration
// panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sneakdex_gate_decisions_total",
				Help: "Request gate outcomes by decision and tier",
			},
			[]string{"decision", "tier"},
		),

		keyVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sneakdex_key_verifications_total",
				Help: "API key verification attempts by result",
			},
			[]string{"result"},
		),

		keysIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sneakdex_keys_issued_total",
				Help: "Total number of API keys issued",
			},
		),

		keysRevoked: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sneakdex_keys_revoked_total",
				Help: "Total number of API keys revoked",
			},
		),
	}
}

// GateDecision records a request gate outcome ("allowed", "denied",
// "unauthorized") for a tier.
func (m *Metrics) GateDecision(decision, tier string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(decision, tier).Inc()
}

// KeyVerification records a verification result ("valid", "not_found",
// "revoked", "error").
func (m *Metrics) KeyVerification(result string) {
	if m == nil {
		return
	}
	m.keyVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) KeyIssued() {
	if m == nil {
		return
	}
	m.keysIssued.Inc()
}

func (m *Metrics) KeyRevoked() {
	if m == nil {
		return
	}
	m.keysRevoked.Inc()
}
