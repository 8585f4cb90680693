package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics tracks carrier event ingestion outcomes.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	outcome  *prometheus.CounterVec
}

// Outcome labels for processed carrier events.
const (
	WebhookOutcomeApplied  = "applied"
	WebhookOutcomeNoop     = "noop"
	WebhookOutcomeDropped  = "dropped"
	WebhookOutcomeRejected = "rejected"
)

// NewWebhookMetrics registers the carrier webhook metrics on the provided
// registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_events_received_total",
		Help: "Carrier webhook events received, by carrier status string.",
	}, []string{"carrier_status"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_events_outcome_total",
		Help: "Carrier webhook events by reconciliation outcome.",
	}, []string{"outcome"})
	reg.MustRegister(received, outcome)
	return &WebhookMetrics{received: received, outcome: outcome}
}

// IncReceived counts one inbound event for the given carrier status string.
func (m *WebhookMetrics) IncReceived(carrierStatus string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(carrierStatus)).Inc()
}

// IncOutcome counts one reconciliation outcome.
func (m *WebhookMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcome == nil {
		return
	}
	m.outcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}
