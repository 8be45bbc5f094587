package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records webhook and link-generation outcomes.
type PaymentMetrics struct {
	webhookOutcomes *prometheus.CounterVec
	linksCreated    *prometheus.CounterVec
	linkGeneration  *prometheus.HistogramVec
}

// Webhook outcome labels.
const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeUnknown   = "unknown"
	WebhookOutcomeFailed    = "failed"
)

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_outcomes_total",
		Help: "Gateway webhook deliveries by outcome.",
	}, []string{"provider", "outcome"})
	linksCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_links_created_total",
		Help: "Payment links and deposit authorizations created, by method type.",
	}, []string{"kind", "method_type"})
	linkGeneration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_link_generation_seconds",
		Help:    "Duration of one link-generation run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	reg.MustRegister(webhookOutcomes, linksCreated, linkGeneration)
	return &PaymentMetrics{
		webhookOutcomes: webhookOutcomes,
		linksCreated:    linksCreated,
		linkGeneration:  linkGeneration,
	}
}

// IncWebhookOutcome counts one webhook delivery result.
func (m *PaymentMetrics) IncWebhookOutcome(provider, outcome string) {
	if m == nil || m.webhookOutcomes == nil {
		return
	}
	m.webhookOutcomes.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncLinkCreated counts one created link or authorization.
func (m *PaymentMetrics) IncLinkCreated(kind, methodType string) {
	if m == nil || m.linksCreated == nil {
		return
	}
	m.linksCreated.WithLabelValues(normalizeLabel(kind), normalizeLabel(methodType)).Inc()
}

// ObserveLinkGeneration records the duration of a link-generation run.
func (m *PaymentMetrics) ObserveLinkGeneration(trigger string, duration time.Duration) {
	if m == nil || m.linkGeneration == nil {
		return
	}
	m.linkGeneration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
