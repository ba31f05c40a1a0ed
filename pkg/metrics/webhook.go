package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookOutcomes counts processed webhook notifications by outcome. The
// response body is identical for applied and skipped transitions, so this
// counter (and the logs) is where the three distinct skip reasons surface.
var WebhookOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pwg",
		Subsystem: "webhook",
		Name:      "notifications_total",
		Help:      "Total number of webhook notifications by outcome",
	},
	[]string{"outcome"},
)

// Outcome label values.
const (
	OutcomeAuthFailed     = "auth_failed"
	OutcomeMalformed      = "malformed"
	OutcomeOrderNotFound  = "order_not_found"
	OutcomeApplied        = "applied"
	OutcomeRefundApplied  = "refund_applied"
	OutcomeRefundRejected = "refund_rejected"
	OutcomeInternalFault  = "internal_fault"

	// Skip outcomes are prefixed with "skipped_" followed by the guard reason.
	OutcomeSkippedPrefix = "skipped_"
)

func init() {
	Registry.MustRegister(WebhookOutcomes)
}
