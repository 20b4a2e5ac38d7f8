package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Server-wide Prometheus collectors, registered on the default
// registry and exposed on /metrics.
var (
	CheckInsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stride",
		Name:      "checkins_completed_total",
		Help:      "Number of completed daily check-ins.",
	})

	ProactiveMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stride",
		Name:      "proactive_messages_sent_total",
		Help:      "Proactive messages dispatched, by type and delivery status.",
	}, []string{"type", "status"})

	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stride",
		Name:      "webhook_requests_total",
		Help:      "Inbound webhook requests, by platform and outcome.",
	}, []string{"platform", "outcome"})

	LLMRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stride",
		Name:      "llm_request_duration_seconds",
		Help:      "Latency of LLM chat completions.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
	})

	LLMTokensUsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stride",
		Name:      "llm_tokens_used_total",
		Help:      "Total tokens consumed across LLM calls.",
	})
)
