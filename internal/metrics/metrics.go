// Package metrics holds the bot's Prometheus collectors.
//
// Collectors are registered on an injected registry so tests and embedders
// can use their own. Every method is safe to call on a nil *Metrics, which
// lets components take metrics as an optional dependency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "doorman"

// Result labels shared by several collectors.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultUnreachable = "unreachable"
	ResultRateLimited = "rate_limited"
)

// Webhook request results.
const (
	WebhookAccepted     = "accepted"
	WebhookDecodeError  = "decode_error"
	WebhookUnauthorized = "unauthorized"
	WebhookPanic        = "panic"
)

// Metrics is the set of collectors exported by the bot.
type Metrics struct {
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	platformCalls    *prometheus.CounterVec
	platformLatency  *prometheus.HistogramVec
	platformRetries  *prometheus.CounterVec
	webhookRequests  *prometheus.CounterVec
	keepalivePings   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Inbound events dispatched, by event kind and outcome.",
		}, []string{"kind", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		platformCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_calls_total",
			Help:      "Bot API calls, by method and result.",
		}, []string{"method", "result"}),
		platformLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "platform_call_duration_seconds",
			Help:      "Bot API call latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		platformRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_retries_total",
			Help:      "Bot API calls retried after a rate limit response.",
		}, []string{"method"}),
		webhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook deliveries received, by result.",
		}, []string{"result"}),
		keepalivePings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_pings_total",
			Help:      "Keep-alive pings, by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.dispatches,
			m.dispatchDuration,
			m.platformCalls,
			m.platformLatency,
			m.platformRetries,
			m.webhookRequests,
			m.keepalivePings,
		)
	}
	return m
}

// ObserveDispatch records one dispatched event.
func (m *Metrics) ObserveDispatch(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(kind, outcome).Inc()
	m.dispatchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObservePlatformCall records one Bot API call.
func (m *Metrics) ObservePlatformCall(method, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.platformCalls.WithLabelValues(method, result).Inc()
	m.platformLatency.WithLabelValues(method).Observe(d.Seconds())
}

// ObservePlatformRetry records a retry after a rate limit response.
func (m *Metrics) ObservePlatformRetry(method string) {
	if m == nil {
		return
	}
	m.platformRetries.WithLabelValues(method).Inc()
}

// ObserveWebhook records one webhook delivery.
func (m *Metrics) ObserveWebhook(result string) {
	if m == nil {
		return
	}
	m.webhookRequests.WithLabelValues(result).Inc()
}

// ObservePing records one keep-alive ping.
func (m *Metrics) ObservePing(result string) {
	if m == nil {
		return
	}
	m.keepalivePings.WithLabelValues(result).Inc()
}
