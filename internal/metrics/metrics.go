package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	WebhookEventsTotal *prometheus.CounterVec
	UpgradesTotal      *prometheus.CounterVec
	CheckoutsTotal     *prometheus.CounterVec
	OTPEmailsTotal     *prometheus.CounterVec
	MarketFetchesTotal *prometheus.CounterVec
}

// New creates and registers all metrics on registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "predictor_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_webhook_events_total",
				Help: "Webhook deliveries by provider, event type and outcome",
			},
			[]string{"provider", "type", "outcome"},
		),
		UpgradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_plan_upgrades_total",
				Help: "Plan upgrade operations by result",
			},
			[]string{"result"},
		),
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_checkouts_total",
				Help: "Checkout link requests by outcome",
			},
			[]string{"outcome"},
		),
		OTPEmailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_otp_emails_total",
				Help: "OTP email sends by outcome",
			},
			[]string{"outcome"},
		),
		MarketFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_market_fetches_total",
				Help: "Market data lookups by source (cache or upstream) and outcome",
			},
			[]string{"source", "outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WebhookEventsTotal,
		m.UpgradesTotal,
		m.CheckoutsTotal,
		m.OTPEmailsTotal,
		m.MarketFetchesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordWebhook(provider, eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(provider, eventType, outcome).Inc()
}

func (m *Metrics) RecordUpgrade(result string) {
	if m == nil {
		return
	}
	m.UpgradesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCheckout(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordOTPEmail(outcome string) {
	if m == nil {
		return
	}
	m.OTPEmailsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordMarketFetch(source, outcome string) {
	if m == nil {
		return
	}
	m.MarketFetchesTotal.WithLabelValues(source, outcome).Inc()
}
