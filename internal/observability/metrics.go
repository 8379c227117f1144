package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDuration      *prometheus.HistogramVec
	paymentsInitiatedTotal   *prometheus.CounterVec
	paymentCallbacksTotal    *prometheus.CounterVec
	paymentRetriesTotal      *prometheus.CounterVec
	providerUnavailableTotal *prometheus.CounterVec
	providerInitDuration     *prometheus.HistogramVec
	paymentsTimedOutTotal    prometheus.Counter
	obligationBatchesTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "settlement_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		paymentsInitiatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "payments_initiated_total",
				Help:      "Total number of payment attempts initiated per provider.",
			},
			[]string{"provider"},
		),
		paymentCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "payment_callbacks_total",
				Help:      "Total number of provider callbacks grouped by provider and outcome.",
			},
			[]string{"provider", "result"},
		),
		paymentRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "payment_retries_total",
				Help:      "Total number of manual payment retries per provider.",
			},
			[]string{"provider"},
		),
		providerUnavailableTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "provider_unavailable_total",
				Help:      "Total number of failed availability probes per provider.",
			},
			[]string{"provider"},
		),
		providerInitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "settlement_engine",
				Name:      "provider_init_duration_seconds",
				Help:      "Payment initiation duration in seconds grouped by provider.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"provider"},
		),
		paymentsTimedOutTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "payments_timed_out_total",
				Help:      "Total number of processing attempts failed by the timeout scanner.",
			},
		),
		obligationBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_engine",
				Name:      "obligation_batches_total",
				Help:      "Total number of accounts-payable batches created per kind.",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.paymentsInitiatedTotal,
		m.paymentCallbacksTotal,
		m.paymentRetriesTotal,
		m.providerUnavailableTotal,
		m.providerInitDuration,
		m.paymentsTimedOutTotal,
		m.obligationBatchesTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncPaymentInitiated(provider string) {
	if m == nil {
		return
	}
	m.paymentsInitiatedTotal.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncPaymentCallback records a callback outcome: completed, failed,
// duplicate or unknown.
func (m *Metrics) IncPaymentCallback(provider string, result string) {
	if m == nil {
		return
	}
	resultLabel := normalizeLabel(result)
	m.paymentCallbacksTotal.WithLabelValues(normalizeLabel(provider), resultLabel).Inc()
}

func (m *Metrics) IncPaymentRetry(provider string) {
	if m == nil {
		return
	}
	m.paymentRetriesTotal.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *Metrics) IncProviderUnavailable(provider string) {
	if m == nil {
		return
	}
	m.providerUnavailableTotal.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *Metrics) ObserveProviderInitDuration(provider string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.providerInitDuration.WithLabelValues(normalizeLabel(provider)).Observe(seconds)
}

func (m *Metrics) IncPaymentTimedOut() {
	if m == nil {
		return
	}
	m.paymentsTimedOutTotal.Inc()
}

func (m *Metrics) IncObligationBatch(kind string) {
	if m == nil {
		return
	}
	m.obligationBatchesTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
