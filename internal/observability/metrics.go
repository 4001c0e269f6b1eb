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

// Metrics stores Prometheus collectors for the delivery core and the ops
// HTTP surface. It satisfies the dispatcher's metrics hooks.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	deliveredTotal      *prometheus.CounterVec
	failedTotal         *prometheus.CounterVec
	attemptDuration     *prometheus.HistogramVec
	retryScheduledTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pos_notifier",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pos_notifier",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		deliveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pos_notifier",
				Name:      "notifications_delivered_total",
				Help:      "Total number of notifications delivered successfully.",
			},
			[]string{"channel"},
		),
		failedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pos_notifier",
				Name:      "notifications_failed_total",
				Help:      "Total number of notifications that reached a terminal failure.",
			},
			[]string{"channel"},
		),
		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pos_notifier",
				Name:      "delivery_attempt_duration_seconds",
				Help:      "Provider attempt duration in seconds by channel and outcome.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"channel", "outcome"},
		),
		retryScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pos_notifier",
				Name:      "retry_scheduled_total",
				Help:      "Total number of delivery retries scheduled.",
			},
			[]string{"channel"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.deliveredTotal,
		m.failedTotal,
		m.attemptDuration,
		m.retryScheduledTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterQueueDepth exposes the delivery lane backlog as a gauge. Call once
// during wiring; depth must be safe for concurrent use.
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	if m == nil || m.registry == nil || depth == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "pos_notifier",
			Name:      "delivery_queue_depth",
			Help:      "Number of tasks waiting in the delivery lane.",
		},
		func() float64 { return float64(depth()) },
	))
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

// ObserveAttempt records one provider attempt.
func (m *Metrics) ObserveAttempt(channel string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.attemptDuration.WithLabelValues(normalizeChannel(channel), outcome).Observe(seconds)
}

func (m *Metrics) Delivered(channel string) {
	if m == nil {
		return
	}
	m.deliveredTotal.WithLabelValues(normalizeChannel(channel)).Inc()
}

func (m *Metrics) Exhausted(channel string) {
	if m == nil {
		return
	}
	m.failedTotal.WithLabelValues(normalizeChannel(channel)).Inc()
}

func (m *Metrics) RetryScheduled(channel string) {
	if m == nil {
		return
	}
	m.retryScheduledTotal.WithLabelValues(normalizeChannel(channel)).Inc()
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

func normalizeChannel(channel string) string {
	normalized := strings.ToLower(strings.TrimSpace(channel))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
