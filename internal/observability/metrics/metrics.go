package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Metrics exposes application-level instruments.
type Metrics struct {
	settlements        *prometheus.CounterVec
	checkoutsInitiated prometheus.Counter
	outboxPublished    *prometheus.CounterVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repomart_http_requests_total",
			Help: "Count of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repomart_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func New() *Metrics {
	return &Metrics{
		settlements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repomart_settlements_total",
			Help: "Count of settlement attempts by outcome.",
		}, []string{"outcome"}),
		checkoutsInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repomart_checkouts_initiated_total",
			Help: "Count of checkout initiations.",
		}),
		outboxPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repomart_outbox_published_total",
			Help: "Count of events published by the outbox relay.",
		}, []string{"topic"}),
	}
}

func (m *Metrics) RecordSettlement(outcome string) {
	if m == nil {
		return
	}
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		outcome = "unknown"
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCheckoutInitiated() {
	if m == nil {
		return
	}
	m.checkoutsInitiated.Inc()
}

func (m *Metrics) RecordOutboxPublished(topic string) {
	if m == nil {
		return
	}
	if topic == "" {
		topic = "unknown"
	}
	m.outboxPublished.WithLabelValues(topic).Inc()
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
