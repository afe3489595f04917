// Package middleware provides HTTP middleware for the application
package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Completion events partitioned by how the pipeline classified them
	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Completion events received, partitioned by processing outcome",
		},
		[]string{"outcome"},
	)

	// Reconciliation sweep results
	backfillEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_events_total",
			Help: "Queued events re-driven by reconciliation, partitioned by result",
		},
		[]string{"result"},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// CountWebhookEvent records one classified completion event
func CountWebhookEvent(outcome string) {
	webhookEventsTotal.WithLabelValues(outcome).Inc()
}

// CountBackfillEvents records the results of one reconciliation pass
func CountBackfillEvents(credited, ignored, failed int) {
	if credited > 0 {
		backfillEventsTotal.WithLabelValues("credited").Add(float64(credited))
	}
	if ignored > 0 {
		backfillEventsTotal.WithLabelValues("ignored").Add(float64(ignored))
	}
	if failed > 0 {
		backfillEventsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}
