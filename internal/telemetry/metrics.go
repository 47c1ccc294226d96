package telemetry

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_history_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_history_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_history_upstream_requests_total",
			Help: "Outbound provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// SearchFailures counts failed create requests by pipeline stage.
	SearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_history_search_failures_total",
			Help: "Failed searches by pipeline stage",
		},
		[]string{"stage"},
	)

	// RecordsCreated counts persisted history records.
	RecordsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_history_records_created_total",
		Help: "History records created",
	})

	// RecordsDeleted counts delete requests that reached the store successfully.
	RecordsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_history_records_deleted_total",
		Help: "History record delete requests served",
	})
)

// ObserveUpstream records the outcome ("ok", "error", "circuit_open", ...) of one provider call.
func ObserveUpstream(provider, outcome string) {
	upstreamRequests.WithLabelValues(provider, outcome).Inc()
}

// PrometheusMiddleware records request counts and latencies per route.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/metrics") {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		routePath := c.Route().Path
		if routePath == "" {
			routePath = path
		}
		status := responseStatus(c, err)

		httpRequestsTotal.WithLabelValues(c.Method(), routePath, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), routePath).Observe(time.Since(start).Seconds())
		return err
	}
}

// responseStatus is the status the client will see. A returned error is rendered later by
// the app's ErrorHandler, so its code wins over what the response holds now.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// PrometheusHandler serves the default registry for scraping.
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
