package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	dbConnectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_database_connect_total",
			Help: "Database connection attempts at startup",
		},
		[]string{"driver", "result"}, // success, failure
	)

	dbUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backend_database_up",
			Help: "1 while the data store handle is open",
		},
	)
)

// UnmatchedEndpoint labels requests that no route handled.
const UnmatchedEndpoint = "unmatched"

const unmatchedKey = "metrics_unmatched"

// PrometheusMiddleware creates a Fiber middleware for Prometheus metrics.
// Register MarkUnmatched after the last route so 404s and 405s are not
// attributed to a middleware path.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		method := c.Method()
		// Route path keeps label cardinality bounded for parameterised routes.
		path := c.Route().Path
		if unmatched, _ := c.Locals(unmatchedKey).(bool); unmatched {
			path = UnmatchedEndpoint
		}

		// Same mapping as the app's error handler, which runs after us.
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// MarkUnmatched only runs when every route before it declined the request.
// It tags the request and lets the router produce its usual 404 or 405.
func MarkUnmatched() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(unmatchedKey, true)
		return c.Next()
	}
}

// RecordDatabaseConnect counts a startup connection attempt
func RecordDatabaseConnect(driver string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	dbConnectTotal.WithLabelValues(driver, result).Inc()
}

// SetDatabaseUp updates the store gauge
func SetDatabaseUp(up bool) {
	if up {
		dbUp.Set(1)
		return
	}
	dbUp.Set(0)
}

// Handler serves the default registry in text exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}
