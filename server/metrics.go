package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)

	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrcore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hrcore_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
	}
}

// Middleware records every request by route pattern. The status is read
// after the error handler has run so failed requests are labelled with
// the status the client saw.
func (m *HTTPMetrics) Middleware(skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			m.requests.WithLabelValues(method, path, status).Inc()
			m.duration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
