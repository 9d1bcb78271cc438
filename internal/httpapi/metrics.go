package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_requests_total",
			Help: "Console page requests by route and status.",
		},
		[]string{"method", "path", "status"},
	)

	pageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_request_duration_seconds",
			Help:    "Console page latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Metrics records one observation per console request, labelled by route
// pattern.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		pageRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		pageRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
