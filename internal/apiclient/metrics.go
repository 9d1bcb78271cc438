package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garansi_api_requests_total",
		Help: "Requests sent to the Garansi+ API by method and status class.",
	}, []string{"method", "code"})

	apiDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "garansi_api_request_duration_seconds",
		Help:    "Latency of Garansi+ API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	sessionInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "garansi_session_invalidations_total",
		Help: "Stored credentials cleared after a 401/403 from the API.",
	})
)

func init() {
	prometheus.MustRegister(apiRequests, apiDuration, sessionInvalidations)
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
