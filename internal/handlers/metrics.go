package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "f1fantasy",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "f1fantasy",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"route", "method", "code"})
)

// MetricsHandler serves the Prometheus scrape endpoint
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Metrics records request counts and latency by matched route pattern.
// Unmatched requests are grouped under "unmatched" to bound cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec, info := recorderFor(w, r)
		next.ServeHTTP(rec, r)

		route := info.route
		if route == "" {
			route = "unmatched"
		}
		httpRequestsDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		httpRequestsCount.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
