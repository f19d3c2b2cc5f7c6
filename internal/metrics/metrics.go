// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// UpstreamRequestsTotal counts catalog API calls by resource kind and response status.
	// status_code is "error" when no response was received.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_catalog_requests_total",
			Help: "Total number of requests to the upstream catalog API",
		},
		[]string{"resource", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_catalog_request_duration_seconds",
			Help:    "Upstream catalog request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	// WatchlistMutationsTotal counts watchlist add/remove calls by outcome (added, removed, duplicate, invalid, error).
	WatchlistMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlist_mutations_total",
			Help: "Total number of watchlist mutations",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one upstream catalog call. A statusCode of 0 means transport failure.
func RecordUpstreamRequest(resource string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	UpstreamRequestsTotal.WithLabelValues(resource, status).Inc()
	UpstreamRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordWatchlistMutation records the outcome of a watchlist add or remove.
func RecordWatchlistMutation(operation, outcome string) {
	WatchlistMutationsTotal.WithLabelValues(operation, outcome).Inc()
}
