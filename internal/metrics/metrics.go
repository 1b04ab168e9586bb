// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidytasks_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidytasks_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	ListsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidytasks_lists_created_total",
			Help: "Total number of task lists created",
		},
	)

	TasksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidytasks_tasks_created_total",
			Help: "Total number of tasks created",
		},
	)

	// NotificationsSent counts notification deliveries by channel and outcome.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidytasks_notifications_sent_total",
			Help: "Total number of notifications delivered",
		},
		[]string{"channel", "status"}, // status: success, failed
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidytasks_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordNotification records one notification delivery attempt.
func RecordNotification(channel string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	NotificationsSent.WithLabelValues(channel, status).Inc()
}
