package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"operation"},
	)

	// outcome: success, forbidden, not_found, invalid, error
	TaskOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_operations_total",
			Help: "Total number of task operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	AuthAttemptCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of register/login attempts by outcome",
		},
		[]string{"kind", "outcome"},
	)

	DashboardCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_total",
			Help: "Dashboard cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	EventPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_total",
			Help: "Domain events published to the broker by outcome",
		},
		[]string{"routing_key", "outcome"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery counts a slow statement by its leading SQL verb.
func IncrementSlowQuery(operation string) {
	SlowQueryCount.WithLabelValues(operation).Inc()
}

func IncrementTaskOperation(operation, outcome string) {
	TaskOperationCount.WithLabelValues(operation, outcome).Inc()
}

func IncrementAuthAttempt(kind, outcome string) {
	AuthAttemptCount.WithLabelValues(kind, outcome).Inc()
}

func IncrementDashboardCache(result string) {
	DashboardCacheCount.WithLabelValues(result).Inc()
}

func IncrementEventPublish(routingKey, outcome string) {
	EventPublishCount.WithLabelValues(routingKey, outcome).Inc()
}
