package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchasesTotal counts purchase attempts by outcome.
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unicornfarm_purchases_total",
		Help: "Total number of unicorn purchase attempts by outcome",
	}, []string{"outcome"})

	// MailDeliveryLatency records how long digest delivery took.
	MailDeliveryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unicornfarm_mail_delivery_seconds",
		Help:    "Purchase digest delivery latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	// PostsTotal counts post mutations by operation.
	PostsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unicornfarm_posts_total",
		Help: "Total number of post mutations by operation",
	}, []string{"operation"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unicornfarm_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unicornfarm_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveMailDelivery records a delivery attempt that started at start.
func ObserveMailDelivery(start time.Time, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	MailDeliveryLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
