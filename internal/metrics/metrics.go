// Package metrics provides Prometheus instrumentation for the BitGenius backend.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitgenius",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bitgenius",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ChainCallsTotal counts contract read and build calls by function and result.
	ChainCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitgenius",
			Name:      "chain_calls_total",
			Help:      "Total chain gateway calls by contract function and result.",
		},
		[]string{"function", "result"},
	)

	// ChainCallDuration observes chain gateway latency by contract function.
	ChainCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bitgenius",
			Name:      "chain_call_duration_seconds",
			Help:      "Chain gateway call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"function"},
	)

	// LogAppendsTotal counts agent log appends by outcome status.
	LogAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitgenius",
			Name:      "log_appends_total",
			Help:      "Total agent log entries appended by status.",
		},
		[]string{"status"},
	)

	// LogStoreErrorsTotal counts log store operation failures by operation.
	LogStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitgenius",
			Name:      "log_store_errors_total",
			Help:      "Total log store failures by operation.",
		},
		[]string{"operation"},
	)

	// AICompletionsTotal counts AI assistant completions by feature and result.
	AICompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitgenius",
			Name:      "ai_completions_total",
			Help:      "Total AI assistant completions by feature and result.",
		},
		[]string{"feature", "result"},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bitgenius", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bitgenius", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bitgenius", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bitgenius", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bitgenius", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bitgenius", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChainCallsTotal,
		ChainCallDuration,
		LogAppendsTotal,
		LogStoreErrorsTotal,
		AICompletionsTotal,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// ObserveChainCall records the outcome of a single chain gateway call.
func ObserveChainCall(function string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ChainCallsTotal.WithLabelValues(function, result).Inc()
}

// ObserveAICompletion records one assistant completion outcome.
func ObserveAICompletion(feature string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	AICompletionsTotal.WithLabelValues(feature, result).Inc()
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
