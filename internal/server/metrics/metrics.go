// Package metrics holds the Prometheus collectors of the socialid server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "socialid"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	reconciles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Credential reconciliations by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "platform",
			Name:      "verifications_total",
			Help:      "Platform ownership checks by platform and result.",
		},
		[]string{"platform", "result"},
	)

	verificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "platform",
			Name:      "verification_duration_seconds",
			Help:      "Duration of platform ownership checks.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11),
		},
		[]string{"platform"},
	)

	followingSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "following",
			Name:      "syncs_total",
			Help:      "Background following fetches by result.",
		},
		[]string{"result"},
	)

	profileRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "profile_refresh_total",
			Help:      "People refreshed by the profile job, by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total number of unary gRPC calls handled.",
		},
		[]string{"method", "code"},
	)
)

func init() {
	Registry.MustRegister(
		reconciles,
		verifications,
		verificationDuration,
		followingSyncs,
		profileRefreshes,
		httpRequests,
		httpDuration,
		grpcRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordReconcile(platform, outcome string) {
	reconciles.WithLabelValues(platform, outcome).Inc()
}

func RecordVerification(platform, result string, d time.Duration) {
	verifications.WithLabelValues(platform, result).Inc()
	verificationDuration.WithLabelValues(platform).Observe(d.Seconds())
}

func RecordFollowingSync(ok bool) {
	followingSyncs.WithLabelValues(result(ok)).Inc()
}

func RecordProfileRefresh(ok bool) {
	profileRefreshes.WithLabelValues(result(ok)).Inc()
}

func RecordGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

// Gin records request count and latency per route template.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if path == "/metrics" {
			return
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
