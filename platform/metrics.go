package platform

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	ginmiddleware "github.com/slok/go-http-metrics/middleware/gin"
)

var (
	completionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_stream_duration_seconds",
			Help:    "The duration of completion streams.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"provider", "result"},
	)
	completionChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_chunks_total",
			Help: "The number of chunks relayed to callers.",
		},
		[]string{"provider"},
	)
	completionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_tokens_total",
			Help: "Token usage reported by providers.",
		},
		[]string{"provider", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		collectors.NewBuildInfoCollector(),
		completionLatency,
		completionChunks,
		completionTokens,
	)
}

func ObserveCompletion(provider, result string, startAt time.Time) {
	completionLatency.WithLabelValues(provider, result).Observe(time.Since(startAt).Seconds())
}

func CountChunk(provider string) {
	completionChunks.WithLabelValues(provider).Inc()
}

func CountTokens(provider string, input, output *int64) {
	if input != nil {
		completionTokens.WithLabelValues(provider, "input").Add(float64(*input))
	}
	if output != nil {
		completionTokens.WithLabelValues(provider, "output").Add(float64(*output))
	}
}

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// MetricMiddleware records request metrics for every route of the engine.
func MetricMiddleware(prefix string) gin.HandlerFunc {
	return routeMetrics(newHTTPMetrics(prefix, prometheus.DefaultRegisterer))
}

func newHTTPMetrics(prefix string, registry prometheus.Registerer) middleware.Middleware {
	return middleware.New(middleware.Config{
		Recorder: metrics.NewRecorder(metrics.Config{
			Prefix:   prefix,
			Registry: registry,
		}),
	})
}

// routeMetrics labels each request with its route template so path parameters
// do not create new series.
func routeMetrics(mdlw middleware.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		ginmiddleware.Handler(route, mdlw)(c)
	}
}
