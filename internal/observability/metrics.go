package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectify_http_requests_total",
			Help: "Total number of HTTP requests processed by the signaling service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connectify_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectify_ws_active_connections",
			Help: "Number of active signaling connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectify_ws_events_total",
			Help: "Total number of signaling events by direction.",
		},
		[]string{"event", "direction"},
	)
	roomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectify_rooms_active",
			Help: "Number of rooms with at least one member.",
		},
	)
	assistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectify_assistant_requests_total",
			Help: "Assistant requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	assistantAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectify_assistant_attempts_total",
			Help: "Calls made to the AI provider by model role.",
		},
		[]string{"target"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connectify_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		roomsActive,
		assistantRequestsTotal,
		assistantAttemptsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event, direction string) {
	wsEventsTotal.WithLabelValues(event, direction).Inc()
}

func IncRoomsActive() {
	roomsActive.Inc()
}

func DecRoomsActive() {
	roomsActive.Dec()
}

// IncAssistantRequest counts a finished trigger or summary; outcome is one of
// "ok", "error", "dropped" or "throttled".
func IncAssistantRequest(kind, outcome string) {
	assistantRequestsTotal.WithLabelValues(kind, outcome).Inc()
}

func IncAssistantAttempt(target string) {
	assistantAttemptsTotal.WithLabelValues(target).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
