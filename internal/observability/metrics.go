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
			Name: "retrochat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrochat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrochat_presence_evictions_total",
			Help: "Total number of users evicted for inactivity.",
		},
		[]string{"scope"},
	)
	roomsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retrochat_rooms_created_total",
			Help: "Total number of private rooms created.",
		},
	)
	roomsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retrochat_rooms_swept_total",
			Help: "Total number of stale empty rooms deleted by the sweep.",
		},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrochat_commands_total",
			Help: "Total number of slash commands interpreted.",
		},
		[]string{"verb"},
	)
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrochat_messages_total",
			Help: "Total number of messages appended to a log.",
		},
		[]string{"scope", "type"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retrochat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		evictionsTotal,
		roomsCreatedTotal,
		roomsSweptTotal,
		commandsTotal,
		messagesTotal,
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

func AddEvictions(scope string, n int) {
	if n > 0 {
		evictionsTotal.WithLabelValues(scope).Add(float64(n))
	}
}

func IncRoomsCreated() {
	roomsCreatedTotal.Inc()
}

func AddRoomsSwept(n int) {
	if n > 0 {
		roomsSweptTotal.Add(float64(n))
	}
}

func IncCommand(verb string) {
	commandsTotal.WithLabelValues(verb).Inc()
}

func IncMessages(scope, messageType string) {
	messagesTotal.WithLabelValues(scope, messageType).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
