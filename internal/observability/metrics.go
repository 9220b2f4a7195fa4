package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viaduct",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "viaduct",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	sessionFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viaduct",
			Subsystem: "session",
			Name:      "frames_total",
			Help:      "Raw-socket frames by direction and kind.",
		},
		[]string{"node", "direction", "kind"},
	)
	sessionFrameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "viaduct",
			Subsystem: "session",
			Name:      "frame_payload_bytes",
			Help:      "Raw-socket frame payload size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 10),
		},
		[]string{"node", "direction"},
	)
	sessionMessageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viaduct",
			Subsystem: "session",
			Name:      "message_failures_total",
			Help:      "Inbound data frames the handler failed to decode.",
		},
		[]string{"node"},
	)
	sessionHandshakes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viaduct",
			Subsystem: "session",
			Name:      "handshakes_total",
			Help:      "Raw-socket handshakes by result.",
		},
		[]string{"node", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionFrames, sessionFrameBytes, sessionMessageFailures, sessionHandshakes,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrame(node, direction, kind string, size int) {
	RegisterMetrics()
	sessionFrames.WithLabelValues(node, direction, kind).Inc()
	sessionFrameBytes.WithLabelValues(node, direction).Observe(float64(size))
}

func RecordMessageFailure(node string) {
	RegisterMetrics()
	sessionMessageFailures.WithLabelValues(node).Inc()
}

func RecordHandshake(node string, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	sessionHandshakes.WithLabelValues(node, result).Inc()
}
