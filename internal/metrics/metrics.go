// Package metrics provides Prometheus metrics for the HdmiInput service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hdmiinput"

var (
	rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "HdmiInput method calls by method and reported success",
	}, []string{"method", "success"})

	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "duration_seconds",
		Help:      "Time spent handling HdmiInput methods and events",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"method"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications emitted by event name",
	}, []string{"event"})

	busEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_events_total",
		Help:      "Platform bus messages received by subject",
	}, []string{"subject"})

	halErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hal_errors_total",
		Help:      "Failed HAL operations by operation",
	}, []string{"op"})

	sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jsonrpc_sessions",
		Help:      "Open JSON-RPC WebSocket sessions",
	})
)

// ObserveCall records a finished method call or event handler.
func ObserveCall(method string, success bool, elapsed time.Duration) {
	rpcRequests.WithLabelValues(method, strconv.FormatBool(success)).Inc()
	rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveDuration records elapsed time for a handler without a success flag.
func ObserveDuration(method string, elapsed time.Duration) {
	rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// IncNotification counts an emitted notification.
func IncNotification(event string) {
	notifications.WithLabelValues(event).Inc()
}

// IncBusEvent counts a message received from the platform bus.
func IncBusEvent(subject string) {
	busEvents.WithLabelValues(subject).Inc()
}

// IncHALError counts a failed HAL operation. Empty ops are recorded as "unknown".
func IncHALError(op string) {
	if op == "" {
		op = "unknown"
	}
	halErrors.WithLabelValues(op).Inc()
}

// SessionOpened increments the open session gauge.
func SessionOpened() { sessions.Inc() }

// SessionClosed decrements the open session gauge.
func SessionClosed() { sessions.Dec() }
