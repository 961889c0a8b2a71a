package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRetries counts transient REST failures that triggered a retry.
	APIRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_retries_total",
			Help: "Total REST requests retried after a transient failure",
		},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total REST requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	LockRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_lock_requests_total",
			Help: "Total seat lock/unlock intents sent",
		},
		[]string{"intent"},
	)

	LockFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_lock_failures_total",
			Help: "Total lock attempts rejected by the server",
		},
	)

	PollCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_poll_cycles_total",
			Help: "Total booking-refresh poll cycles completed",
		},
	)

	RealtimeFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_frames_total",
			Help: "Total realtime frames received by type",
		},
		[]string{"frame"},
	)
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
