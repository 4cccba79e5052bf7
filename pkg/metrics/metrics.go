// Package metrics exposes Prometheus instrumentation for action resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for Resolutions.
const (
	OutcomeAvailable = "available"
	OutcomeHidden    = "hidden"
	OutcomeInvalid   = "invalid"
	OutcomeUnknown   = "unknown_action"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

var (
	// Resolutions counts action resolutions.
	// Labels: method (getAction, listActions), outcome
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_actions",
		Name:      "resolutions_total",
		Help:      "Total action resolutions by method and outcome",
	}, []string{"method", "outcome"})

	// Requests counts dispatched requests.
	// Labels: method, status (ok, error)
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_actions",
		Name:      "requests_total",
		Help:      "Total dispatched requests by method and status",
	}, []string{"method", "status"})

	// RequestDuration measures request handling latency.
	// Labels: method
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "content_actions",
		Name:      "request_duration_seconds",
		Help:      "Request handling latency in seconds",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method"})

	// EventPublishFailures counts action events that could not be published.
	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "content_actions",
		Name:      "event_publish_failures_total",
		Help:      "Total action events that failed to publish",
	})
)

// RecordResolution increments the resolution counter.
func RecordResolution(method, outcome string) {
	Resolutions.WithLabelValues(method, outcome).Inc()
}

// RecordRequest records one dispatched request and its latency.
func RecordRequest(method string, ok bool, elapsed time.Duration) {
	status := "ok"
	if !ok {
		status = "error"
	}
	Requests.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
