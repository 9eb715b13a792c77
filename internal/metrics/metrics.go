// Package metrics provides Prometheus instrumentation for backend round trips.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for a round trip
const (
	OutcomeOK           = "ok"
	OutcomeAPIError     = "api_error"
	OutcomeNetworkError = "network_error"
	OutcomeParseError   = "parse_error"
)

// Metrics holds the client's collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	// RoundTrips counts completed round trips by endpoint and outcome.
	RoundTrips *prometheus.CounterVec
	// RoundTripDuration tracks round-trip latency by endpoint.
	RoundTripDuration *prometheus.HistogramVec
	// StaleDiscarded counts replies dropped because their generation was superseded.
	StaleDiscarded *prometheus.CounterVec
	// Submissions counts accepted user submissions by kind (chat or action name).
	Submissions *prometheus.CounterVec
}

// New creates a Metrics with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RoundTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_round_trips_total",
				Help: "Backend round trips by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		RoundTripDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copilot_round_trip_duration_seconds",
				Help:    "Backend round-trip duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"endpoint"},
		),
		StaleDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_stale_replies_discarded_total",
				Help: "Replies discarded because a newer request superseded them",
			},
			[]string{"component"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_submissions_total",
				Help: "Accepted user submissions by kind",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.RoundTrips, m.RoundTripDuration, m.StaleDiscarded, m.Submissions)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRoundTrip records one finished round trip
func (m *Metrics) ObserveRoundTrip(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RoundTrips.WithLabelValues(endpoint, outcome).Inc()
	m.RoundTripDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Discarded records a stale reply dropped by component ("chat" or "actions")
func (m *Metrics) Discarded(component string) {
	if m == nil {
		return
	}
	m.StaleDiscarded.WithLabelValues(component).Inc()
}

// Submitted records an accepted submission of kind
func (m *Metrics) Submitted(kind string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind).Inc()
}

// WriteTextfile dumps the registry in text exposition format to path,
// suitable for a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
