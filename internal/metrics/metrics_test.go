package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRoundTrip(t *testing.T) {
	m := New()

	m.ObserveRoundTrip("/api/chat", OutcomeOK, 250*time.Millisecond)
	m.ObserveRoundTrip("/api/chat", OutcomeOK, time.Second)
	m.ObserveRoundTrip("/api/chat", OutcomeAPIError, time.Second)

	if got := testutil.ToFloat64(m.RoundTrips.WithLabelValues("/api/chat", OutcomeOK)); got != 2 {
		t.Errorf("ok round trips = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RoundTrips.WithLabelValues("/api/chat", OutcomeAPIError)); got != 1 {
		t.Errorf("api_error round trips = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.RoundTripDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestDiscardedAndSubmitted(t *testing.T) {
	m := New()
	m.Discarded("actions")
	m.Submitted("chat")
	m.Submitted("chat")

	if got := testutil.ToFloat64(m.StaleDiscarded.WithLabelValues("actions")); got != 1 {
		t.Errorf("discarded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("chat")); got != 2 {
		t.Errorf("submissions = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRoundTrip("/api/chat", OutcomeOK, time.Second)
	m.Discarded("chat")
	m.Submitted("chat")
	if err := m.WriteTextfile("/nonexistent/metrics.prom"); err != nil {
		t.Errorf("WriteTextfile on nil = %v, want nil", err)
	}
	if m.Registry() != nil {
		t.Error("Registry on nil should be nil")
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRoundTrip("/api/health", OutcomeOK, 10*time.Millisecond)

	path := filepath.Join(t.TempDir(), "out", "copilot.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `copilot_round_trips_total{endpoint="/api/health",outcome="ok"} 1`) {
		t.Errorf("textfile missing counter:\n%s", data)
	}
}
