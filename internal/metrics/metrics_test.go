package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	t.Parallel()

	m := New(Config{})
	m.ObserveRequest(http.MethodGet, "/downtime_schedules", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/downtime_schedules", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/downtime_schedules", http.StatusUnprocessableEntity, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/downtime_schedules", "200")); got != 2 {
		t.Fatalf("expected 2 GET requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/downtime_schedules", "422")); got != 1 {
		t.Fatalf("expected 1 failed POST, got %v", got)
	}
}

func TestMetrics_ObserveTransitions(t *testing.T) {
	t.Parallel()

	m := New(Config{})
	m.ObserveTransitions(2, 0, 2)
	m.ObserveTransitions(1, 1, 2)

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("started")); got != 3 {
		t.Fatalf("expected 3 started, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("ended")); got != 1 {
		t.Fatalf("expected 1 ended, got %v", got)
	}
	if got := testutil.ToFloat64(m.openWindows); got != 2 {
		t.Fatalf("expected 2 open windows, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New(Config{RuntimeCollectors: true})
	var dropped uint64 = 4
	m.TrackDropped("notifications_dropped_total", "Notifications discarded by the rate limit.", func() uint64 { return dropped })
	m.ObserveTransitions(1, 0, 1)

	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"downtime_scheduler_open_windows 1",
		"downtime_scheduler_notifications_dropped_total 4",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected scrape to contain %q", want)
		}
	}
}
