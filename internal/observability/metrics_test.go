package observability

import (
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestTrackInFlightPeak(t *testing.T) {
	m := NewMetrics(testLogger)

	m.TrackStart()
	m.TrackStart()
	m.TrackStart()
	m.TrackDone(10, nil)
	m.TrackDone(0, errors.New("boom"))
	m.TrackStart()
	m.TrackDone(5, nil)
	m.TrackDone(5, nil)

	snap := m.Snapshot()
	if snap["in_flight"] != 0 {
		t.Errorf("expected 0 in flight, got %d", snap["in_flight"])
	}
	if snap["max_in_flight"] != 3 {
		t.Errorf("expected peak 3, got %d", snap["max_in_flight"])
	}
	if snap["fetches_total"] != 4 || snap["fetches_failed"] != 1 {
		t.Errorf("unexpected fetch counts: %v", snap)
	}
	if snap["bytes_read"] != 20 {
		t.Errorf("expected 20 bytes, got %d", snap["bytes_read"])
	}
}

func TestTrackStartConcurrent(t *testing.T) {
	m := NewMetrics(testLogger)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.TrackStart()
			m.TrackDone(1, nil)
		}()
	}
	wg.Wait()

	if m.InFlight.Load() != 0 {
		t.Errorf("expected 0 in flight, got %d", m.InFlight.Load())
	}
	if peak := m.MaxInFlight.Load(); peak < 1 || peak > 50 {
		t.Errorf("peak out of range: %d", peak)
	}
}

func TestServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.TrackHash(3, nil)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE fetchkit_in_flight gauge",
		"fetchkit_hashes_total 1",
		"fetchkit_bytes_read_total 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output:\n%s", want, body)
		}
	}
}
