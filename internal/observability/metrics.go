package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for fetches and hashes.
type Metrics struct {
	// Fetch metrics
	FetchesTotal  atomic.Int64
	FetchesFailed atomic.Int64
	BytesRead     atomic.Int64

	// Concurrency
	InFlight    atomic.Int64
	MaxInFlight atomic.Int64

	// Hash metrics
	HashesTotal  atomic.Int64
	HashesFailed atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// TrackStart records a fetch entering flight and updates the high-water mark.
func (m *Metrics) TrackStart() {
	n := m.InFlight.Add(1)
	for {
		peak := m.MaxInFlight.Load()
		if n <= peak || m.MaxInFlight.CompareAndSwap(peak, n) {
			return
		}
	}
}

// TrackDone records a fetch leaving flight.
func (m *Metrics) TrackDone(bytes int, err error) {
	m.InFlight.Add(-1)
	m.FetchesTotal.Add(1)
	if err != nil {
		m.FetchesFailed.Add(1)
		return
	}
	m.BytesRead.Add(int64(bytes))
}

// TrackHash records a finished hash computation.
func (m *Metrics) TrackHash(bytes int64, err error) {
	m.HashesTotal.Add(1)
	if err != nil {
		m.HashesFailed.Add(1)
		return
	}
	m.BytesRead.Add(bytes)
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"fetchkit_fetches_total", "Total fetches completed", "counter", m.FetchesTotal.Load()},
		{"fetchkit_fetches_failed_total", "Total failed fetches", "counter", m.FetchesFailed.Load()},
		{"fetchkit_bytes_read_total", "Total bytes read", "counter", m.BytesRead.Load()},
		{"fetchkit_in_flight", "Fetches currently in flight", "gauge", m.InFlight.Load()},
		{"fetchkit_max_in_flight", "Highest observed fetches in flight", "gauge", m.MaxInFlight.Load()},
		{"fetchkit_hashes_total", "Total hashes computed", "counter", m.HashesTotal.Load()},
		{"fetchkit_hashes_failed_total", "Total failed hashes", "counter", m.HashesFailed.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"fetches_total":  m.FetchesTotal.Load(),
		"fetches_failed": m.FetchesFailed.Load(),
		"bytes_read":     m.BytesRead.Load(),
		"in_flight":      m.InFlight.Load(),
		"max_in_flight":  m.MaxInFlight.Load(),
		"hashes_total":   m.HashesTotal.Load(),
		"hashes_failed":  m.HashesFailed.Load(),
	}
}
