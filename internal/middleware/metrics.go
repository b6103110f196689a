package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics holds process-wide request and report counters.
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64
	NotesTotal         atomic.Uint64
	PhotosTotal        atomic.Uint64
	ReportsTotal       atomic.Uint64
	ReportsRunning     atomic.Int64
	ReportsFailed      atomic.Uint64
	StartTime          time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

func (m *Metrics) NoteAdded()  { m.NotesTotal.Add(1) }
func (m *Metrics) PhotoAdded() { m.PhotosTotal.Add(1) }

// ReportStarted bumps the running gauge; call the returned func with the outcome.
func (m *Metrics) ReportStarted() func(ok bool) {
	m.ReportsRunning.Add(1)
	return func(ok bool) {
		m.ReportsRunning.Add(-1)
		if ok {
			m.ReportsTotal.Add(1)
		} else {
			m.ReportsFailed.Add(1)
		}
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]any {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return map[string]any{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_in_progress": m.RequestsInProgress.Load(),
		"requests_success":     m.RequestsSuccess.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"notes_total":          m.NotesTotal.Load(),
		"photos_total":         m.PhotosTotal.Load(),
		"reports_total":        m.ReportsTotal.Load(),
		"reports_running":      m.ReportsRunning.Load(),
		"reports_failed":       m.ReportsFailed.Load(),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       ms.Alloc,
			"total_alloc_bytes": ms.TotalAlloc,
			"sys_bytes":         ms.Sys,
			"num_gc":            ms.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsTotal.Add(1)
		m.RequestsInProgress.Add(1)
		defer m.RequestsInProgress.Add(-1)

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			m.RequestsSuccess.Add(1)
		} else {
			m.RequestsFailed.Add(1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.Snapshot())
}
