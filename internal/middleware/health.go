package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

// HealthChecker is one dependency probe (database, session store).
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a ping method, e.g. (*sql.DB).PingContext.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// runChecks probes every checker in parallel, each under its own timeout.
func runChecks(ctx context.Context, checkers map[string]HealthChecker) (map[string]CheckStatus, bool) {
	var (
		mu      sync.Mutex
		healthy = true
		out     = make(map[string]CheckStatus, len(checkers))
	)
	var g errgroup.Group
	for name, c := range checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			st := CheckStatus{Status: "healthy"}
			if err := c.Check(cctx); err != nil {
				st = CheckStatus{Status: "unhealthy", Message: err.Error()}
			}
			mu.Lock()
			out[name] = st
			if st.Status != "healthy" {
				healthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, healthy
}

func writeStatus(w http.ResponseWriter, ok bool, body HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler reports every dependency; any failure answers 503.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks, ok := runChecks(r.Context(), checkers)
		st := HealthStatus{Status: "healthy", Timestamp: time.Now(), Checks: checks}
		if !ok {
			st.Status = "unhealthy"
		}
		writeStatus(w, ok, st)
	}
}

// ReadinessHandler is HealthHandler without per-check detail, for load balancers.
func ReadinessHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := runChecks(r.Context(), checkers)
		st := HealthStatus{Status: "ready", Timestamp: time.Now()}
		if !ok {
			st.Status = "not ready"
		}
		writeStatus(w, ok, st)
	}
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
