package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/leafsk/gmeetings/events"
)

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests. Besides the database it
// verifies the monitor heartbeat is not stale; a missing heartbeat is fine
// (the job hasn't completed its first run yet).
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"monitor_heartbeat", func() error {
			var val string
			err := h.db.QueryRowContext(r.Context(),
				`SELECT value FROM kv WHERE key='job_monitor_last'`).Scan(&val)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return err
			}
			last, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return fmt.Errorf("unparseable heartbeat %q", val)
			}
			stale := 5 * h.cfg.CheckInterval
			if time.Since(last) > stale {
				return fmt.Errorf("last run %s ago exceeds %s", time.Since(last).Truncate(time.Second), stale)
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleStatus returns a lightweight public summary of the service.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	live, err := events.CountLive(ctx, h.db)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var lastRun string
	_ = h.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key='job_monitor_last'`).Scan(&lastRun)
	writeJSON(w, http.StatusOK, map[string]any{
		"liveEvents":       live,
		"lastMonitorRun":   lastRun,
		"checkInterval":    h.cfg.CheckInterval.String(),
		"gracePeriod":      h.cfg.GracePeriod.String(),
		"failureThreshold": h.cfg.FailureThreshold,
	})
}
