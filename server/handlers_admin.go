package server

import (
	"net/http"

	"github.com/leafsk/gmeetings/events"
)

// HandleAdminMonitor returns the monitoring job's operational stats.
func (h *Handlers) HandleAdminMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	stats := map[string]any{}
	var lastRun string
	_ = h.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key='job_monitor_last'`).Scan(&lastRun)
	if lastRun != "" {
		stats["job_monitor_last"] = lastRun
	}

	if live, err := events.CountLive(ctx, h.db); err == nil {
		stats["live_events"] = live
	}
	var autoEnded, overridden, strikes int
	_ = h.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE auto_ended_reason IS NOT NULL`).Scan(&autoEnded)
	_ = h.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE manual_override AND status='live'`).Scan(&overridden)
	_ = h.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE status='live' AND consecutive_failures > 0`).Scan(&strikes)
	stats["auto_ended_total"] = autoEnded
	stats["overridden_live"] = overridden
	stats["live_with_strikes"] = strikes

	stats["check_interval"] = h.cfg.CheckInterval.String()
	stats["grace_period"] = h.cfg.GracePeriod.String()
	stats["failure_threshold"] = h.cfg.FailureThreshold
	stats["run_timeout"] = h.cfg.RunTimeout.String()
	stats["max_concurrent_checks"] = h.cfg.MaxConcurrentChecks

	writeJSON(w, http.StatusOK, stats)
}

// HandleAdminMonitorRun kicks off a monitoring run outside the schedule. The
// run happens in the background; the response only acknowledges the start.
func (h *Handlers) HandleAdminMonitorRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.mon == nil {
		http.Error(w, "monitor not running", http.StatusServiceUnavailable)
		return
	}
	go h.mon.RunOnce(h.ctx)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
