package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/leafsk/gmeetings/events"
	"github.com/leafsk/gmeetings/telemetry"
	"golang.org/x/sync/errgroup"
)

// StartMonitorJob runs monitoring ticks until ctx is cancelled. Each tick
// starts its run in a goroutine so a slow batch never delays the next tick;
// the run-level timeout keeps overlap bounded in practice.
func StartMonitorJob(ctx context.Context, m *Monitor) {
	slog.Info("monitor job starting",
		slog.Duration("interval", m.CheckInterval),
		slog.Duration("run_timeout", m.RunTimeout),
		slog.Int("max_concurrent", m.MaxConcurrent))
	// Kick an immediate run so we don't wait a full interval after boot.
	go m.RunOnce(ctx)
	ticker := time.NewTicker(m.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor job stopped")
			return
		case <-ticker.C:
			go m.RunOnce(ctx)
		}
	}
}

// RunOnce checks every live event once. Failures of individual events are
// contained by CheckEvent; the run only aborts wholesale when listing the
// candidates fails. If the batch is still going at the run timeout it is
// abandoned (the probes are idempotent reads) and summarized as incomplete.
func (m *Monitor) RunOnce(ctx context.Context) {
	telemetry.CountRun()
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, m.RunTimeout)
	defer cancel()

	_, _ = m.DB.ExecContext(runCtx, `INSERT INTO kv (key,value,updated_at) VALUES ('job_monitor_last', to_char(NOW() AT TIME ZONE 'UTC','YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'), NOW())
		ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`)

	evs, err := events.ListLive(runCtx, m.DB)
	if err != nil {
		slog.Warn("list live events", slog.Any("err", err), slog.String("component", "monitor"))
		return
	}
	telemetry.SetLiveEvents(len(evs))
	if len(evs) == 0 {
		slog.Debug("no live events to check", slog.String("component", "monitor"))
		return
	}

	var live, ended, offline, unreliable, skipped, failed atomic.Int64
	g := &errgroup.Group{}
	if m.MaxConcurrent > 0 {
		g.SetLimit(m.MaxConcurrent)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, ev := range evs {
			ev := ev
			g.Go(func() error {
				_ = telemetry.TimeFunc(telemetry.CheckDuration, func() {
					switch m.CheckEvent(runCtx, ev) {
					case OutcomeLive:
						live.Add(1)
					case OutcomeEnded:
						ended.Add(1)
					case OutcomeOffline:
						offline.Add(1)
					case OutcomeUnreliable:
						unreliable.Add(1)
					case OutcomeSkipped:
						skipped.Add(1)
					default:
						failed.Add(1)
					}
				})
				return nil
			})
		}
		_ = g.Wait()
	}()

	complete := true
	select {
	case <-done:
	case <-runCtx.Done():
		complete = false
	}
	dur := time.Since(start)
	if telemetry.RunDuration != nil {
		telemetry.RunDuration.Observe(dur.Seconds())
	}
	slog.Info("monitoring run finished",
		slog.String("component", "monitor"),
		slog.Int("candidates", len(evs)),
		slog.Int64("confirmed_live", live.Load()),
		slog.Int64("ended", ended.Load()),
		slog.Int64("appears_offline", offline.Load()),
		slog.Int64("api_unreliable", unreliable.Load()),
		slog.Int64("skipped", skipped.Load()),
		slog.Int64("errors", failed.Load()),
		slog.Bool("complete", complete),
		slog.Duration("duration", dur))
}
