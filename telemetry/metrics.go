// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MonitorRuns     prometheus.Counter
	ChecksSucceeded prometheus.Counter
	ChecksFailed    prometheus.Counter
	ProbeRetries    prometheus.Counter
	EventsEnded     *prometheus.CounterVec // labelled by trigger: grace_period|failure_threshold|force_end

	// Histograms (seconds)
	RunDuration   prometheus.Observer
	CheckDuration prometheus.Observer

	// Gauges
	LiveEventsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MonitorRuns = promauto.NewCounter(prometheus.CounterOpts{Name: "monitor_runs_total", Help: "Number of monitoring runs started"})
		ChecksSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "monitor_checks_succeeded_total", Help: "Number of per-event checks that completed"})
		ChecksFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "monitor_checks_failed_total", Help: "Number of per-event checks that errored"})
		ProbeRetries = promauto.NewCounter(prometheus.CounterOpts{Name: "probe_retries_total", Help: "Number of probe retry attempts after a transient failure"})
		EventsEnded = promauto.NewCounterVec(prometheus.CounterOpts{Name: "monitor_events_ended_total", Help: "Number of events auto-ended, by trigger"}, []string{"trigger"})
		RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "monitor_run_duration_seconds", Help: "Full monitoring run duration seconds", Buckets: prometheus.DefBuckets})
		CheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "monitor_check_duration_seconds", Help: "Single event check duration seconds", Buckets: prometheus.DefBuckets})
		LiveEventsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "monitor_live_events", Help: "Live events seen by the most recent monitoring run"})
	})
}

// CountRun increments the run counter if metrics are initialized.
func CountRun() {
	if MonitorRuns != nil {
		MonitorRuns.Inc()
	}
}

// CountCheck increments the per-check outcome counter if metrics are initialized.
func CountCheck(ok bool) {
	if ok && ChecksSucceeded != nil {
		ChecksSucceeded.Inc()
	} else if !ok && ChecksFailed != nil {
		ChecksFailed.Inc()
	}
}

// CountRetry increments the probe retry counter if metrics are initialized.
func CountRetry() {
	if ProbeRetries != nil {
		ProbeRetries.Inc()
	}
}

// SetLiveEvents records how many live events the current run is checking.
func SetLiveEvents(n int) {
	if LiveEventsGauge != nil {
		LiveEventsGauge.Set(float64(n))
	}
}

// CountEnded increments the ended counter for a trigger if metrics are initialized.
func CountEnded(trigger string) {
	if EventsEnded != nil {
		EventsEnded.WithLabelValues(trigger).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
