// Package monitor implements the liveness engine: each tick it probes every
// live event's stream and ends events whose streams are gone, either because
// the platform reported them offline repeatedly or because the scheduled end
// plus grace period has passed.
package monitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leafsk/gmeetings/config"
	"github.com/leafsk/gmeetings/events"
	"github.com/leafsk/gmeetings/platform"
	"github.com/leafsk/gmeetings/telemetry"
)

// Outcome labels what one check decided about one event.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeLive       Outcome = "confirmed_live"
	OutcomeUnreliable Outcome = "api_unreliable"
	OutcomeOffline    Outcome = "appears_offline"
	OutcomeEnded      Outcome = "ended"
	OutcomeError      Outcome = "error"
)

// StatusProber is the slice of platform.Client the monitor needs.
type StatusProber interface {
	Probe(ctx context.Context, platform, rawURL string, start, end time.Time) (platform.Verdict, error)
}

// Monitor evaluates live events against their streams. There is no long-lived
// per-event state: everything it needs lives in the event row, so each tick
// evaluates from scratch.
type Monitor struct {
	DB     *sql.DB
	Client StatusProber
	Retry  RetryPolicy

	CheckInterval    time.Duration
	GracePeriod      time.Duration
	FailureThreshold int
	RunTimeout       time.Duration
	MaxConcurrent    int

	Now func() time.Time // injectable for tests
}

// New builds a monitor from configuration with the default platform client.
func New(dbc *sql.DB, cfg *config.Config) *Monitor {
	return &Monitor{
		DB:     dbc,
		Client: platform.NewClient(cfg),
		Retry: RetryPolicy{
			MaxRetries: cfg.ProbeMaxRetries,
			BaseDelay:  cfg.ProbeBaseDelay,
			MaxDelay:   cfg.ProbeMaxDelay,
			Multiplier: cfg.ProbeMultiplier,
		},
		CheckInterval:    cfg.CheckInterval,
		GracePeriod:      cfg.GracePeriod,
		FailureThreshold: cfg.FailureThreshold,
		RunTimeout:       cfg.RunTimeout,
		MaxConcurrent:    cfg.MaxConcurrentChecks,
	}
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// CheckEvent runs the full decision for one event. Unexpected failures (store
// writes, mostly) are absorbed here so one bad event cannot take down the
// rest of the run: they bump the failure counter as weak offline evidence but
// never end the event directly.
func (m *Monitor) CheckEvent(ctx context.Context, ev events.Event) Outcome {
	ctx, span := telemetry.StartSpan(ctx, "monitor", "check-event", telemetry.EventIDAttr(ev.ID))
	defer span.End()
	logger := telemetry.LoggerWithCorr(ctx).With("component", "monitor", "event_id", ev.ID)
	out, err := m.evaluate(ctx, ev)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.Error("event check failed", "err", err, "platform", ev.Platform)
		if n, ierr := events.RecordOffline(ctx, m.DB, ev.ID); ierr != nil {
			logger.Warn("could not record failure", "err", ierr)
		} else {
			logger.Debug("failure counter bumped after error", "consecutive_failures", n)
		}
		telemetry.CountCheck(false)
		return OutcomeError
	}
	telemetry.SetSpanSuccess(span)
	telemetry.CountCheck(true)
	return out
}

func (m *Monitor) evaluate(ctx context.Context, ev events.Event) (Outcome, error) {
	logger := telemetry.LoggerWithCorr(ctx).With("component", "monitor", "event_id", ev.ID)

	// Overridden, already ended, or nothing to probe: leave it alone. The
	// override is checked before anything else so organizer intent always
	// beats automation.
	if ev.Status != "live" || ev.ManualOverride || ev.StreamURL == "" {
		return OutcomeSkipped, nil
	}

	// Hard stop: past the scheduled end plus grace, the event ends no matter
	// what the platform would say. An event without a scheduled end has no
	// grace cutoff.
	if !ev.EndDate.IsZero() && m.now().After(ev.EndDate.Add(m.GracePeriod)) {
		err := events.End(ctx, m.DB, ev.ID, "exceeded grace period")
		if errors.Is(err, events.ErrNotPerformed) {
			return OutcomeSkipped, nil
		}
		if err != nil {
			return OutcomeError, err
		}
		telemetry.CountEnded("grace_period")
		logger.Info("event ended", "reason", "exceeded grace period")
		return OutcomeEnded, nil
	}

	v := ProbeWithRetry(ctx, m.Retry, func(ctx context.Context) (platform.Verdict, error) {
		return m.Client.Probe(ctx, ev.Platform, ev.StreamURL, ev.StartDate, ev.EndDate)
	})

	switch {
	case v.IsValid && v.IsLive:
		if err := events.RecordLive(ctx, m.DB, ev.ID); err != nil {
			return OutcomeError, err
		}
		return OutcomeLive, nil

	case !v.IsValid:
		// The platform call itself failed. That says nothing about the
		// stream, so the failure counter stays put.
		logger.Warn("probe unreliable", "platform", ev.Platform, "api_error", v.Err)
		if err := events.RecordUnreliable(ctx, m.DB, ev.ID, v.Err); err != nil {
			return OutcomeError, err
		}
		return OutcomeUnreliable, nil

	default:
		// Authoritative offline. One blip is forgiven; consecutive strikes
		// up to the threshold are not.
		n, err := events.RecordOffline(ctx, m.DB, ev.ID)
		if err != nil {
			return OutcomeError, err
		}
		if n < m.FailureThreshold {
			logger.Info("stream appears offline", "consecutive_failures", n, "threshold", m.FailureThreshold)
			return OutcomeOffline, nil
		}
		reason := fmt.Sprintf("offline for %d consecutive checks", n)
		err = events.End(ctx, m.DB, ev.ID, reason)
		if errors.Is(err, events.ErrNotPerformed) {
			return OutcomeOffline, nil
		}
		if err != nil {
			return OutcomeError, err
		}
		telemetry.CountEnded("failure_threshold")
		logger.Info("event ended", "reason", reason)
		return OutcomeEnded, nil
	}
}
