package platform

import (
	"context"
	"time"
)

// ScheduleProber covers platforms with no public liveness API (zoom, meet,
// generic "other"). The scheduled window is treated as authoritative: the
// event is live iff now falls inside [start, end]. This mirrors how the
// directory UI has always rendered these events, so the monitor's grace-period
// logic is the only thing that will end them.
type ScheduleProber struct {
	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (s ScheduleProber) Probe(_ context.Context, req Request) (Verdict, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	live := !req.Start.IsZero() && !now.Before(req.Start) && (req.End.IsZero() || !now.After(req.End))
	return Verdict{IsValid: true, IsLive: live}, nil
}
