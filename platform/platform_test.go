package platform

import (
	"context"
	"testing"
	"time"
)

// fakeProber returns a canned verdict and records the request it saw.
type fakeProber struct {
	verdict Verdict
	err     error
	last    *Request
}

func (f *fakeProber) Probe(_ context.Context, req Request) (Verdict, error) {
	f.last = &req
	return f.verdict, f.err
}

func TestClientDispatchesByPlatform(t *testing.T) {
	yt := &fakeProber{verdict: Verdict{IsValid: true, IsLive: true}}
	c := NewClientWithProbers(map[string]Prober{"youtube": yt}, nil)

	v, err := c.Probe(context.Background(), "youtube", "https://youtu.be/abc123", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !v.IsLive {
		t.Fatalf("verdict = %+v, want live", v)
	}
	if yt.last == nil || yt.last.Identifier == nil || yt.last.Identifier.VideoID != "abc123" {
		t.Fatalf("adapter saw request %+v, want VideoID abc123", yt.last)
	}
}

func TestClientUnrecognizedURLIsInvalidVerdict(t *testing.T) {
	yt := &fakeProber{verdict: Verdict{IsValid: true, IsLive: true}}
	c := NewClientWithProbers(map[string]Prober{"youtube": yt}, nil)

	v, err := c.Probe(context.Background(), "youtube", "not a url", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if v.IsValid {
		t.Fatalf("verdict = %+v, want invalid", v)
	}
	if yt.last != nil {
		t.Error("adapter should not be invoked for unrecognized url")
	}
}

func TestClientFallsBackToSchedule(t *testing.T) {
	now := time.Now()
	c := NewClientWithProbers(nil, ScheduleProber{Now: func() time.Time { return now }})

	v, err := c.Probe(context.Background(), "webex", "https://example.webex.com/meet/x", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !v.IsValid || !v.IsLive {
		t.Fatalf("verdict = %+v, want valid live inside window", v)
	}
}

func TestScheduleProberOutsideWindow(t *testing.T) {
	now := time.Now()
	s := ScheduleProber{Now: func() time.Time { return now }}

	v, _ := s.Probe(context.Background(), Request{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)})
	if v.IsLive {
		t.Error("event before its window should not be live")
	}
	v, _ = s.Probe(context.Background(), Request{Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour)})
	if v.IsLive {
		t.Error("event after its window should not be live")
	}
	if !v.IsValid {
		t.Error("schedule verdicts are always valid")
	}
}

func TestVerdictCacheExpiry(t *testing.T) {
	now := time.Now()
	c := NewVerdictCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Put("youtube:abc", Verdict{IsValid: true, IsLive: true})
	if v, ok := c.Get("youtube:abc"); !ok || !v.IsLive {
		t.Fatalf("Get() = %+v/%v, want fresh hit", v, ok)
	}

	now = now.Add(61 * time.Second)
	if _, ok := c.Get("youtube:abc"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestVerdictCacheDisabled(t *testing.T) {
	c := NewVerdictCache(0)
	c.Put("k", Verdict{IsValid: true})
	if _, ok := c.Get("k"); ok {
		t.Error("zero-TTL cache should never hit")
	}
}
