// Package platform contains the per-platform liveness probe adapters behind a
// single capability interface. A probe is a read-only network call; its result
// is a tagged Verdict rather than a plain boolean so callers can distinguish
// "the platform says the stream is offline" from "the API call failed".
package platform

import (
	"context"
	"time"

	"github.com/leafsk/gmeetings/config"
	"github.com/leafsk/gmeetings/streamurl"
)

// Verdict is the outcome of one liveness probe.
//
// IsValid=false means the call failed or returned ambiguous data; it must not
// be read as "stream offline". IsValid=true, IsLive=false is the platform
// authoritatively reporting the stream is not broadcasting.
type Verdict struct {
	IsLive  bool   `json:"isLive"`
	IsValid bool   `json:"isValid"`
	Err     string `json:"error,omitempty"`

	// Advisory metadata for the status proxy; never drives control flow.
	Title           string `json:"title,omitempty"`
	ViewerCount     int    `json:"viewerCount,omitempty"`
	BroadcastStatus string `json:"broadcastStatus,omitempty"`
}

// Request carries everything an adapter may need for one probe. Identifier is
// nil when the stream URL did not match any known pattern for the platform.
type Request struct {
	Platform   string
	Identifier *streamurl.Identifier

	// Scheduled window, used by platforms with no public liveness API.
	Start time.Time
	End   time.Time
}

// Prober is the capability interface implemented by each platform adapter.
// A returned error is transient (network, 5xx) and worth retrying; a Verdict
// with IsValid=false is terminal for this attempt.
type Prober interface {
	Probe(ctx context.Context, req Request) (Verdict, error)
}

// Client routes probes to the adapter registered for the event's platform tag.
// Platforms without an adapter fall back to the schedule-window prober, the
// same convention the directory UI applies to zoom/meet/other events.
type Client struct {
	probers  map[string]Prober
	fallback Prober
}

// NewClient wires the default adapter set from configuration.
func NewClient(cfg *config.Config) *Client {
	sched := ScheduleProber{}
	return &Client{
		probers: map[string]Prober{
			"youtube": &YouTubeProber{APIKey: cfg.YouTubeAPIKey},
			"twitch":  &TwitchProber{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret},
			"zoom":    sched,
			"meet":    sched,
		},
		fallback: sched,
	}
}

// NewClientWithProbers builds a client over an explicit adapter map (tests).
func NewClientWithProbers(probers map[string]Prober, fallback Prober) *Client {
	if fallback == nil {
		fallback = ScheduleProber{}
	}
	return &Client{probers: probers, fallback: fallback}
}

// Probe extracts the identifier for the URL and dispatches to the platform's
// adapter. An unrecognized URL is an invalid verdict, not an error: there is
// nothing a retry could repair.
func (c *Client) Probe(ctx context.Context, platform, rawURL string, start, end time.Time) (Verdict, error) {
	req := Request{
		Platform:   platform,
		Identifier: streamurl.Extract(platform, rawURL),
		Start:      start,
		End:        end,
	}
	p, ok := c.probers[platform]
	if !ok {
		p = c.fallback
	}
	if req.Identifier == nil && requiresIdentifier(p) {
		return Verdict{IsValid: false, Err: "unrecognized stream url for platform " + platform}, nil
	}
	return p.Probe(ctx, req)
}

func requiresIdentifier(p Prober) bool {
	_, isSchedule := p.(ScheduleProber)
	return !isSchedule
}
