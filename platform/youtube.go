package platform

import (
	"context"
	"sync"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// YouTubeProber checks liveness with a Data API v3 video lookup, reading
// snippet.liveBroadcastContent and liveStreamingDetails. Auth is a plain API
// key; the constructed service is cached for reuse across probes.
type YouTubeProber struct {
	APIKey   string
	Endpoint string // override for tests

	mu  sync.Mutex
	svc *yt.Service
}

func (p *YouTubeProber) service(ctx context.Context) (*yt.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.svc != nil {
		return p.svc, nil
	}
	opts := []option.ClientOption{option.WithAPIKey(p.APIKey)}
	if p.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.Endpoint))
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	p.svc = svc
	return svc, nil
}

// Probe implements Prober. A missing video is an authoritative offline
// verdict (deleted/private broadcasts are not live); an API failure is a
// transient error left to the retry wrapper.
func (p *YouTubeProber) Probe(ctx context.Context, req Request) (Verdict, error) {
	if p.APIKey == "" {
		return Verdict{IsValid: false, Err: "youtube api key not configured"}, nil
	}
	svc, err := p.service(ctx)
	if err != nil {
		return Verdict{}, err
	}
	resp, err := svc.Videos.List([]string{"snippet", "liveStreamingDetails"}).
		Id(req.Identifier.VideoID).
		Context(ctx).
		Do()
	if err != nil {
		return Verdict{}, err
	}
	if len(resp.Items) == 0 {
		return Verdict{IsValid: true, IsLive: false, Err: "video not found"}, nil
	}
	video := resp.Items[0]
	v := Verdict{
		IsValid:         true,
		IsLive:          video.Snippet.LiveBroadcastContent == "live",
		Title:           video.Snippet.Title,
		BroadcastStatus: video.Snippet.LiveBroadcastContent,
	}
	return v, nil
}
