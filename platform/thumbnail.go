package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leafsk/gmeetings/streamurl"
)

// Thumbnail is the resolved preview image for a stream. IsValid=false means a
// fallback URL was returned without confirmation it exists.
type Thumbnail struct {
	URL      string `json:"thumbnailUrl"`
	Platform string `json:"platform"`
	IsValid  bool   `json:"isValid"`
	Err      string `json:"error,omitempty"`
}

// youtubeThumbQualities in preference order; YouTube serves these at
// predictable URLs per video id.
var youtubeThumbQualities = []string{"maxresdefault", "hqdefault", "mqdefault", "default"}

// ThumbnailResolver resolves preview images per platform. It shares the
// Twitch adapter with the prober so both use one cached app token.
type ThumbnailResolver struct {
	Twitch *TwitchProber

	ImageBase  string // override for tests; default https://img.youtube.com
	HTTPClient *http.Client
}

func (t *ThumbnailResolver) http() *http.Client {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return http.DefaultClient
}

// Resolve returns the best available thumbnail for the given platform/URL.
// Width/height apply to Twitch only (its CDN renders on demand); pass 0 for
// the defaults. It never fails hard: on any error the lowest-quality
// predictable URL (or the Twitch placeholder) is returned with IsValid=false.
func (t *ThumbnailResolver) Resolve(ctx context.Context, platform, rawURL string, width, height int) Thumbnail {
	id := streamurl.Extract(platform, rawURL)
	if id == nil {
		return Thumbnail{Platform: platform, IsValid: false, Err: "unrecognized stream url for platform " + platform}
	}
	switch platform {
	case "youtube":
		return t.youtube(ctx, id.VideoID)
	case "twitch":
		return t.twitch(ctx, id.ChannelName, width, height)
	default:
		return Thumbnail{Platform: platform, IsValid: false, Err: "no thumbnail source for platform " + platform}
	}
}

func (t *ThumbnailResolver) youtube(ctx context.Context, videoID string) Thumbnail {
	base := t.ImageBase
	if base == "" {
		base = "https://img.youtube.com"
	}
	var last string
	for _, q := range youtubeThumbQualities {
		url := fmt.Sprintf("%s/vi/%s/%s.jpg", base, videoID, q)
		last = url
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			continue
		}
		resp, err := t.http().Do(req)
		if err != nil {
			continue
		}
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
		if resp.StatusCode == http.StatusOK {
			return Thumbnail{URL: url, Platform: "youtube", IsValid: true}
		}
	}
	return Thumbnail{URL: last, Platform: "youtube", IsValid: false}
}

func (t *ThumbnailResolver) twitch(ctx context.Context, login string, width, height int) Thumbnail {
	if t.Twitch == nil {
		return Thumbnail{Platform: "twitch", IsValid: false, Err: "twitch adapter not configured"}
	}
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 360
	}
	url, live, err := t.Twitch.LiveThumbnailURL(ctx, login, width, height)
	th := Thumbnail{URL: url, Platform: "twitch", IsValid: err == nil && live}
	if err != nil {
		th.Err = err.Error()
	}
	return th
}
