package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	twitchTokenURL = "https://id.twitch.tv/oauth2/token"
	twitchAPIBase  = "https://api.twitch.tv"
)

// TwitchProber checks liveness via the Helix active-streams endpoint using an
// app access (client credentials) token. The token is fetched lazily, cached,
// and refreshed by the underlying oauth2 token source.
// NOTE: an app token cannot act on behalf of a user; it is read-only here.
type TwitchProber struct {
	ClientID     string
	ClientSecret string
	TokenURL     string // override for tests
	BaseURL      string // override for tests
	HTTPClient   *http.Client

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// Stream is the subset of a Helix stream object the engine cares about.
type Stream struct {
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	GameID       string    `json:"game_id"`
	ThumbnailURL string    `json:"thumbnail_url"`
	StartedAt    time.Time `json:"started_at"`
}

func (p *TwitchProber) http() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *TwitchProber) tokenSource() oauth2.TokenSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tokens == nil {
		tokenURL := p.TokenURL
		if tokenURL == "" {
			tokenURL = twitchTokenURL
		}
		cc := &clientcredentials.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			TokenURL:     tokenURL,
		}
		ctx := context.Background()
		if p.HTTPClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
		}
		p.tokens = cc.TokenSource(ctx)
	}
	return p.tokens
}

// Streams queries active streams for a channel login. An empty slice means the
// channel is offline.
func (p *TwitchProber) Streams(ctx context.Context, login string) ([]Stream, error) {
	if login == "" {
		return nil, errors.New("login empty")
	}
	tok, err := p.tokenSource().Token()
	if err != nil {
		return nil, fmt.Errorf("twitch app token: %w", err)
	}
	base := p.BaseURL
	if base == "" {
		base = twitchAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/helix/streams", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("user_login", login)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", p.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := p.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitch streams request failed: %s: %s", resp.Status, string(b))
	}
	var body struct {
		Data []Stream `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// Probe implements Prober. Any stream for the login means live; an empty list
// is an authoritative offline verdict.
func (p *TwitchProber) Probe(ctx context.Context, req Request) (Verdict, error) {
	if p.ClientID == "" || p.ClientSecret == "" {
		return Verdict{IsValid: false, Err: "twitch api credentials not configured"}, nil
	}
	streams, err := p.Streams(ctx, req.Identifier.ChannelName)
	if err != nil {
		return Verdict{}, err
	}
	if len(streams) == 0 {
		return Verdict{IsValid: true, IsLive: false}, nil
	}
	return Verdict{
		IsValid:     true,
		IsLive:      true,
		Title:       streams[0].Title,
		ViewerCount: streams[0].ViewerCount,
	}, nil
}

// LiveThumbnailURL returns the preview image for a channel: the live stream's
// thumbnail template when broadcasting, otherwise the static CDN placeholder.
func (p *TwitchProber) LiveThumbnailURL(ctx context.Context, login string, width, height int) (string, bool, error) {
	placeholder := fmt.Sprintf("https://static-cdn.jtvnw.net/previews-ttv/live_user_%s-%dx%d.jpg", strings.ToLower(login), width, height)
	if p.ClientID == "" || p.ClientSecret == "" {
		return placeholder, false, nil
	}
	streams, err := p.Streams(ctx, login)
	if err != nil {
		return placeholder, false, err
	}
	if len(streams) == 0 || streams[0].ThumbnailURL == "" {
		return placeholder, false, nil
	}
	url := strings.ReplaceAll(streams[0].ThumbnailURL, "{width}", fmt.Sprintf("%d", width))
	url = strings.ReplaceAll(url, "{height}", fmt.Sprintf("%d", height))
	return url, true, nil
}
