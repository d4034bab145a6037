package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leafsk/gmeetings/streamurl"
)

// newTwitchTestServer serves both the OAuth token endpoint and Helix streams.
func newTwitchTestServer(t *testing.T, streams []map[string]any) (*httptest.Server, *int) {
	t.Helper()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "app-token-123",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Client-Id"); got != "test-client-id" {
			t.Errorf("Client-Id header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer app-token-123" {
			t.Errorf("Authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": streams})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenCalls
}

func newTestTwitchProber(server *httptest.Server) *TwitchProber {
	return &TwitchProber{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		TokenURL:     server.URL + "/oauth2/token",
		BaseURL:      server.URL,
	}
}

func TestTwitchProbeLive(t *testing.T) {
	server, tokenCalls := newTwitchTestServer(t, []map[string]any{{
		"title":        "Speedrun Night",
		"viewer_count": 412,
		"started_at":   "2026-08-29T14:30:00Z",
	}})
	p := newTestTwitchProber(server)

	v, err := p.Probe(context.Background(), Request{
		Platform:   "twitch",
		Identifier: &streamurl.Identifier{ChannelName: "somechannel"},
	})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !v.IsValid || !v.IsLive {
		t.Fatalf("verdict = %+v, want valid live", v)
	}
	if v.Title != "Speedrun Night" || v.ViewerCount != 412 {
		t.Errorf("metadata = %q/%d", v.Title, v.ViewerCount)
	}

	// Second probe reuses the cached app token.
	if _, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{ChannelName: "somechannel"}}); err != nil {
		t.Fatalf("second Probe() error = %v", err)
	}
	if *tokenCalls != 1 {
		t.Errorf("token endpoint calls = %d, want 1 (cached)", *tokenCalls)
	}
}

func TestTwitchProbeOffline(t *testing.T) {
	server, _ := newTwitchTestServer(t, []map[string]any{})
	p := newTestTwitchProber(server)

	v, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{ChannelName: "quietchannel"}})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !v.IsValid || v.IsLive {
		t.Fatalf("verdict = %+v, want valid offline", v)
	}
}

func TestTwitchProbeServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newTestTwitchProber(server)
	_, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{ChannelName: "somechannel"}})
	if err == nil {
		t.Fatal("expected transient error on 5xx")
	}
}

func TestTwitchProbeMissingCredentials(t *testing.T) {
	p := &TwitchProber{}
	v, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{ChannelName: "x"}})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if v.IsValid {
		t.Fatalf("verdict = %+v, want invalid", v)
	}
}

func TestTwitchLiveThumbnailURL(t *testing.T) {
	server, _ := newTwitchTestServer(t, []map[string]any{{
		"title":         "Live Now",
		"thumbnail_url": "https://cdn.example/{width}x{height}.jpg",
		"started_at":    time.Now().UTC().Format(time.RFC3339),
	}})
	p := newTestTwitchProber(server)

	url, live, err := p.LiveThumbnailURL(context.Background(), "somechannel", 640, 360)
	if err != nil {
		t.Fatalf("LiveThumbnailURL() error = %v", err)
	}
	if !live {
		t.Error("expected live thumbnail")
	}
	if url != "https://cdn.example/640x360.jpg" {
		t.Errorf("url = %q", url)
	}
}

func TestTwitchPlaceholderThumbnailWhenOffline(t *testing.T) {
	server, _ := newTwitchTestServer(t, []map[string]any{})
	p := newTestTwitchProber(server)

	url, live, err := p.LiveThumbnailURL(context.Background(), "SomeChannel", 640, 360)
	if err != nil {
		t.Fatalf("LiveThumbnailURL() error = %v", err)
	}
	if live {
		t.Error("expected offline placeholder")
	}
	want := "https://static-cdn.jtvnw.net/previews-ttv/live_user_somechannel-640x360.jpg"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}
