package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leafsk/gmeetings/streamurl"
)

func newYouTubeTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestYouTubeProbeLive(t *testing.T) {
	server := newYouTubeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "abc123" {
			t.Errorf("id query param = %q, want abc123", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"snippet": map[string]any{
					"title":                "Launch Stream",
					"liveBroadcastContent": "live",
				},
				"liveStreamingDetails": map[string]any{
					"actualStartTime": "2026-08-29T12:00:00Z",
				},
			}},
		})
	})

	p := &YouTubeProber{APIKey: "test-key", Endpoint: server.URL}
	v, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{VideoID: "abc123"}})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !v.IsValid || !v.IsLive {
		t.Fatalf("verdict = %+v, want valid live", v)
	}
	if v.BroadcastStatus != "live" || v.Title != "Launch Stream" {
		t.Errorf("metadata = %q/%q", v.BroadcastStatus, v.Title)
	}
}

func TestYouTubeProbeEndedBroadcast(t *testing.T) {
	server := newYouTubeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"snippet": map[string]any{
					"title":                "Old Stream",
					"liveBroadcastContent": "none",
				},
			}},
		})
	})

	p := &YouTubeProber{APIKey: "test-key", Endpoint: server.URL}
	v, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{VideoID: "abc123"}})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !v.IsValid || v.IsLive {
		t.Fatalf("verdict = %+v, want valid offline", v)
	}
}

func TestYouTubeProbeVideoNotFound(t *testing.T) {
	server := newYouTubeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}})
	})

	p := &YouTubeProber{APIKey: "test-key", Endpoint: server.URL}
	v, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{VideoID: "gone"}})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	// A deleted/private broadcast is authoritatively not live.
	if !v.IsValid || v.IsLive {
		t.Fatalf("verdict = %+v, want valid offline", v)
	}
}

func TestYouTubeProbeAPIError(t *testing.T) {
	server := newYouTubeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	p := &YouTubeProber{APIKey: "test-key", Endpoint: server.URL}
	if _, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{VideoID: "abc123"}}); err == nil {
		t.Fatal("expected transient error on 5xx")
	}
}

func TestYouTubeProbeMissingKey(t *testing.T) {
	p := &YouTubeProber{}
	v, err := p.Probe(context.Background(), Request{Identifier: &streamurl.Identifier{VideoID: "abc123"}})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if v.IsValid {
		t.Fatalf("verdict = %+v, want invalid", v)
	}
}
