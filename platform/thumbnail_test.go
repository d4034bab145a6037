package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestYouTubeThumbnailQualityFallback(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		// maxres missing, hq available
		if strings.Contains(r.URL.Path, "maxresdefault") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	res := &ThumbnailResolver{ImageBase: server.URL}
	th := res.Resolve(context.Background(), "youtube", "https://youtu.be/abc123", 0, 0)
	if !th.IsValid {
		t.Fatalf("thumbnail = %+v, want valid", th)
	}
	if !strings.HasSuffix(th.URL, "/vi/abc123/hqdefault.jpg") {
		t.Errorf("url = %q, want hqdefault", th.URL)
	}
	if len(paths) != 2 {
		t.Errorf("HEAD probes = %d, want 2 (stop at first hit)", len(paths))
	}
}

func TestYouTubeThumbnailAllMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	res := &ThumbnailResolver{ImageBase: server.URL}
	th := res.Resolve(context.Background(), "youtube", "https://youtu.be/abc123", 0, 0)
	if th.IsValid {
		t.Fatalf("thumbnail = %+v, want fallback", th)
	}
	if !strings.HasSuffix(th.URL, "/vi/abc123/default.jpg") {
		t.Errorf("url = %q, want default-quality fallback", th.URL)
	}
}

func TestThumbnailUnrecognizedURL(t *testing.T) {
	res := &ThumbnailResolver{}
	th := res.Resolve(context.Background(), "youtube", "not a url", 0, 0)
	if th.IsValid || th.Err == "" {
		t.Fatalf("thumbnail = %+v, want invalid with error", th)
	}
}
