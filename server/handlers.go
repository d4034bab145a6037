// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/leafsk/gmeetings/config"
	"github.com/leafsk/gmeetings/monitor"
	"github.com/leafsk/gmeetings/platform"
)

// statusProber is the probe surface the status proxy needs (platform.Client
// in production, a fake in tests).
type statusProber interface {
	Probe(ctx context.Context, platform, rawURL string, start, end time.Time) (platform.Verdict, error)
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctx    context.Context
	db     *sql.DB
	cfg    *config.Config
	client statusProber
	cache  *platform.VerdictCache
	thumbs *platform.ThumbnailResolver
	mon    *monitor.Monitor
}

// NewHandlers wires the handler dependencies. The Twitch adapter is shared
// between the prober and the thumbnail resolver so both reuse one app token.
func NewHandlers(ctx context.Context, dbc *sql.DB, cfg *config.Config, mon *monitor.Monitor) *Handlers {
	tw := &platform.TwitchProber{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret}
	yt := &platform.YouTubeProber{APIKey: cfg.YouTubeAPIKey}
	sched := platform.ScheduleProber{}
	client := platform.NewClientWithProbers(map[string]platform.Prober{
		"youtube": yt,
		"twitch":  tw,
		"zoom":    sched,
		"meet":    sched,
	}, sched)
	return &Handlers{
		ctx:    ctx,
		db:     dbc,
		cfg:    cfg,
		client: client,
		cache:  platform.NewVerdictCache(cfg.StatusCacheTTL),
		thumbs: &platform.ThumbnailResolver{Twitch: tw},
		mon:    mon,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// commandResult is the envelope for override/force-end responses.
type commandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// parseIntQuery extracts an int parameter from query string with a default value.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
