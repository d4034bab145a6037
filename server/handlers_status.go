package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/leafsk/gmeetings/events"
	"github.com/leafsk/gmeetings/telemetry"
)

// HandleStreamStatus is the read-only status proxy used by the directory UI.
// It probes the platform on behalf of the browser (API keys stay server-side)
// and caches verdicts briefly so page loads don't hammer the platform APIs.
//
// Query: either eventId=<id>, or platform=<tag>&url=<stream url>.
func (h *Handlers) HandleStreamStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	plat := q.Get("platform")
	rawURL := q.Get("url")
	var start, end time.Time

	if id := q.Get("eventId"); id != "" {
		ev, err := events.Get(r.Context(), h.db, id)
		if errors.Is(err, events.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, commandResult{Success: false, Message: "event not found"})
			return
		}
		if err != nil {
			telemetry.LoggerWithCorr(r.Context()).Error("load event for status", slog.Any("err", err), slog.String("component", "http"))
			writeJSON(w, http.StatusInternalServerError, commandResult{Success: false, Message: "internal error"})
			return
		}
		plat, rawURL, start, end = ev.Platform, ev.StreamURL, ev.StartDate, ev.EndDate
	}
	if plat == "" || rawURL == "" {
		writeJSON(w, http.StatusBadRequest, commandResult{Success: false, Message: "eventId or platform+url required"})
		return
	}

	key := plat + "|" + rawURL
	if v, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, v)
		return
	}
	v, err := h.client.Probe(r.Context(), plat, rawURL, start, end)
	if err != nil {
		// Transient platform failure; still a 200 with an invalid verdict so
		// the UI can fall back to schedule display.
		writeJSON(w, http.StatusOK, map[string]any{"isLive": false, "isValid": false, "error": err.Error()})
		return
	}
	h.cache.Put(key, v)
	writeJSON(w, http.StatusOK, v)
}

// HandleThumbnail resolves a preview image URL for a stream.
//
// Query: platform=<tag>&url=<stream url>, optional width/height for Twitch.
func (h *Handlers) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	plat := r.URL.Query().Get("platform")
	rawURL := r.URL.Query().Get("url")
	if plat == "" || rawURL == "" {
		writeJSON(w, http.StatusBadRequest, commandResult{Success: false, Message: "platform and url required"})
		return
	}
	width := parseIntQuery(r, "width", 0)
	height := parseIntQuery(r, "height", 0)
	writeJSON(w, http.StatusOK, h.thumbs.Resolve(r.Context(), plat, rawURL, width, height))
}
