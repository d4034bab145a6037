package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/leafsk/gmeetings/events"
	"github.com/leafsk/gmeetings/telemetry"
)

// HandleEventsDispatcher routes requests under /events/{id}/* to the
// lifecycle command handlers.
func (h *Handlers) HandleEventsDispatcher(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/events/")
	parts := strings.SplitN(path, "/", 2)
	eventID := parts[0]
	tail := ""
	if len(parts) > 1 {
		tail = parts[1]
	}
	switch {
	case eventID == "":
		http.NotFound(w, r)
	case tail == "override":
		h.handleOverride(w, r, eventID)
	case tail == "force-end":
		h.handleForceEnd(w, r, eventID)
	default:
		http.NotFound(w, r)
	}
}

type overrideRequest struct {
	UserID   string `json:"userId"`
	Override bool   `json:"override"`
}

// handleOverride sets or clears the manual override that shields an event
// from automatic ending. It never changes event status.
func (h *Handlers) handleOverride(w http.ResponseWriter, r *http.Request, eventID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commandResult{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, commandResult{Success: false, Message: "userId is required"})
		return
	}
	err := events.SetManualOverride(r.Context(), h.db, eventID, req.UserID, req.Override)
	if h.writeCommandError(w, r, err, "set manual override") {
		return
	}
	msg := "manual override cleared"
	if req.Override {
		msg = "manual override set"
	}
	writeJSON(w, http.StatusOK, commandResult{Success: true, Message: msg})
}

type forceEndRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// handleForceEnd ends an event on the organizer's explicit request, bypassing
// the monitoring state entirely.
func (h *Handlers) handleForceEnd(w http.ResponseWriter, r *http.Request, eventID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req forceEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commandResult{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, commandResult{Success: false, Message: "userId is required"})
		return
	}
	if req.Reason == "" {
		req.Reason = "manually ended by organizer"
	}
	err := events.ForceEnd(r.Context(), h.db, eventID, req.UserID, req.Reason)
	if h.writeCommandError(w, r, err, "force end") {
		return
	}
	telemetry.CountEnded("force_end")
	writeJSON(w, http.StatusOK, commandResult{Success: true, Message: "event ended"})
}

// writeCommandError maps store errors onto the HTTP command contract and
// reports whether a response was written.
func (h *Handlers) writeCommandError(w http.ResponseWriter, r *http.Request, err error, op string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, events.ErrNotFound):
		writeJSON(w, http.StatusNotFound, commandResult{Success: false, Message: "event not found"})
	case errors.Is(err, events.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, commandResult{Success: false, Message: "only the organizer may do this"})
	case errors.Is(err, events.ErrNotPerformed):
		// Losing this race is fine; report it without an error status.
		writeJSON(w, http.StatusOK, commandResult{Success: false, Message: "not performed: event is not live"})
	default:
		telemetry.LoggerWithCorr(r.Context()).Error(op+" failed", slog.Any("err", err), slog.String("component", "http"))
		writeJSON(w, http.StatusInternalServerError, commandResult{Success: false, Message: "internal error"})
	}
	return true
}
