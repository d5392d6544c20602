package api

import (
	"net/http"
)

// PresenceHandler serves the liveness and encounter views.
type PresenceHandler struct {
	deps Dependencies
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(deps Dependencies) *PresenceHandler {
	return &PresenceHandler{deps: deps}
}

// HandleOnline handles GET /api/online?now= requests.
func (h *PresenceHandler) HandleOnline(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_online"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	now, err := parseNow(r, h.deps)
	if err != nil {
		writeFailure(w, op, NewKind(op, err))
		return
	}
	out, err := h.deps.Online(r.Context(), now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleEncounters handles GET /api/encounters?day=YYYY-MM-DD requests.
func (h *PresenceHandler) HandleEncounters(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_encounters"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	now, err := parseNow(r, h.deps)
	if err != nil {
		writeFailure(w, op, NewKind(op, err))
		return
	}
	day, err := parseDay(r, h.deps, now)
	if err != nil {
		writeFailure(w, op, NewKind(op, err))
		return
	}
	out, err := h.deps.Encounters(r.Context(), day)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
