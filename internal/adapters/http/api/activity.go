package api

import (
	"net/http"
)

// ActivityHandler serves the bucketed activity view.
type ActivityHandler struct {
	deps Dependencies
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps Dependencies) *ActivityHandler {
	return &ActivityHandler{deps: deps}
}

// HandleActivity handles GET /api/activity?range=24h|7d|30d requests.
func (h *ActivityHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_activity"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeFailure(w, op, NewKind(op, err))
		return
	}
	now, err := parseNow(r, h.deps)
	if err != nil {
		writeFailure(w, op, NewKind(op, err))
		return
	}
	out, err := h.deps.Activity(r.Context(), rng, now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
