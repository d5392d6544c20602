package api

import (
	"net/http"
)

// DashboardHandler serves every view in one response.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleDashboard handles GET /api/dashboard?range= requests. Sections whose
// inputs failed are listed in "unavailable" instead of failing the request.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
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
	out, err := h.deps.Dashboard(r.Context(), rng, now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
