package api

import (
	"net/http"
)

// SummaryHandler serves the stats rollup, emotion breakdown and feed.
type SummaryHandler struct {
	deps Dependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps Dependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleSummary handles GET /api/summary requests.
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	now, err := parseNow(r, h.deps)
	if err != nil {
		writeFailure(w, op, NewKind(op, err))
		return
	}
	out, err := h.deps.Summary(r.Context(), now)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleEmotions handles GET /api/emotions requests.
func (h *SummaryHandler) HandleEmotions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_emotions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.Emotions(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRecent handles GET /api/recent requests.
func (h *SummaryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recent"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.Recent(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
