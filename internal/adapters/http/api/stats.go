package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports runtime counters of the engine.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	statsProvider StatsProvider
	now           func() time.Time
}

// NewStatsHandler creates a stats handler stamping replies with now.
func NewStatsHandler(statsProvider StatsProvider, now func() time.Time) *StatsHandler {
	if now == nil {
		now = time.Now
	}
	return &StatsHandler{statsProvider: statsProvider, now: now}
}

// HandleStats writes the provider's counters plus the engine clock reading.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := map[string]interface{}{}
	if h.statsProvider != nil {
		maps.Copy(stats, h.statsProvider.GetStats())
	}
	stats["generatedAt"] = h.now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, stats)
}
