// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	service "github.com/okian/streetpass/internal/app"
	"github.com/okian/streetpass/internal/domain/activity"
	"github.com/okian/streetpass/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Now is the default reference instant of every derivation.
	Now() time.Time
	// Location is the zone calendar days are parsed in.
	Location() *time.Location

	Online(ctx context.Context, now time.Time) (types.Online, error)
	Encounters(ctx context.Context, day time.Time) (types.Encounters, error)
	Activity(ctx context.Context, r activity.Range, now time.Time) (types.Activity, error)
	Summary(ctx context.Context, now time.Time) (types.Summary, error)
	Emotions(ctx context.Context) ([]types.EmotionShare, error)
	Recent(ctx context.Context) ([]types.FeedItem, error)
	Dashboard(ctx context.Context, r activity.Range, now time.Time) (types.Dashboard, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	presenceHandler  *PresenceHandler
	activityHandler  *ActivityHandler
	summaryHandler   *SummaryHandler
	dashboardHandler *DashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider, deps.Now),
		presenceHandler:  NewPresenceHandler(deps),
		activityHandler:  NewActivityHandler(deps),
		summaryHandler:   NewSummaryHandler(deps),
		dashboardHandler: NewDashboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/online", MetricsMiddleware(s.presenceHandler.HandleOnline, "online"))
	mux.HandleFunc("/api/encounters", MetricsMiddleware(s.presenceHandler.HandleEncounters, "encounters"))
	mux.HandleFunc("/api/activity", MetricsMiddleware(s.activityHandler.HandleActivity, "activity"))
	mux.HandleFunc("/api/summary", MetricsMiddleware(s.summaryHandler.HandleSummary, "summary"))
	mux.HandleFunc("/api/emotions", MetricsMiddleware(s.summaryHandler.HandleEmotions, "emotions"))
	mux.HandleFunc("/api/recent", MetricsMiddleware(s.summaryHandler.HandleRecent, "recent"))
	mux.HandleFunc("/api/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a handler error to its status code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrDerivationUnavailable):
		writeError(w, http.StatusServiceUnavailable, "derivation_unavailable", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", Wrap(op, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
