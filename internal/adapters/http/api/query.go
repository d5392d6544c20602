package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	service "github.com/okian/streetpass/internal/app"
	"github.com/okian/streetpass/internal/domain/activity"
)

// parseNow reads ?now=RFC3339, falling back to the service clock.
func parseNow(r *http.Request, deps Dependencies) (time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return deps.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid now %q; must be RFC3339", ErrBadRequest, raw)
	}
	return t, nil
}

// parseDay reads ?day=YYYY-MM-DD in the service zone; it defaults to the
// day containing now.
func parseDay(r *http.Request, deps Dependencies, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(service.DayLayout, raw, deps.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid day %q; must be YYYY-MM-DD", ErrBadRequest, raw)
	}
	return t, nil
}

// parseRange reads ?range=24h|7d|30d; empty means 24h.
func parseRange(r *http.Request) (activity.Range, error) {
	rng, err := activity.ParseRange(r.URL.Query().Get("range"))
	if errors.Is(err, activity.ErrUnknownRange) {
		return activity.Range{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return rng, err
}
