// Package proximity derives encounter events from presence records that were
// close in both time and space on one day.
package proximity

import (
	"math"
	"sort"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
)

// EarthRadiusMeters is the mean radius used by Haversine.
const EarthRadiusMeters = 6_371_000.0

// Defaults of the reference deployment.
const (
	DefaultWindow         = 5 * time.Minute
	DefaultDistanceMeters = 100.0
)

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b model.Location) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PairID is the order-independent key of two participants.
func PairID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// Match pairs every two distinct active records of day whose timestamps are at
// most window apart and, when both are located, at most maxMeters apart.
// Records sharing an id collapse to the most recent one first. The result is
// ordered by OccurredAt descending, then by id.
func Match(records []model.PresenceRecord, day model.Day, window time.Duration, maxMeters float64) []model.EncounterEvent {
	candidates := sameDay(records, day)
	windowMs := window.Milliseconds()

	emitted := make(map[string]struct{})
	events := make([]model.EncounterEvent, 0)
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if a.ID == b.ID {
				continue
			}
			id := PairID(a.ID, b.ID)
			if _, seen := emitted[id]; seen {
				continue
			}
			ev, ok := pair(a, b, windowMs, maxMeters)
			if !ok {
				continue
			}
			ev.ID = id
			emitted[id] = struct{}{}
			events = append(events, ev)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].OccurredAt != events[j].OccurredAt {
			return events[i].OccurredAt > events[j].OccurredAt
		}
		return events[i].ID < events[j].ID
	})
	return events
}

func pair(a, b model.PresenceRecord, windowMs int64, maxMeters float64) (model.EncounterEvent, bool) {
	diff := a.Timestamp - b.Timestamp
	if diff < 0 {
		diff = -diff
	}
	if diff > windowMs {
		return model.EncounterEvent{}, false
	}

	ev := model.EncounterEvent{
		Participants: [2]model.PresenceRecord{a, b},
		OccurredAt:   max(a.Timestamp, b.Timestamp),
	}
	if a.Location != nil && b.Location != nil {
		d := Haversine(*a.Location, *b.Location)
		if d > maxMeters {
			return model.EncounterEvent{}, false
		}
		ev.DistanceMeters = &d
		ev.Midpoint = &model.Location{
			Lat: (a.Location.Lat + b.Location.Lat) / 2,
			Lng: (a.Location.Lng + b.Location.Lng) / 2,
		}
	}
	return ev, true
}

// sameDay keeps active records inside day, one per id, sorted by id.
func sameDay(records []model.PresenceRecord, day model.Day) []model.PresenceRecord {
	latest := make(map[string]model.PresenceRecord, len(records))
	for _, rec := range records {
		if !rec.Active || !day.Contains(rec.Timestamp) {
			continue
		}
		if prev, ok := latest[rec.ID]; ok && prev.Timestamp >= rec.Timestamp {
			continue
		}
		latest[rec.ID] = rec
	}

	out := make([]model.PresenceRecord, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
