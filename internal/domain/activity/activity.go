// Package activity counts events into fixed-width buckets aligned to now.
package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
)

// ErrUnknownRange is returned by ParseRange for an unsupported range name.
var ErrUnknownRange = errors.New("unknown activity range")

// Range describes a bucketed window ending at now.
type Range struct {
	Name    string
	Buckets int
	Width   time.Duration
}

// Supported ranges.
var (
	Last24Hours = Range{Name: "24h", Buckets: 24, Width: time.Hour}
	Last7Days   = Range{Name: "7d", Buckets: 7, Width: 24 * time.Hour}
	Last30Days  = Range{Name: "30d", Buckets: 30, Width: 24 * time.Hour}
)

// ParseRange maps "24h", "7d" or "30d" to its Range. Empty means 24h.
func ParseRange(name string) (Range, error) {
	switch name {
	case "", Last24Hours.Name:
		return Last24Hours, nil
	case Last7Days.Name:
		return Last7Days, nil
	case Last30Days.Name:
		return Last30Days, nil
	}
	return Range{}, fmt.Errorf("%w: %q", ErrUnknownRange, name)
}

// Duration is the total span covered by the range.
func (r Range) Duration() time.Duration {
	return time.Duration(r.Buckets) * r.Width
}

// Hourly reports whether buckets are one hour wide.
func (r Range) Hourly() bool { return r.Width < 24*time.Hour }

// Bounds returns the lower bound used for snapshot filters: now - duration.
func (r Range) Bounds(now time.Time) (time.Time, time.Time) {
	return now.Add(-r.Duration()), now
}

// Index maps an event time to its bucket, oldest first. It returns false when
// the event falls outside the range.
func (r Range) Index(now, at int64) (int, bool) {
	width := r.Width.Milliseconds()
	diff := now - at
	offset := diff / width
	if diff < 0 {
		// floor division for events after now
		offset = -1
	}
	if offset < 0 || offset >= int64(r.Buckets) {
		return 0, false
	}
	return r.Buckets - 1 - int(offset), true
}

// Aggregate counts events into r's buckets ending at now. Labels are rendered
// in loc ("15:00" for hourly buckets, "1/2" for daily ones) from each
// bucket's upper edge. Every category is present in every bucket.
func Aggregate(events []model.ActivityEvent, r Range, now time.Time, loc *time.Location) []model.ActivityBucket {
	if loc == nil {
		loc = time.UTC
	}
	nowMs := now.UnixMilli()
	width := r.Width.Milliseconds()

	buckets := make([]model.ActivityBucket, r.Buckets)
	for k := range buckets {
		end := nowMs - int64(r.Buckets-1-k)*width
		counts := make(map[model.Category]int, len(model.Categories))
		for _, c := range model.Categories {
			counts[c] = 0
		}
		buckets[k] = model.ActivityBucket{
			Index:  k,
			Label:  label(r, time.UnixMilli(end).In(loc)),
			Start:  end - width,
			End:    end,
			Counts: counts,
		}
	}

	for _, ev := range events {
		if k, ok := r.Index(nowMs, ev.At); ok {
			buckets[k].Counts[ev.Category]++
		}
	}
	return buckets
}

func label(r Range, t time.Time) string {
	if r.Hourly() {
		return fmt.Sprintf("%02d:00", t.Hour())
	}
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// Events flattens normalized records into activity events. Undated posts,
// reactions and identities are skipped; inactive presences are kept since
// the online series counts reports, not current liveness.
func Events(posts []model.Post, reactions []model.ReactionPost, identities []model.Identity, presences []model.PresenceRecord) []model.ActivityEvent {
	out := make([]model.ActivityEvent, 0, len(posts)+len(reactions)+len(identities)+len(presences))
	for _, p := range posts {
		if p.HasCreatedAt {
			out = append(out, model.ActivityEvent{Category: model.CategoryPosts, At: p.CreatedAt})
		}
	}
	for _, r := range reactions {
		if r.HasCreatedAt {
			out = append(out, model.ActivityEvent{Category: model.CategoryReactions, At: r.CreatedAt})
		}
	}
	for _, id := range identities {
		if id.HasCreatedAt {
			out = append(out, model.ActivityEvent{Category: model.CategoryNewIdentities, At: id.CreatedAt})
		}
	}
	for _, p := range presences {
		out = append(out, model.ActivityEvent{Category: model.CategoryOnline, At: p.Timestamp})
	}
	return out
}
