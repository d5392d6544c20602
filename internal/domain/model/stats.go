package model

import "time"

// Stats is the scalar rollup shown on the dashboard summary.
type Stats struct {
	EncountersToday    int // distinct presence ids updated today
	PostsToday         int
	ReactionsToday     int
	NewIdentitiesToday int
	TotalIdentities    int
	TotalPosts         int
	TotalReactions     int
	TotalLikes         int64
	TotalFollowers     int64
}

// EmotionShare is one row of the emotion breakdown.
type EmotionShare struct {
	Emotion    string
	Count      int
	Percentage float64
}

// ActivityKind tells feed items apart.
type ActivityKind string

// Feed item kinds.
const (
	ActivityPost     ActivityKind = "post"
	ActivityReaction ActivityKind = "emotion"
)

// FeedItem is one entry of the recent activity feed.
type FeedItem struct {
	ID          string
	Kind        ActivityKind
	Title       string
	Description string
	At          int64
	UserID      string
	UserName    string
}

// Day is a closed interval of epoch milliseconds covering one calendar day.
type Day struct {
	Start int64
	End   int64
}

// DayOf returns the calendar day containing t in loc, from local midnight to
// one millisecond before the next local midnight.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	next := start.AddDate(0, 0, 1)
	return Day{Start: start.UnixMilli(), End: next.UnixMilli() - 1}
}

// Contains reports whether ms lies within the day, bounds included.
func (d Day) Contains(ms int64) bool {
	return ms >= d.Start && ms <= d.End
}
