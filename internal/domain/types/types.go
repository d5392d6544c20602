// Package types contains the JSON shapes returned by the HTTP API.
package types

import (
	"time"

	"github.com/okian/streetpass/internal/domain/model"
)

// Location is a coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Presence is one presence record with its profile snapshot.
type Presence struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	DisplayName string    `json:"display_name"`
	Avatar      string    `json:"avatar,omitempty"`
	Color       *int64    `json:"color,omitempty"`
	Message     string    `json:"message,omitempty"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
	Location    *Location `json:"location,omitempty"`
	Place       string    `json:"place,omitempty"`
}

// Online is the liveness view.
type Online struct {
	Online       []Presence `json:"online"`
	OnlineCount  int        `json:"online_count"`
	OfflineCount int        `json:"offline_count"`
	Dropped      int        `json:"dropped"`
}

// Encounter is one derived encounter.
type Encounter struct {
	ID             string      `json:"id"`
	Participants   [2]Presence `json:"participants"`
	OccurredAt     time.Time   `json:"occurred_at"`
	DistanceMeters *float64    `json:"distance_meters,omitempty"`
	Midpoint       *Location   `json:"midpoint,omitempty"`
	Place          string      `json:"place,omitempty"`
}

// Encounters is the encounter view for one day.
type Encounters struct {
	Day        string      `json:"day"`
	Encounters []Encounter `json:"encounters"`
	Count      int         `json:"count"`
	Dropped    int         `json:"dropped"`
}

// Bucket is one activity bucket.
type Bucket struct {
	Index  int            `json:"index"`
	Label  string         `json:"label"`
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Counts map[string]int `json:"counts"`
}

// Activity is the bucketed activity view.
type Activity struct {
	Range   string   `json:"range"`
	Buckets []Bucket `json:"buckets"`
}

// Summary is the scalar rollup.
type Summary struct {
	EncountersToday    int   `json:"encounters_today"`
	PostsToday         int   `json:"posts_today"`
	ReactionsToday     int   `json:"reactions_today"`
	NewIdentitiesToday int   `json:"new_identities_today"`
	TotalIdentities    int   `json:"total_identities"`
	TotalPosts         int   `json:"total_posts"`
	TotalReactions     int   `json:"total_reactions"`
	TotalLikes         int64 `json:"total_likes"`
	TotalFollowers     int64 `json:"total_followers"`
}

// EmotionShare is one row of the emotion breakdown.
type EmotionShare struct {
	Emotion    string  `json:"emotion"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FeedItem is one recent activity entry.
type FeedItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
}

// Dashboard combines every view computed for one request. Sections whose
// inputs could not be fetched are nil and listed in Unavailable.
type Dashboard struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Online      *Online        `json:"online,omitempty"`
	Encounters  *Encounters    `json:"encounters,omitempty"`
	Activity    *Activity      `json:"activity,omitempty"`
	Summary     *Summary       `json:"summary,omitempty"`
	Emotions    []EmotionShare `json:"emotions,omitempty"`
	Recent      []FeedItem     `json:"recent,omitempty"`
	Unavailable []string       `json:"unavailable,omitempty"`
}

// NewLocation converts a model location; nil stays nil.
func NewLocation(l *model.Location) *Location {
	if l == nil {
		return nil
	}
	return &Location{Lat: l.Lat, Lng: l.Lng}
}

// NewPresence converts a presence record. place may be empty.
func NewPresence(p model.PresenceRecord, place string) Presence {
	return Presence{
		ID:          p.ID,
		ProfileID:   p.Profile.ProfileID,
		DisplayName: p.Profile.DisplayName,
		Avatar:      p.Profile.Avatar,
		Color:       p.Profile.Color,
		Message:     p.Message,
		Active:      p.Active,
		UpdatedAt:   p.Time(),
		Location:    NewLocation(p.Location),
		Place:       place,
	}
}

// NewBucket converts an activity bucket.
func NewBucket(b model.ActivityBucket) Bucket {
	counts := make(map[string]int, len(b.Counts))
	for c, n := range b.Counts {
		counts[string(c)] = n
	}
	return Bucket{
		Index:  b.Index,
		Label:  b.Label,
		Start:  time.UnixMilli(b.Start).UTC(),
		End:    time.UnixMilli(b.End).UTC(),
		Counts: counts,
	}
}

// NewSummary converts the stats rollup.
func NewSummary(s model.Stats) Summary {
	return Summary(s)
}

// NewEmotionShares converts the emotion breakdown.
func NewEmotionShares(in []model.EmotionShare) []EmotionShare {
	out := make([]EmotionShare, len(in))
	for i, s := range in {
		out[i] = EmotionShare(s)
	}
	return out
}

// NewFeed converts the recent activity feed.
func NewFeed(in []model.FeedItem) []FeedItem {
	out := make([]FeedItem, len(in))
	for i, it := range in {
		out[i] = FeedItem{
			ID:          it.ID,
			Type:        string(it.Kind),
			Title:       it.Title,
			Description: it.Description,
			Timestamp:   time.UnixMilli(it.At).UTC(),
			UserID:      it.UserID,
			UserName:    it.UserName,
		}
	}
	return out
}
