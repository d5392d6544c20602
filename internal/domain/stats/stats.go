// Package stats computes the scalar dashboard rollup, the emotion breakdown
// and the recent activity feed.
package stats

import (
	"sort"

	"github.com/okian/streetpass/internal/domain/model"
)

// UnknownEmotion groups reaction posts that carry no emotion.
const UnknownEmotion = "unknown"

// Feed defaults.
const (
	DefaultFeedPerKind = 10
	DefaultFeedLimit   = 20
)

// Rollup counts today's activity within day and the all-time totals.
// Undated records are left out of day counts but still count in totals.
func Rollup(presences []model.PresenceRecord, posts []model.Post, reactions []model.ReactionPost, identities []model.Identity, day model.Day) model.Stats {
	s := model.Stats{
		TotalPosts:      len(posts),
		TotalReactions:  len(reactions),
		TotalIdentities: len(identities),
	}

	for _, p := range posts {
		if p.HasCreatedAt && day.Contains(p.CreatedAt) {
			s.PostsToday++
		}
	}
	for _, r := range reactions {
		if r.HasCreatedAt && day.Contains(r.CreatedAt) {
			s.ReactionsToday++
		}
	}
	for _, id := range identities {
		s.TotalLikes += id.ReceivedLikes
		s.TotalFollowers += id.Followers
		if id.HasCreatedAt && day.Contains(id.CreatedAt) {
			s.NewIdentitiesToday++
		}
	}

	seen := make(map[string]struct{})
	for _, p := range presences {
		if day.Contains(p.Timestamp) {
			seen[p.ID] = struct{}{}
		}
	}
	s.EncountersToday = len(seen)
	return s
}

// Emotions returns the count and percentage of every emotion, most frequent
// first, ties ordered by name.
func Emotions(reactions []model.ReactionPost) []model.EmotionShare {
	counts := make(map[string]int)
	for _, r := range reactions {
		emotion := r.Emotion
		if emotion == "" {
			emotion = UnknownEmotion
		}
		counts[emotion]++
	}

	total := len(reactions)
	out := make([]model.EmotionShare, 0, len(counts))
	for emotion, n := range counts {
		out = append(out, model.EmotionShare{
			Emotion:    emotion,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Emotion < out[j].Emotion
	})
	return out
}
