package stats

import (
	"sort"

	"github.com/okian/streetpass/internal/domain/model"
)

var emotionLabels = map[string]string{
	"happy":     "😊 happy",
	"sad":       "😢 sad",
	"excited":   "🤩 excited",
	"calm":      "😌 calm",
	"surprised": "😮 surprised",
	"tired":     "😴 tired",
}

// EmotionLabel returns the display label of emotion, or "" when unknown.
func EmotionLabel(emotion string) string {
	return emotionLabels[emotion]
}

// Recent merges the newest perKind posts and perKind reaction posts into one
// feed, newest first, capped at limit. Undated items sort last.
func Recent(posts []model.Post, reactions []model.ReactionPost, perKind, limit int) []model.FeedItem {
	if perKind <= 0 {
		perKind = DefaultFeedPerKind
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	items := make([]model.FeedItem, 0, 2*perKind)
	for _, p := range newestPosts(posts, perKind) {
		items = append(items, postItem(p))
	}
	for _, r := range newestReactions(reactions, perKind) {
		items = append(items, reactionItem(r))
	}

	sortFeed(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func postItem(p model.Post) model.FeedItem {
	desc := p.Caption
	if desc == "" {
		desc = "untitled"
	}
	name := p.AuthorName
	if name == "" {
		name = "unknown user"
	}
	return model.FeedItem{
		ID:          p.ID,
		Kind:        model.ActivityPost,
		Title:       "new post",
		Description: desc,
		At:          p.CreatedAt,
		UserID:      p.AuthorID,
		UserName:    name,
	}
}

func reactionItem(r model.ReactionPost) model.FeedItem {
	label := EmotionLabel(r.Emotion)
	title := label
	if title == "" {
		title = "emotion post"
	}
	desc := r.Message
	if desc == "" {
		desc = label
	}
	if desc == "" {
		desc = "emotion"
	}
	return model.FeedItem{
		ID:          r.ID,
		Kind:        model.ActivityReaction,
		Title:       title,
		Description: desc,
		At:          r.CreatedAt,
		UserID:      r.ProfileID,
	}
}

func newestPosts(posts []model.Post, n int) []model.Post {
	sorted := append([]model.Post(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return newer(sorted[i].CreatedAt, sorted[i].HasCreatedAt, sorted[j].CreatedAt, sorted[j].HasCreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func newestReactions(reactions []model.ReactionPost, n int) []model.ReactionPost {
	sorted := append([]model.ReactionPost(nil), reactions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return newer(sorted[i].CreatedAt, sorted[i].HasCreatedAt, sorted[j].CreatedAt, sorted[j].HasCreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func newer(a int64, aDated bool, b int64, bDated bool) bool {
	if aDated != bDated {
		return aDated
	}
	return a > b
}

func sortFeed(items []model.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].At != items[j].At {
			return items[i].At > items[j].At
		}
		return items[i].ID < items[j].ID
	})
}
