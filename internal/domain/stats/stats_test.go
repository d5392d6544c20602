package stats

import (
	"testing"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRollup(t *testing.T) {
	Convey("Given records around one day", t, func() {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		day := model.DayOf(now, time.UTC)
		today := now.UnixMilli()
		yesterday := day.Start - 1

		presences := []model.PresenceRecord{
			{ID: "a", Timestamp: today},
			{ID: "a", Timestamp: today - 1000},
			{ID: "b", Timestamp: day.Start, Active: false},
			{ID: "c", Timestamp: yesterday},
		}
		posts := []model.Post{
			{ID: "p1", CreatedAt: today, HasCreatedAt: true},
			{ID: "p2", CreatedAt: yesterday, HasCreatedAt: true},
			{ID: "p3"},
		}
		reactions := []model.ReactionPost{
			{ID: "r1", CreatedAt: day.End, HasCreatedAt: true},
		}
		identities := []model.Identity{
			{ID: "u1", CreatedAt: today, HasCreatedAt: true, ReceivedLikes: 3, Followers: 2},
			{ID: "u2", ReceivedLikes: 4},
		}

		s := Rollup(presences, posts, reactions, identities, day)

		Convey("Then day counts only include dated records of the day", func() {
			So(s.PostsToday, ShouldEqual, 1)
			So(s.ReactionsToday, ShouldEqual, 1)
			So(s.NewIdentitiesToday, ShouldEqual, 1)
		})

		Convey("Then distinct presence ids updated today are counted", func() {
			So(s.EncountersToday, ShouldEqual, 2)
		})

		Convey("Then totals include undated records", func() {
			So(s.TotalPosts, ShouldEqual, 3)
			So(s.TotalReactions, ShouldEqual, 1)
			So(s.TotalIdentities, ShouldEqual, 2)
			So(s.TotalLikes, ShouldEqual, int64(7))
			So(s.TotalFollowers, ShouldEqual, int64(2))
		})
	})

	Convey("Given no records", t, func() {
		s := Rollup(nil, nil, nil, nil, model.DayOf(time.Now(), nil))
		So(s, ShouldResemble, model.Stats{})
	})
}

func TestEmotions(t *testing.T) {
	Convey("Given reaction posts", t, func() {
		shares := Emotions([]model.ReactionPost{
			{Emotion: "happy"}, {Emotion: "sad"}, {Emotion: "happy"}, {},
		})

		Convey("Then emotions are ranked by count with percentages", func() {
			So(len(shares), ShouldEqual, 3)
			So(shares[0], ShouldResemble, model.EmotionShare{Emotion: "happy", Count: 2, Percentage: 50})
			So(shares[1].Emotion, ShouldEqual, "sad")
			So(shares[2].Emotion, ShouldEqual, UnknownEmotion)
			So(shares[2].Percentage, ShouldEqual, 25)
		})
	})

	Convey("Given no reaction posts", t, func() {
		So(Emotions(nil), ShouldBeEmpty)
	})
}

func TestRecent(t *testing.T) {
	Convey("Given more posts and reactions than the feed holds", t, func() {
		var posts []model.Post
		var reactions []model.ReactionPost
		for i := int64(0); i < 15; i++ {
			posts = append(posts, model.Post{ID: "p" + string(rune('a'+i)), CreatedAt: i * 10, HasCreatedAt: true})
			reactions = append(reactions, model.ReactionPost{ID: "r" + string(rune('a'+i)), CreatedAt: i*10 + 5, HasCreatedAt: true, Emotion: "calm"})
		}
		posts = append(posts, model.Post{ID: "undated"})

		feed := Recent(posts, reactions, 10, 20)

		Convey("Then the newest ten of each are merged newest first", func() {
			So(len(feed), ShouldEqual, 20)
			So(feed[0].ID, ShouldEqual, "ro")
			So(feed[0].Kind, ShouldEqual, model.ActivityReaction)
			So(feed[0].Title, ShouldEqual, EmotionLabel("calm"))
			So(feed[1].ID, ShouldEqual, "po")
			So(feed[1].Title, ShouldEqual, "new post")
			So(feed[1].Description, ShouldEqual, "untitled")
			So(feed[1].UserName, ShouldEqual, "unknown user")
			So(feed[19].ID, ShouldEqual, "pf")
			for i := 1; i < len(feed); i++ {
				So(feed[i-1].At, ShouldBeGreaterThanOrEqualTo, feed[i].At)
			}
		})
	})

	Convey("Given a reaction without a known emotion or message", t, func() {
		feed := Recent(nil, []model.ReactionPost{{ID: "r", Emotion: "bored", HasCreatedAt: true}}, 0, 0)
		So(feed[0].Title, ShouldEqual, "emotion post")
		So(feed[0].Description, ShouldEqual, "emotion")
	})
}
