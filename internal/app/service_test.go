package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/streetpass/internal/adapters/repository"
	service "github.com/okian/streetpass/internal/app"
	"github.com/okian/streetpass/internal/domain/activity"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/types"
	"github.com/okian/streetpass/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var (
	tokyo = mustZone("Asia/Tokyo")
	now   = time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC) // 12:00 in Tokyo
)

func mustZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func presence(id string, at time.Time, lat, lng float64) model.RawRecord {
	return model.RawRecord{ID: id, Fields: map[string]any{
		"lastUpdatedMs": at.UnixMilli(),
		"lat":           lat,
		"lng":           lng,
		"profile":       map[string]any{"displayName": "user " + id},
	}}
}

func seeded() *repository.Memory {
	mem := repository.NewMemory()
	So(mem.Put(repository.Presences,
		presence("a", now.Add(-1*time.Minute), 35.6580, 139.7016),
		presence("b", now.Add(-3*time.Minute), 35.6584, 139.7016),
		presence("c", now.Add(-10*time.Minute), 34.7025, 135.4959),
		model.RawRecord{ID: "broken", Fields: map[string]any{"lastUpdatedMs": "soon"}},
	), ShouldBeNil)
	So(mem.Put(repository.Posts,
		model.RawRecord{ID: "p1", Fields: map[string]any{"createdAt": now.Add(-30 * time.Minute), "authorName": "a"}},
		model.RawRecord{ID: "p2", Fields: map[string]any{"createdAt": now.Add(-48 * time.Hour)}},
	), ShouldBeNil)
	So(mem.Put(repository.Reactions,
		model.RawRecord{ID: "r1", Fields: map[string]any{"createdAt": now.Add(-2 * time.Hour), "emotion": "happy"}},
		model.RawRecord{ID: "r2", Fields: map[string]any{"createdAt": now.Add(-3 * time.Hour), "emotion": "happy"}},
		model.RawRecord{ID: "r3", Fields: map[string]any{"createdAt": now.Add(-4 * time.Hour), "emotion": "sad"}},
	), ShouldBeNil)
	So(mem.Put(repository.Profiles,
		model.RawRecord{ID: "a", Fields: map[string]any{"createdAt": now.Add(-time.Hour), "receivedLikes": 4, "followersCount": 2}},
		model.RawRecord{ID: "b", Fields: map[string]any{"createdAt": now.Add(-72 * time.Hour), "receivedLikes": 1}},
	), ShouldBeNil)
	return mem
}

func started(opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithLocation(tokyo),
		service.WithClock(func() time.Time { return now }),
		service.WithLogger(logger.Nop()),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then derivations are refused before Start", func() {
			_, err := svc.Online(ctx, now)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When starting and stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["geocodingEnabled"], ShouldEqual, false)

			svc.Stop(ctx)

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(func() { svc.Stop(ctx) }, ShouldNotPanic)
			})
		})
	})
}

func TestService_Online(t *testing.T) {
	Convey("Given presences of different ages", t, func() {
		svc := started(service.WithProvider(seeded()))
		defer svc.Stop(context.Background())

		Convey("When classifying at now", func() {
			out, err := svc.Online(context.Background(), now)

			Convey("Then fresh presences are online, newest first", func() {
				So(err, ShouldBeNil)
				So(out.OnlineCount, ShouldEqual, 2)
				So(out.OfflineCount, ShouldEqual, 1)
				So(out.Dropped, ShouldEqual, 1)
				So(out.Online[0].ID, ShouldEqual, "a")
				So(out.Online[1].ID, ShouldEqual, "b")
				So(out.Online[0].DisplayName, ShouldEqual, "user a")
			})
		})

		Convey("When the limit is smaller than the online set", func() {
			svc := started(service.WithProvider(seeded()), service.WithOnlineLimit(1))
			defer svc.Stop(context.Background())
			out, err := svc.Online(context.Background(), now)

			Convey("Then only the list is capped", func() {
				So(err, ShouldBeNil)
				So(out.Online, ShouldHaveLength, 1)
				So(out.OnlineCount, ShouldEqual, 1)
				So(out.OfflineCount, ShouldEqual, 1)
			})
		})
	})
}

func TestService_Encounters(t *testing.T) {
	Convey("Given two close presences and a distant one", t, func() {
		svc := started(service.WithProvider(seeded()))
		defer svc.Stop(context.Background())

		Convey("When matching the current day", func() {
			out, err := svc.Encounters(context.Background(), now)

			Convey("Then exactly the close pair meets", func() {
				So(err, ShouldBeNil)
				So(out.Day, ShouldEqual, "2024-05-01")
				So(out.Count, ShouldEqual, 1)
				So(out.Encounters[0].ID, ShouldEqual, "a_b")
				So(out.Encounters[0].OccurredAt.Equal(now.Add(-time.Minute)), ShouldBeTrue)
				So(*out.Encounters[0].DistanceMeters, ShouldBeLessThan, 100.0)
				So(out.Encounters[0].Midpoint, ShouldNotBeNil)
			})
		})

		Convey("When matching the previous day", func() {
			out, err := svc.Encounters(context.Background(), now.AddDate(0, 0, -1))

			Convey("Then nothing meets", func() {
				So(err, ShouldBeNil)
				So(out.Day, ShouldEqual, "2024-04-30")
				So(out.Encounters, ShouldBeEmpty)
			})
		})
	})
}

func TestService_Views(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		svc := started(service.WithProvider(seeded()))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("Then activity counts land in their buckets", func() {
			out, err := svc.Activity(ctx, activity.Last24Hours, now)
			So(err, ShouldBeNil)
			So(out.Range, ShouldEqual, "24h")
			So(out.Buckets, ShouldHaveLength, 24)
			last := out.Buckets[23]
			So(last.Label, ShouldEqual, "12:00")
			So(last.Counts["posts"], ShouldEqual, 1)
			So(last.Counts["online"], ShouldEqual, 3)
			So(last.Counts["new_identities"], ShouldEqual, 0)
			So(out.Buckets[22].Counts["new_identities"], ShouldEqual, 1)
		})

		Convey("Then the summary counts today and totals", func() {
			out, err := svc.Summary(ctx, now)
			So(err, ShouldBeNil)
			So(out.EncountersToday, ShouldEqual, 3)
			So(out.PostsToday, ShouldEqual, 1)
			So(out.ReactionsToday, ShouldEqual, 3)
			So(out.NewIdentitiesToday, ShouldEqual, 1)
			So(out.TotalPosts, ShouldEqual, 2)
			So(out.TotalLikes, ShouldEqual, 5)
			So(out.TotalFollowers, ShouldEqual, 2)
		})

		Convey("Then emotions are sorted by count", func() {
			out, err := svc.Emotions(ctx)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 2)
			So(out[0].Emotion, ShouldEqual, "happy")
			So(out[0].Count, ShouldEqual, 2)
		})

		Convey("Then the feed is newest first", func() {
			out, err := svc.Recent(ctx)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 5)
			So(out[0].ID, ShouldEqual, "p1")
			So(out[0].Type, ShouldEqual, "post")
			So(out[1].ID, ShouldEqual, "r1")
		})

		Convey("Then the dashboard carries every section", func() {
			out, err := svc.Dashboard(ctx, activity.Last7Days, now)
			So(err, ShouldBeNil)
			So(out.Unavailable, ShouldBeEmpty)
			So(out.Online.OnlineCount, ShouldEqual, 2)
			So(out.Encounters.Count, ShouldEqual, 1)
			So(out.Activity.Buckets, ShouldHaveLength, 7)
			So(out.Summary.TotalReactions, ShouldEqual, 3)
			So(out.Emotions, ShouldHaveLength, 2)
			So(out.Recent, ShouldHaveLength, 5)
		})
	})
}

func TestService_Unavailable(t *testing.T) {
	Convey("Given a store whose presences cannot be read", t, func() {
		mem := repository.NewMemory(repository.WithFailure(repository.Presences, errors.New("connection reset")))
		So(mem.Put(repository.Reactions,
			model.RawRecord{ID: "r1", Fields: map[string]any{"createdAt": now, "emotion": "happy"}},
		), ShouldBeNil)
		svc := started(service.WithProvider(mem))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("Then presence views fail instead of reporting zero", func() {
			_, err := svc.Online(ctx, now)
			So(errors.Is(err, service.ErrDerivationUnavailable), ShouldBeTrue)
			_, err = svc.Encounters(ctx, now)
			So(errors.Is(err, service.ErrDerivationUnavailable), ShouldBeTrue)
			_, err = svc.Summary(ctx, now)
			So(errors.Is(err, service.ErrDerivationUnavailable), ShouldBeTrue)
		})

		Convey("Then views without presences still work", func() {
			out, err := svc.Emotions(ctx)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
		})

		Convey("Then the dashboard names the missing sections", func() {
			out, err := svc.Dashboard(ctx, activity.Last24Hours, now)
			So(err, ShouldBeNil)
			So(out.Unavailable, ShouldResemble, []string{"online", "encounters", "activity", "summary"})
			So(out.Online, ShouldBeNil)
			So(out.Summary, ShouldBeNil)
			So(out.Emotions, ShouldHaveLength, 1)
		})
	})
}

type fakeGeocoder struct {
	calls atomic.Int32
}

func (f *fakeGeocoder) Lookup(_ context.Context, _, _ float64) (string, error) {
	f.calls.Add(1)
	return "渋谷区", nil
}

func TestService_Places(t *testing.T) {
	Convey("Given a service with a geocoder", t, func() {
		geo := &fakeGeocoder{}
		svc := started(
			service.WithProvider(seeded()),
			service.WithGeocoder(geo),
			service.WithGeocodeInterval(0),
		)
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("When the same view is requested until places arrive", func() {
			first, err := svc.Online(ctx, now)
			So(err, ShouldBeNil)
			So(first.Online[0].Place, ShouldBeEmpty)

			var place string
			deadline := time.Now().Add(2 * time.Second)
			for place == "" && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
				out, err := svc.Online(ctx, now)
				So(err, ShouldBeNil)
				place = out.Online[0].Place
			}

			Convey("Then the cached name is served", func() {
				So(place, ShouldEqual, "渋谷区")
				So(svc.GetStats()["geocodeWorkers"], ShouldEqual, 1)
			})
		})
	})
}

func total(a types.Activity, key string) int {
	n := 0
	for _, b := range a.Buckets {
		n += b.Counts[key]
	}
	return n
}

func TestService_PresenceTimestamp(t *testing.T) {
	Convey("Given a close pair and two presences stamped only by lastUpdatedAt", t, func() {
		mem := repository.NewMemory()
		So(mem.Put(repository.Presences,
			presence("a", now.Add(-1*time.Minute), 35.6580, 139.7016),
			presence("b", now.Add(-3*time.Minute), 35.6584, 139.7016),
			model.RawRecord{ID: "x", Fields: map[string]any{
				"lastUpdatedAt": now.Add(-2 * time.Minute).Format(time.RFC3339), "lat": 35.6580, "lng": 139.7016,
			}},
			model.RawRecord{ID: "y", Fields: map[string]any{
				"lastUpdatedAt": now.Add(-4 * time.Minute).Format(time.RFC3339), "lat": 35.6584, "lng": 139.7016,
			}},
		), ShouldBeNil)
		svc := started(service.WithProvider(mem))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("Then every view sees the same presences", func() {
			online, err := svc.Online(ctx, now)
			So(err, ShouldBeNil)
			So(online.OnlineCount, ShouldEqual, 2)
			So(online.Dropped, ShouldEqual, 2)

			encounters, err := svc.Encounters(ctx, now)
			So(err, ShouldBeNil)
			So(encounters.Count, ShouldEqual, 1)
			So(encounters.Encounters[0].ID, ShouldEqual, "a_b")

			summary, err := svc.Summary(ctx, now)
			So(err, ShouldBeNil)
			So(summary.EncountersToday, ShouldEqual, 2)

			buckets, err := svc.Activity(ctx, activity.Last24Hours, now)
			So(err, ShouldBeNil)
			So(total(buckets, "online"), ShouldEqual, 2)
		})
	})
}

func TestService_ActivityLimits(t *testing.T) {
	Convey("Given more in-range presences and posts than the hourly cap", t, func() {
		mem := repository.NewMemory()
		for i := range 12 {
			at := now.Add(-time.Duration(i) * 2 * time.Minute)
			id := fmt.Sprintf("n%02d", i)
			So(mem.Put(repository.Presences, presence(id, at, 35.0+float64(i), 139.0)), ShouldBeNil)
			So(mem.Put(repository.Posts, model.RawRecord{ID: id, Fields: map[string]any{"createdAt": at}}), ShouldBeNil)
		}
		svc := started(service.WithProvider(mem), service.WithActivityLimits(5, 5))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("When aggregating the last 24 hours", func() {
			out, err := svc.Activity(ctx, activity.Last24Hours, now)
			So(err, ShouldBeNil)

			Convey("Then every presence is bucketed and only posts are capped", func() {
				So(total(out, "online"), ShouldEqual, 12)
				So(total(out, "posts"), ShouldEqual, 5)
			})

			Convey("Then the dashboard agrees on presences", func() {
				dash, err := svc.Dashboard(ctx, activity.Last24Hours, now)
				So(err, ShouldBeNil)
				So(total(*dash.Activity, "online"), ShouldEqual, total(out, "online"))
			})
		})
	})
}
