package seed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/adapters/repository/sqlite"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/normalize"
	"github.com/okian/streetpass/internal/domain/proximity"
	"github.com/okian/streetpass/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func smallConfig() seed.Config {
	cfg := seed.DefaultConfig()
	cfg.Profiles, cfg.Posts, cfg.Reactions = 40, 30, 50
	cfg.Clusters = 2
	cfg.Now = time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	cfg.Seed = 7
	return cfg
}

func TestGenerate(t *testing.T) {
	Convey("Given a small config", t, func() {
		cfg := smallConfig()

		Convey("When generating", func() {
			data, err := seed.Generate(cfg)
			So(err, ShouldBeNil)

			Convey("Then every dataset has its size", func() {
				So(data[repository.Profiles], ShouldHaveLength, 40)
				So(data[repository.Presences], ShouldHaveLength, 40)
				So(data[repository.Posts], ShouldHaveLength, 30)
				So(data[repository.Reactions], ShouldHaveLength, 50)
				So(data.Len(), ShouldEqual, 160)
			})

			Convey("Then every presence normalizes inside a cluster", func() {
				presences, dropped := normalize.Presences(data[repository.Presences])
				So(dropped, ShouldEqual, 0)
				shibuya := model.Location{Lat: 35.6580, Lng: 139.7016}
				shinjuku := model.Location{Lat: 35.6896, Lng: 139.7006}
				for _, p := range presences {
					So(p.Location, ShouldNotBeNil)
					d := min(proximity.Haversine(*p.Location, shibuya), proximity.Haversine(*p.Location, shinjuku))
					So(d, ShouldBeLessThanOrEqualTo, 151.0)
					So(p.Timestamp, ShouldBeLessThanOrEqualTo, cfg.Now.UnixMilli())
				}
			})

			Convey("Then content is dated within the spread", func() {
				posts, undated := normalize.Posts(data[repository.Posts])
				So(undated, ShouldEqual, 0)
				oldest := cfg.Now.Add(-cfg.Spread).UnixMilli()
				for _, p := range posts {
					So(p.CreatedAt, ShouldBeBetweenOrEqual, oldest, cfg.Now.UnixMilli())
				}
			})

			Convey("Then fresh presences produce encounters", func() {
				presences, _ := normalize.Presences(data[repository.Presences])
				events := proximity.Match(presences, model.DayOf(cfg.Now, time.UTC), proximity.DefaultWindow, proximity.DefaultDistanceMeters)
				So(len(events), ShouldBeGreaterThan, 0)
			})

			Convey("Then the same seed generates the same dataset", func() {
				again, err := seed.Generate(cfg)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, data)
			})
		})

		Convey("When the config is invalid", func() {
			cfg.Clusters = 0
			_, err := seed.Generate(cfg)
			So(errors.Is(err, seed.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

type failingSink struct{}

func (failingSink) Put(context.Context, repository.Dataset, ...model.RawRecord) error {
	return errors.New("disk full")
}

func TestLoad(t *testing.T) {
	Convey("Given a generated dataset", t, func() {
		ctx := context.Background()
		data, err := seed.Generate(smallConfig())
		So(err, ShouldBeNil)

		Convey("When loading it into SQLite", func() {
			store, err := sqlite.Open(ctx, ":memory:")
			So(err, ShouldBeNil)
			defer func() { _ = store.Close(ctx) }()

			stats, err := seed.Load(ctx, store, data, nil)
			So(err, ShouldBeNil)

			Convey("Then every record is readable", func() {
				So(stats.Written[repository.Reactions], ShouldEqual, 50)
				records, err := store.Fetch(ctx, repository.Presences, repository.Filter{})
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 40)
			})
		})

		Convey("When the sink fails", func() {
			_, err := seed.Load(ctx, failingSink{}, data, nil)
			So(errors.Is(err, seed.ErrLoad), ShouldBeTrue)
		})
	})
}
