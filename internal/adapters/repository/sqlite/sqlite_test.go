package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func openTest(t *testing.T) *Provider {
	t.Helper()
	p, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestProviderFetch(t *testing.T) {
	Convey("Given a SQLite provider with presences and posts", t, func() {
		ctx := context.Background()
		p := openTest(t)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		So(p.Put(ctx, repository.Presences,
			model.RawRecord{ID: "a", Fields: map[string]any{"lastUpdatedMs": base.UnixMilli(), "lat": 35.6, "active": true}},
			model.RawRecord{ID: "b", Fields: map[string]any{"lastUpdatedMs": base.Add(time.Minute).UnixMilli()}},
			model.RawRecord{ID: "c", Fields: map[string]any{"lastUpdatedMs": "bogus"}},
		), ShouldBeNil)
		So(p.Put(ctx, repository.Posts,
			model.RawRecord{ID: "p1", Fields: map[string]any{"createdAt": base.Add(-time.Hour)}},
			model.RawRecord{ID: "p2", Fields: map[string]any{"createdAt": base.Add(time.Hour)}},
		), ShouldBeNil)

		Convey("When fetching all presences", func() {
			got, err := p.Fetch(ctx, repository.Presences, repository.Filter{})

			Convey("Then bodies round-trip and timestamps stay exact", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].ID, ShouldEqual, "a")
				ts, ok := normalize.Timestamp(got[0].Fields["lastUpdatedMs"])
				So(ok, ShouldBeTrue)
				So(ts, ShouldEqual, base.UnixMilli())
				So(got[0].Fields["active"], ShouldEqual, true)
			})
		})

		Convey("When fetching newest first with a bound and a limit", func() {
			got, err := p.Fetch(ctx, repository.Presences, repository.Filter{Since: base, Desc: true, Limit: 1})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].ID, ShouldEqual, "b")
		})

		Convey("When fetching posts since a date", func() {
			got, err := p.Fetch(ctx, repository.Posts, repository.Filter{Since: base})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].ID, ShouldEqual, "p2")

			ts, ok := normalize.Timestamp(got[0].Fields["createdAt"])
			So(ok, ShouldBeTrue)
			So(ts, ShouldEqual, base.Add(time.Hour).UnixMilli())
		})

		Convey("When a record is replaced", func() {
			So(p.Put(ctx, repository.Presences, model.RawRecord{ID: "c", Fields: map[string]any{"lastUpdatedMs": base.Add(time.Hour).UnixMilli()}}), ShouldBeNil)
			got, err := p.Fetch(ctx, repository.Presences, repository.Filter{Desc: true})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].ID, ShouldEqual, "c")
		})

		Convey("When the dataset or filter is invalid", func() {
			_, err := p.Fetch(ctx, "nope", repository.Filter{})
			So(errors.Is(err, repository.ErrUnknownDataset), ShouldBeTrue)
			_, err = p.Fetch(ctx, repository.Posts, repository.Filter{Limit: -5})
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestProviderClosed(t *testing.T) {
	Convey("Given a closed provider", t, func() {
		ctx := context.Background()
		p, err := Open(ctx, ":memory:")
		So(err, ShouldBeNil)
		So(p.Close(ctx), ShouldBeNil)

		_, err = p.Fetch(ctx, repository.Posts, repository.Filter{})
		So(errors.Is(err, repository.ErrFetch), ShouldBeTrue)
	})
}

func TestBuildQuery(t *testing.T) {
	Convey("Given a full filter", t, func() {
		q, args := buildQuery(repository.Posts, repository.Filter{Since: time.UnixMilli(5), Limit: 3, Desc: true})
		So(q, ShouldContainSubstring, "ts_ms >= ?")
		So(q, ShouldContainSubstring, "ts_ms DESC")
		So(q, ShouldContainSubstring, "LIMIT ?")
		So(args, ShouldResemble, []any{"timelinePosts", int64(5), 3})
	})
}
