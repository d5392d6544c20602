package model_test

import (
	"testing"
	"time"

	model "github.com/okian/streetpass/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDayOf(t *testing.T) {
	convey.Convey("Given a reference instant", t, func() {
		at := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)

		convey.Convey("When the day is taken in UTC", func() {
			day := model.DayOf(at, time.UTC)

			convey.Convey("Then it spans midnight to the last millisecond", func() {
				convey.So(day.Start, convey.ShouldEqual, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
				convey.So(day.End, convey.ShouldEqual, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()-1)
				convey.So(day.Contains(day.Start), convey.ShouldBeTrue)
				convey.So(day.Contains(day.End), convey.ShouldBeTrue)
				convey.So(day.Contains(day.End+1), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the day is taken in UTC+9", func() {
			tokyo := time.FixedZone("JST", 9*60*60)
			day := model.DayOf(at, tokyo)

			convey.Convey("Then 18:30Z already belongs to the next local day", func() {
				convey.So(day.Start, convey.ShouldEqual, time.Date(2024, 1, 2, 0, 0, 0, 0, tokyo).UnixMilli())
				convey.So(day.Contains(at.UnixMilli()), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When no location is given", func() {
			convey.So(model.DayOf(at, nil), convey.ShouldResemble, model.DayOf(at, time.UTC))
		})
	})
}

func TestLocationValid(t *testing.T) {
	convey.Convey("Given coordinates", t, func() {
		convey.So(model.Location{Lat: 35.6, Lng: 139.7}.Valid(), convey.ShouldBeTrue)
		convey.So(model.Location{Lat: 90, Lng: -180}.Valid(), convey.ShouldBeTrue)
		convey.So(model.Location{Lat: 91, Lng: 0}.Valid(), convey.ShouldBeFalse)
		convey.So(model.Location{Lat: 0, Lng: 180.5}.Valid(), convey.ShouldBeFalse)
	})
}
