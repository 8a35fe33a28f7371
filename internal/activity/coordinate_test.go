package activity_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/briangreenhill/gpxfetch/internal/activity"
)

func TestParseCoordinate(t *testing.T) {
	Convey("Given coordinate strings", t, func() {
		Convey("A parenthesized pair parses", func() {
			c, err := activity.ParseCoordinate("(51.22, 4.40)")
			So(err, ShouldBeNil)
			So(c.Lat, ShouldEqual, 51.22)
			So(c.Lon, ShouldEqual, 4.40)
		})

		Convey("Parentheses are optional and whitespace is tolerated", func() {
			c, err := activity.ParseCoordinate("  -33.86,151.21 ")
			So(err, ShouldBeNil)
			So(c.Lat, ShouldEqual, -33.86)
			So(c.Lon, ShouldEqual, 151.21)
		})

		Convey("A missing longitude is rejected", func() {
			_, err := activity.ParseCoordinate("(51.2,)")
			So(err, ShouldWrap, activity.ErrInvalidCoordinate)
		})

		Convey("A missing comma is rejected", func() {
			_, err := activity.ParseCoordinate("(51.2 4.4)")
			So(err, ShouldWrap, activity.ErrInvalidCoordinate)
		})

		Convey("Three components are rejected", func() {
			_, err := activity.ParseCoordinate("(1, 2, 3)")
			So(err, ShouldWrap, activity.ErrInvalidCoordinate)
		})

		Convey("Non-numeric values are rejected", func() {
			_, err := activity.ParseCoordinate("(north, south)")
			So(err, ShouldWrap, activity.ErrInvalidCoordinate)
		})
	})
}

func TestDistance(t *testing.T) {
	antwerp := activity.Coordinate{Lat: 51.22, Lon: 4.40}
	leuven := activity.Coordinate{Lat: 50.88, Lon: 4.70}

	Convey("Given two coordinates", t, func() {
		Convey("The distance from a point to itself is zero", func() {
			So(activity.Distance(antwerp, antwerp), ShouldEqual, 0)
		})

		Convey("The distance is symmetric", func() {
			So(activity.Distance(antwerp, leuven), ShouldEqual, activity.Distance(leuven, antwerp))
		})

		Convey("Antwerp to Leuven is roughly 43 km", func() {
			So(activity.Distance(antwerp, leuven), ShouldAlmostEqual, 43.2, 0.5)
		})

		Convey("Antipodal points are half the Earth's circumference apart", func() {
			north := activity.Coordinate{Lat: 90, Lon: 0}
			south := activity.Coordinate{Lat: -90, Lon: 0}
			So(activity.Distance(north, south), ShouldAlmostEqual, 6371*3.14159265, 1)
		})
	})
}
