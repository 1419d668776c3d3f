package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		Convey("Should order by major, minor and patch", func() {
			c, err := Compare("1.2.3", "1.2.3")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, 0)

			c, err = Compare("v1.3.0", "1.2.9")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, 1)

			c, err = Compare("0.2.9", "0.3")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, -1)
		})

		Convey("Should fail on garbage", func() {
			_, err := Compare("latest", "1.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCompatible(t *testing.T) {
	Convey("Given host protocol 0.3.1", t, func() {
		host := "0.3.1"

		Convey("A different patch level should be accepted", func() {
			for _, p := range []string{"0.3.9", "0.3.0", "0.3"} {
				ok, err := Compatible(host, p)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			}
		})

		Convey("A different minor or major should be rejected", func() {
			for _, p := range []string{"0.2.9", "1.3.1", "0.4.1"} {
				ok, err := Compatible(host, p)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("A malformed protocol should be an error", func() {
			_, err := Compatible(host, "three")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestValid(t *testing.T) {
	Convey("Valid", t, func() {
		So(Valid("1.0.0"), ShouldBeTrue)
		So(Valid("v2.1"), ShouldBeTrue)
		So(Valid("not-a-version"), ShouldBeFalse)
	})
}
