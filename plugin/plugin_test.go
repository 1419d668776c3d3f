package plugin

import (
	"testing"

	"github.com/comiknet/comiknet/manifest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	Convey("Given an empty catalog", t, func() {
		c := NewCatalog()

		Convey("When trying to get an unknown entry", func() {
			_, ok := c.Lookup("kek")
			Convey("Then ok should be false", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When registering a factory", func() {
			f := func(*manifest.Manifest) (any, error) { return "instance", nil }
			So(c.Register("alpha", f), ShouldBeNil)

			Convey("It should be found by its entry", func() {
				got, ok := c.Lookup("alpha")
				So(ok, ShouldBeTrue)
				inst, err := got(&manifest.Manifest{})
				So(err, ShouldBeNil)
				So(inst, ShouldEqual, "instance")
			})

			Convey("Registering it again should fail", func() {
				So(c.Register("alpha", f), ShouldNotBeNil)
			})

			Convey("Entries should list it", func() {
				So(c.Entries(), ShouldResemble, []string{"alpha"})
			})
		})
	})
}
