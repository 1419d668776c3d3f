package query

import (
	"testing"

	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestQuery(t *testing.T) {
	Convey("Given an empty query history", t, func() {
		filesystem.SetMemMapFs()
		viper.Set(key.SearchRememberQueries, true)

		Convey("Queries searched more often should come first", func() {
			So(Remember("One Piece"), ShouldBeNil)
			So(Remember("one   piece"), ShouldBeNil)
			So(Remember("onepunch"), ShouldBeNil)
			So(Remember("berserk"), ShouldBeNil)

			So(Suggest("one", 0), ShouldResemble, []string{"one piece", "onepunch"})
			So(Suggest("", 1), ShouldResemble, []string{"one piece"})
		})

		Convey("Nothing should be remembered when history is disabled", func() {
			viper.Set(key.SearchRememberQueries, false)
			So(Remember("vagabond"), ShouldBeNil)
			So(Suggest("vagabond", 0), ShouldBeEmpty)
		})

		Convey("Blank queries should be ignored", func() {
			So(Remember("   "), ShouldBeNil)
			So(Suggest("", 0), ShouldBeEmpty)
		})
	})
}
