package cmd

import (
	"testing"

	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/where"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestLocationOrigin(t *testing.T) {
	find := func(flag string) location {
		l, ok := lo.Find(locations, func(l location) bool { return l.flag == flag })
		So(ok, ShouldBeTrue)
		return l
	}

	Convey("Given the known locations", t, func() {
		Convey("Plugins should report a plugins.path override", func() {
			viper.Set(key.PluginsPath, "/srv/comics")
			defer viper.Set(key.PluginsPath, "")

			origin, ok := find("plugins").overriddenBy()
			So(ok, ShouldBeTrue)
			So(origin, ShouldEqual, key.PluginsPath)
		})

		Convey("Plugins should report no origin without an override", func() {
			viper.Set(key.PluginsPath, "")
			_, ok := find("plugins").overriddenBy()
			So(ok, ShouldBeFalse)
		})

		Convey("Config should report the environment override", func() {
			t.Setenv(where.EnvConfigPath, "/tmp/comiknet-config")
			origin, ok := find("config").overriddenBy()
			So(ok, ShouldBeTrue)
			So(origin, ShouldEqual, "$"+where.EnvConfigPath)
		})

		Convey("Locations without an override setting should never report one", func() {
			_, ok := find("logs").overriddenBy()
			So(ok, ShouldBeFalse)
		})
	})
}
