package where

import (
	"path/filepath"
	"testing"

	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Given a config path override", t, func() {
		t.Setenv(EnvConfigPath, "/comiknet-test")

		Convey("Config should use it and create the directory", func() {
			So(Config(), ShouldEqual, "/comiknet-test")
			exists, err := filesystem.API().DirExists("/comiknet-test")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})

		Convey("Plugins should live under the config directory", func() {
			So(Plugins(), ShouldEqual, filepath.Join("/comiknet-test", "plugins"))
		})

		Convey("Plugins should honor plugins.path", func() {
			viper.Set(key.PluginsPath, "/elsewhere")
			defer viper.Set(key.PluginsPath, "")
			So(Plugins(), ShouldEqual, "/elsewhere")
		})

		Convey("Credentials should be a file in the config directory", func() {
			So(filepath.Base(Credentials()), ShouldEqual, "credentials.json")
		})

		Convey("Queries should be a file in the cache directory", func() {
			So(filepath.Dir(Queries()), ShouldEqual, Cache())
		})
	})
}
