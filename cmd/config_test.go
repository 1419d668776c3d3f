package cmd

import (
	"testing"

	"github.com/comiknet/comiknet/config"
	"github.com/comiknet/comiknet/key"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseValue(t *testing.T) {
	Convey("Given registered configuration fields", t, func() {
		Convey("Values should follow the type of the default", func() {
			v, err := parseValue(config.Default[key.PluginsSearchConcurrency], []string{"8"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 8)

			v, err = parseValue(config.Default[key.PluginsStrict], []string{"true"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, true)

			v, err = parseValue(config.Default[key.CredentialsBackend], []string{"redis"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "redis")
		})

		Convey("Malformed values should be refused", func() {
			_, err := parseValue(config.Default[key.PluginsSearchConcurrency], []string{"many"})
			So(err, ShouldNotBeNil)

			_, err = parseValue(config.Default[key.PluginsStrict], nil)
			So(err, ShouldNotBeNil)
		})

		Convey("Unknown keys should suggest a registered one", func() {
			_, err := lookupField("plugins.strcit")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.PluginsStrict)
		})
	})
}
