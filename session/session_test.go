package session

import (
	"encoding/base64"
	"testing"

	"github.com/comiknet/comiknet/source"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

type fixed []source.ID

func (f fixed) Sources() []source.ID { return f }

func TestRoundTrip(t *testing.T) {
	Convey("Given an aggregator over registered sources", t, func() {
		a := New(fixed{"alpha", "beta"})

		Convey("A jar should survive serialization", func() {
			jar := Jar{"alpha": {"sid": "1", "uid": "kim"}, "beta": {}}
			So(a.Deserialize(a.Serialize(jar)), ShouldResemble, jar)
		})

		Convey("Missing sources should be added and unregistered ones dropped", func() {
			jar := Jar{"alpha": {"sid": "1"}, "gone": {"x": "y"}}
			So(a.Deserialize(a.Serialize(jar)), ShouldResemble, Jar{"alpha": {"sid": "1"}, "beta": {}})
		})

		Convey("The serialized form should be cookie safe", func() {
			s := a.Serialize(Jar{"alpha": {"k": "a value; with=separators"}})
			So(s, ShouldNotContainSubstring, ";")
			So(s, ShouldNotContainSubstring, " ")
			So(s, ShouldNotContainSubstring, "=")
		})

		Convey("A nil jar should serialize to an empty object", func() {
			So(a.Deserialize(a.Serialize(nil)), ShouldResemble, Jar{"alpha": {}, "beta": {}})
		})
	})
}

func TestDefensiveDecoding(t *testing.T) {
	Convey("Given an aggregator over registered sources", t, func() {
		a := New(fixed{"alpha", "beta"})
		empty := Jar{"alpha": {}, "beta": {}}

		for name, input := range map[string]string{
			"empty":       "",
			"garbage":     "%%%not a cookie",
			"non object":  base64.RawURLEncoding.EncodeToString([]byte(`["alpha"]`)),
			"broken json": "{\"alpha\":",
		} {
			input := input
			Convey("A "+name+" value should give an empty jar", func() {
				So(a.Deserialize(input), ShouldResemble, empty)
			})
		}

		Convey("Plain JSON should be accepted", func() {
			So(a.Deserialize(`{"alpha":{"sid":"1"}}`), ShouldResemble, Jar{"alpha": {"sid": "1"}, "beta": {}})
		})

		Convey("A cookie header string per source should be accepted", func() {
			So(a.Deserialize(`{"beta":"sid=2; theme=dark"}`), ShouldResemble, Jar{"alpha": {}, "beta": {"sid": "2", "theme": "dark"}})
		})

		Convey("Non string values should be skipped", func() {
			So(a.Deserialize(`{"alpha":{"sid":"1","n":3,"o":null}}`), ShouldResemble, Jar{"alpha": {"sid": "1"}, "beta": {}})
		})
	})
}

func TestSet(t *testing.T) {
	Convey("Given a jar with existing cookies", t, func() {
		jar := Jar{"alpha": {"old": "1"}}

		Convey("Set should overwrite the entry and drop nil values", func() {
			Set(jar, "alpha", map[string]*string{"sid": lo.ToPtr("abc"), "gone": nil})
			So(jar["alpha"], ShouldResemble, map[string]string{"sid": "abc"})
		})

		Convey("Get should never return nil", func() {
			So(Get(jar, "beta"), ShouldNotBeNil)
			So(Get(jar, "alpha"), ShouldResemble, map[string]string{"old": "1"})
		})
	})
}
