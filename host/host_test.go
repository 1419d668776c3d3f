package host

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/comiknet/comiknet/account"
	"github.com/comiknet/comiknet/credential"
	"github.com/comiknet/comiknet/dispatch"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/lifecycle"
	"github.com/comiknet/comiknet/plugin"
	"github.com/comiknet/comiknet/session"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/zalando/go-keyring"
)

const root = "/plugins"

func write(path, content string) {
	So(filesystem.API().MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
	So(filesystem.API().WriteFile(path, []byte(content), 0o644), ShouldBeNil)
}

func TestHost(t *testing.T) {
	Convey("Given a plugin directory with a lua plugin and a broken one", t, func() {
		filesystem.SetMemMapFs()
		keyring.MockInit()

		write(filepath.Join(root, "demo", "plugin.toml"), `
name = "demo"
version = "1.2.0"
protocol = "0.3.0"
runtime = "lua"
sources = ["demo", "demo2"]

[capabilities]
listing = []
auth = ["user", "password"]
`)
		write(filepath.Join(root, "demo", "main.lua"), `
function SearchComics(query, extras, src)
	return { { id = "1", name = query .. "@" .. src } }
end
function ComicAlbum(id) return { id = id, name = "album" } end
function Login(form, src)
	if form.password ~= "pw" then error("denied") end
	return { sid = form.user }
end
`)
		write(filepath.Join(root, "old", "plugin.toml"), `
name = "old"
version = "1.0.0"
protocol = "0.2"
sources = ["old"]
`)

		Convey("A lenient host should serve the compatible plugin", func() {
			h, err := New(context.Background(), Options{Dir: root, Catalog: plugin.NewCatalog(), Store: credential.NewKeyring()})
			So(err, ShouldBeNil)
			So(h.Start(context.Background()), ShouldBeNil)
			defer h.Close(context.Background())

			So(h.Dispatcher.Sources(), ShouldResemble, []string{"demo", "demo2"})

			results := h.Dispatcher.SearchAll(context.Background(), "q")
			So(results, ShouldHaveLength, 2)
			So(results[1].Comics[0].Name, ShouldEqual, "q@demo2")

			fields, err := h.Dispatcher.LoginFields("demo")
			So(err, ShouldBeNil)
			So(fields, ShouldResemble, []string{"user", "password"})

			Convey("A login should round trip through the session cookie and the store", func() {
				jar := h.Sessions.Deserialize("")
				err := h.Accounts.Login(context.Background(), accountRequest("demo"), jar)
				So(err, ShouldBeNil)

				restored := h.Sessions.Deserialize(h.Sessions.Serialize(jar))
				So(session.Get(restored, "demo"), ShouldResemble, map[string]string{"sid": "kim"})
				So(session.Get(restored, "demo2"), ShouldBeEmpty)

				fresh := h.Sessions.Deserialize("")
				So(h.Accounts.Restore(context.Background(), "u1", "demo", "secret", fresh), ShouldBeNil)
				So(fresh["demo"]["sid"], ShouldEqual, "kim")
			})

			Convey("Closing should unload the plugins", func() {
				So(h.Close(context.Background()), ShouldBeNil)
				_, err := h.Dispatcher.Search(context.Background(), "demo", "q")
				So(errors.Is(err, dispatch.ErrSourceNotFound), ShouldBeTrue)
			})
		})

		Convey("A strict host should refuse to start", func() {
			h, err := New(context.Background(), Options{Dir: root, Strict: true, Catalog: plugin.NewCatalog(), Store: credential.NewKeyring()})
			So(err, ShouldBeNil)

			err = h.Start(context.Background())
			So(errors.Is(err, lifecycle.ErrIncompatibleProtocol), ShouldBeTrue)
			So(h.Dispatcher.Sources(), ShouldBeEmpty)
		})
	})
}

func accountRequest(src string) account.LoginRequest {
	return account.LoginRequest{
		User:     "u1",
		Source:   src,
		Form:     map[string]string{"user": "kim", "password": "pw"},
		Key:      "secret",
		Remember: true,
	}
}
