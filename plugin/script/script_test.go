package script

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/internal/cache"
	"github.com/comiknet/comiknet/manifest"
	"github.com/comiknet/comiknet/source"
	. "github.com/smartystreets/goconvey/convey"
)

const full = `
local loaded = false

function OnLoad()
	loaded = true
	return true
end

function SearchComics(query, extras, src)
	if query == "fail" then
		error("upstream down")
	end
	return {
		{ id = "1", name = query .. " " .. src, author = "Oda, Someone", cover = "c.jpg" },
		{ id = "2", name = "second", authors = { "A" } },
		{ name = "missing id" },
		"not a table",
	}
end

function ComicAlbum(id, src)
	return {
		id = id,
		name = "Album " .. id,
		description = "desc",
		tags = "action, drama",
		views = 10,
		finished = true,
		chapters = { { id = "c1", title = "One" }, { id = "c2" } },
		extras = { loaded = loaded, pages = { 1, 2 } },
	}
end

function Login(form, src)
	if form.password ~= "pw" then
		error("bad credentials")
	end
	return { sid = "s-" .. form.user, stale = false, count = 3 }
end

function ShapeImage(data, content_type, src)
	return string.reverse(data), "image/png"
end
`

const minimal = `
function SearchComics(query) return {} end
function ComicAlbum(id) return { id = id, name = id } end
`

const spinning = `
function SearchComics(query, extras, src)
	while true do end
end
function ComicAlbum(id) return { id = id, name = id } end
function Login(form) return {} end
`

func load(script string) (*Plugin, error) {
	dir := "/plugins/p"
	So(filesystem.API().MkdirAll(dir, 0o755), ShouldBeNil)
	So(filesystem.API().WriteFile(filepath.Join(dir, "main.lua"), []byte(script), 0o644), ShouldBeNil)

	instance, err := Load(context.Background(), &manifest.Manifest{Name: "p", Entry: "main.lua"}, dir)
	if err != nil {
		return nil, err
	}
	return instance.(*Plugin), nil
}

func TestScript(t *testing.T) {
	Convey("Given a script defining every capability", t, func() {
		filesystem.SetMemMapFs()
		p, err := load(full)
		So(err, ShouldBeNil)
		ok, err := p.OnLoad(context.Background())
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		defer p.OnUnload(context.Background())
		ctx := context.Background()

		Convey("It should advertise every capability", func() {
			So(capability.Of(p).Names(), ShouldResemble, []capability.Name{capability.Auth, capability.Image, capability.Listing})
		})

		Convey("Search should skip invalid entries", func() {
			comics, err := p.Search(ctx, "alpha", "naruto")
			So(err, ShouldBeNil)
			So(comics, ShouldHaveLength, 2)
			So(comics[0].Name, ShouldEqual, "naruto alpha")
			So(comics[0].Authors, ShouldResemble, []string{"Oda", "Someone"})
			So(comics[0].Source, ShouldEqual, "alpha")
			So(comics[1].Authors, ShouldResemble, []string{"A"})
		})

		Convey("A script error should be returned", func() {
			_, err := p.Search(ctx, "alpha", "fail")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "upstream down")
		})

		Convey("Album should translate chapters and extras", func() {
			album, err := p.Album(ctx, "alpha", "42")
			So(err, ShouldBeNil)
			So(album.Name, ShouldEqual, "Album 42")
			So(album.Tags, ShouldResemble, []string{"action", "drama"})
			So(album.Views, ShouldEqual, 10)
			So(album.IsFinished, ShouldBeTrue)
			So(album.Chapters, ShouldHaveLength, 2)
			So(album.Chapters[1].Title, ShouldEqual, "c2")
			So(album.Chapters[1].Index, ShouldEqual, 2)
			So(album.Extras["loaded"], ShouldEqual, true)
			So(album.Extras["pages"], ShouldResemble, []any{float64(1), float64(2)})
		})

		Convey("Login should map false to a removed cookie", func() {
			cookies, err := p.Login(ctx, "alpha", map[string]string{"user": "kim", "password": "pw"})
			So(err, ShouldBeNil)
			So(*cookies["sid"], ShouldEqual, "s-kim")
			So(*cookies["count"], ShouldEqual, "3")
			v, present := cookies["stale"]
			So(present, ShouldBeTrue)
			So(v, ShouldBeNil)
		})

		Convey("ShapeImage should return the new data and type", func() {
			img, err := p.ShapeImage(ctx, "alpha", &source.Image{Data: []byte("abc"), ContentType: "image/jpeg"})
			So(err, ShouldBeNil)
			So(string(img.Data), ShouldEqual, "cba")
			So(img.ContentType, ShouldEqual, "image/png")
		})
	})
}

func TestMinimalScript(t *testing.T) {
	Convey("Given a script with only listing", t, func() {
		filesystem.SetMemMapFs()
		p, err := load(minimal)
		So(err, ShouldBeNil)

		Convey("It should load without an OnLoad function", func() {
			ok, err := p.OnLoad(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("Optional capabilities should be withdrawn", func() {
			So(capability.Of(p).Names(), ShouldResemble, []capability.Name{capability.Listing})
		})

		Convey("Calls after unload should fail", func() {
			So(p.OnUnload(context.Background()), ShouldBeNil)
			_, err := p.Album(context.Background(), "alpha", "1")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBrokenScripts(t *testing.T) {
	Convey("Given scripts that cannot serve as plugins", t, func() {
		filesystem.SetMemMapFs()

		Convey("A script without ComicAlbum should be refused", func() {
			_, err := load(`function SearchComics() return {} end`)
			So(err, ShouldNotBeNil)
		})

		Convey("A script with a syntax error should be refused", func() {
			_, err := load(`function (`)
			So(err, ShouldNotBeNil)
		})

		Convey("A declining OnLoad should report false", func() {
			p, err := load(minimal + "\nfunction OnLoad() return false end\n")
			So(err, ShouldBeNil)
			ok, err := p.OnLoad(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCachedRequest(t *testing.T) {
	Convey("Given a cached response for a request", t, func() {
		filesystem.SetMemMapFs()
		key := cache.GenerateKey("GET https://comics.invalid/list", "p")
		So(cache.Write(key, response{Status: 200, Body: "cached body"}), ShouldBeNil)

		Convey("http_tls.request should serve it without the network", func() {
			p, err := load(`
local http = require("http_tls")
function SearchComics(query)
	local resp = http.request({ url = "https://comics.invalid/list", cache = true })
	return { { id = tostring(resp.status), name = resp.body } }
end
function ComicAlbum(id) return { id = id, name = id } end
`)
			So(err, ShouldBeNil)

			comics, err := p.Search(context.Background(), "alpha", "q")
			So(err, ShouldBeNil)
			So(comics[0].Name, ShouldEqual, "cached body")
			So(comics[0].ID, ShouldEqual, "200")
		})
	})
}

func TestCapabilitiesDuringCall(t *testing.T) {
	Convey("Given a script whose search never returns", t, func() {
		filesystem.SetMemMapFs()
		p, err := load(spinning)
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		searched := make(chan error, 1)
		go func() {
			_, err := p.Search(ctx, "alpha", "x")
			searched <- err
		}()
		time.Sleep(50 * time.Millisecond)

		Convey("Capability queries should answer while the search runs", func() {
			answered := make(chan bool, 1)
			go func() { answered <- capability.Supports(p, capability.Auth) }()

			select {
			case ok := <-answered:
				So(ok, ShouldBeTrue)
			case <-time.After(time.Second):
				So("capability query blocked by a running call", ShouldBeEmpty)
			}
			So(capability.Of(p).Has(capability.Favorites), ShouldBeFalse)

			cancel()
			select {
			case err := <-searched:
				So(err, ShouldNotBeNil)
			case <-time.After(5 * time.Second):
				So("search ignored cancellation", ShouldBeEmpty)
			}
		})

		Reset(func() {
			cancel()
		})
	})
}
