package script

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	lua "github.com/yuin/gopher-lua"
)

func TestComicFromTable(t *testing.T) {
	Convey("comicFromTable", t, func() {
		L := lua.NewState()
		defer L.Close()

		Convey("Should extract a comic from a valid table", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LNumber(7))
			tbl.RawSetString("name", lua.LString("Bleach"))
			tbl.RawSetString("cover", lua.LString("https://example.com/cover.jpg"))

			comic, err := comicFromTable(tbl, "alpha")
			So(err, ShouldBeNil)
			So(comic.ID, ShouldEqual, "7")
			So(comic.Cover, ShouldEqual, "https://example.com/cover.jpg")
			So(comic.Source, ShouldEqual, "alpha")
		})

		Convey("Should fail when the name is missing", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("1"))

			_, err := comicFromTable(tbl, "alpha")
			So(err, ShouldNotBeNil)
		})

		Convey("Should drop empty authors from a string list", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("1"))
			tbl.RawSetString("name", lua.LString("x"))
			tbl.RawSetString("author", lua.LString("A, , B"))

			comic, err := comicFromTable(tbl, "alpha")
			So(err, ShouldBeNil)
			So(comic.Authors, ShouldResemble, []string{"A", "B"})
		})
	})
}

func TestAlbumFromTable(t *testing.T) {
	Convey("albumFromTable", t, func() {
		L := lua.NewState()
		defer L.Close()

		tbl := L.NewTable()
		tbl.RawSetString("id", lua.LString("1"))
		tbl.RawSetString("name", lua.LString("x"))

		Convey("Should read numbers given as strings", func() {
			tbl.RawSetString("favorites", lua.LString(" 12 "))

			album, err := albumFromTable(tbl, "alpha")
			So(err, ShouldBeNil)
			So(album.Favorites, ShouldEqual, 12)
		})

		Convey("Should fail on a chapter without id", func() {
			chapters := L.NewTable()
			chapter := L.NewTable()
			chapter.RawSetString("title", lua.LString("One"))
			chapters.Append(chapter)
			tbl.RawSetString("chapters", chapters)

			_, err := albumFromTable(tbl, "alpha")
			So(err, ShouldNotBeNil)
		})
	})
}
