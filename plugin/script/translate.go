package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/comiknet/comiknet/source"
	"github.com/samber/lo"
	lua "github.com/yuin/gopher-lua"
)

func getString(table *lua.LTable, key string) string {
	switch val := table.RawGetString(key); val.Type() {
	case lua.LTString:
		return val.String()
	case lua.LTNumber:
		return val.String()
	default:
		return ""
	}
}

func getInt(table *lua.LTable, key string) int64 {
	switch val := table.RawGetString(key); val.Type() {
	case lua.LTNumber:
		return int64(val.(lua.LNumber))
	case lua.LTString:
		n, _ := strconv.ParseInt(strings.TrimSpace(val.String()), 10, 64)
		return n
	default:
		return 0
	}
}

// getStringList accepts a comma separated string or a sequence of strings.
func getStringList(table *lua.LTable, key string) []string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString:
		return lo.Compact(lo.Map(strings.Split(val.String(), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
	case lua.LTTable:
		var list []string
		each(val.(*lua.LTable), func(_ int, v lua.LValue) {
			if v.Type() == lua.LTString {
				list = append(list, v.String())
			}
		})
		return list
	}
	return nil
}

// each visits the sequence part of table in order.
func each(table *lua.LTable, fn func(i int, v lua.LValue)) {
	for i := 1; i <= table.Len(); i++ {
		fn(i, table.RawGetInt(i))
	}
}

func comicFromTable(table *lua.LTable, src source.ID) (*source.Comic, error) {
	comic := &source.Comic{
		ID:     getString(table, "id"),
		Name:   getString(table, "name"),
		Cover:  getString(table, "cover"),
		Source: src,
	}

	if comic.ID == "" || comic.Name == "" {
		return nil, fmt.Errorf("comic must have id and name")
	}

	comic.Authors = getStringList(table, "author")
	if comic.Authors == nil {
		comic.Authors = getStringList(table, "authors")
	}

	return comic, nil
}

func comicsFromTable(table *lua.LTable, src source.ID) ([]*source.Comic, error) {
	var (
		comics []*source.Comic
		errs   []error
	)

	each(table, func(_ int, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}

		comic, err := comicFromTable(entry, src)
		if err != nil {
			errs = append(errs, err)
			return
		}
		comics = append(comics, comic)
	})

	if len(comics) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}
	return comics, nil
}

func chapterFromTable(table *lua.LTable, index int) (*source.Chapter, error) {
	chapter := &source.Chapter{
		ID:    getString(table, "id"),
		Title: getString(table, "title"),
		Index: index,
	}

	if chapter.ID == "" {
		return nil, fmt.Errorf("chapter %d must have an id", index)
	}
	if chapter.Title == "" {
		chapter.Title = chapter.ID
	}

	return chapter, nil
}

func albumFromTable(table *lua.LTable, src source.ID) (*source.Album, error) {
	comic, err := comicFromTable(table, src)
	if err != nil {
		return nil, err
	}

	album := &source.Album{
		Comic:       *comic,
		Description: getString(table, "description"),
		Tags:        getStringList(table, "tags"),
		Views:       int(getInt(table, "views")),
		Favorites:   int(getInt(table, "favorites")),
		Comments:    int(getInt(table, "comments")),
		IsFinished:  lua.LVAsBool(table.RawGetString("finished")),
		IsFavorite:  lua.LVAsBool(table.RawGetString("favorite")),
		UpdatedAt:   getInt(table, "updated_at"),
	}

	if chapters, ok := table.RawGetString("chapters").(*lua.LTable); ok {
		var errs []error
		each(chapters, func(i int, v lua.LValue) {
			entry, ok := v.(*lua.LTable)
			if !ok {
				return
			}

			chapter, err := chapterFromTable(entry, i)
			if err != nil {
				errs = append(errs, err)
				return
			}
			album.Chapters = append(album.Chapters, chapter)
		})

		if len(errs) > 0 {
			return nil, errs[0]
		}
	}

	if extras, ok := table.RawGetString("extras").(*lua.LTable); ok {
		album.Extras = make(map[string]any)
		extras.ForEach(func(k, v lua.LValue) {
			album.Extras[k.String()] = fromValue(v)
		})
	}

	return album, nil
}

// cookiesFromTable maps string values to cookies and false to a removed cookie.
func cookiesFromTable(table *lua.LTable) map[string]*string {
	cookies := make(map[string]*string)
	table.ForEach(func(k, v lua.LValue) {
		switch v.Type() {
		case lua.LTString, lua.LTNumber:
			cookies[k.String()] = lo.ToPtr(v.String())
		case lua.LTBool:
			if !lua.LVAsBool(v) {
				cookies[k.String()] = nil
			}
		}
	})
	return cookies
}

func fromValue(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	case *lua.LTable:
		if v.Len() > 0 {
			var list []any
			each(v, func(_ int, item lua.LValue) {
				list = append(list, fromValue(item))
			})
			return list
		}
		m := make(map[string]any)
		v.ForEach(func(k, item lua.LValue) {
			m[k.String()] = fromValue(item)
		})
		return m
	default:
		return nil
	}
}

func mapToTable(L *lua.LState, m map[string]string) *lua.LTable {
	table := L.CreateTable(0, len(m))
	for k, v := range m {
		table.RawSetString(k, lua.LString(v))
	}
	return table
}

func listToTable(L *lua.LState, list []string) *lua.LTable {
	table := L.CreateTable(len(list), 0)
	for _, v := range list {
		table.Append(lua.LString(v))
	}
	return table
}
