// Package query remembers search queries and offers them back as suggestions.
package query

import (
	"strings"
	"sync"
	"time"

	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/where"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type record struct {
	Query    string    `json:"query"`
	Rank     int       `json:"rank"`
	LastUsed time.Time `json:"last_used"`
}

type history = map[string]*record

var mu sync.Mutex

func cacher() *gache.Cache[history] {
	return gache.New[history](&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	})
}

func load(c *gache.Cache[history]) history {
	data, expired, err := c.Get()
	if err != nil || expired || data == nil {
		return make(history)
	}
	return data
}

// Remember records q, raising its rank when it was searched before.
// Empty queries and disabled history are ignored.
func Remember(q string) error {
	q = normalize(q)
	if q == "" || !viper.GetBool(key.SearchRememberQueries) {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	c := cacher()
	data := load(c)

	rec, ok := data[q]
	if !ok {
		rec = &record{Query: q}
		data[q] = rec
	}
	rec.Rank++
	rec.LastUsed = time.Now()

	return c.Set(data)
}

// Suggest returns remembered queries matching the prefix q, most used first.
// An empty q matches every remembered query.
func Suggest(q string, limit int) []string {
	q = normalize(q)

	mu.Lock()
	data := load(cacher())
	mu.Unlock()

	records := lo.Filter(lo.Values(data), func(r *record, _ int) bool {
		return q == "" || fuzzy.Match(q, r.Query)
	})

	slices.SortFunc(records, func(a, b *record) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return b.LastUsed.Compare(a.LastUsed)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return lo.Map(records, func(r *record, _ int) string { return r.Query })
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
