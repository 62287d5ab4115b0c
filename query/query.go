// Package query remembers the titles searched with "yato watch" and suggests
// them back for shell completion.
package query

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/where"
	"golang.org/x/exp/slices"
)

type record struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
	ID    int    `json:"id"`
}

var cacher = gache.New[map[string]*record](&gache.Options{
	Path:       where.Queries(),
	FileSystem: &filesystem.GacheFs{},
})

func load() map[string]*record {
	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return make(map[string]*record)
	}
	return cached
}

// Remember records that q resolved to the series id, raising its rank when it
// was searched before.
func Remember(q string, id int) error {
	q = normalize(q)
	if q == "" {
		return nil
	}

	records := load()
	if r, ok := records[q]; ok {
		r.Rank++
		r.ID = id
	} else {
		records[q] = &record{Rank: 1, Query: q, ID: id}
	}

	return cacher.Set(records)
}

// Suggest returns remembered queries fuzzily matching q, most searched first.
func Suggest(q string) []string {
	q = normalize(q)

	matches := lo.Filter(lo.Values(load()), func(r *record, _ int) bool {
		return fuzzy.Match(q, r.Query)
	})

	slices.SortFunc(matches, func(a, b *record) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Query, b.Query)
	})

	return lo.Map(matches, func(r *record, _ int) string {
		return r.Query
	})
}

// Lookup returns the series id q resolved to last time.
func Lookup(q string) (int, bool) {
	r, ok := load()[normalize(q)]
	if !ok {
		return 0, false
	}
	return r.ID, true
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
