package anilist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/yato-cli/yato/log"
)

// ErrNoResults is returned when a search finds nothing.
var ErrNoResults = errors.New("no results found on AniList")

var searchQuery = `
query ($query: String, $isAdult: Boolean) {
	Page (page: 1, perPage: 30) {
		media (search: $query, type: ANIME, isAdult: $isAdult) {` + mediaFields + `}
	}
}`

// Search returns anime whose titles match name.
func (c *Client) Search(ctx context.Context, name string) ([]*Media, error) {
	name = normalizedName(name)

	if _, failed := failCacher.Get(name).Get(); failed {
		return nil, fmt.Errorf("search for %q failed recently", name)
	}

	if ids, ok := searchCacher.Get(name).Get(); ok {
		medias := lo.FilterMap(ids, func(id, _ int) (*Media, bool) {
			return mediaCacher.Get(id).Get()
		})
		if len(medias) == len(ids) {
			return medias, nil
		}
		_ = searchCacher.Delete(name)
	}

	log.Infof("anilist: searching for %q", name)

	variables := map[string]any{"query": name}
	if !c.ShowAdult {
		variables["isAdult"] = false
	}

	var data struct {
		Page struct {
			Media []*Media `json:"media"`
		} `json:"Page"`
	}
	if err := c.do(ctx, searchQuery, variables, false, &data); err != nil {
		_ = failCacher.Set(name, true)
		return nil, err
	}

	medias := data.Page.Media
	ids := lo.Map(medias, func(m *Media, _ int) int {
		_ = mediaCacher.Set(m.ID, m)
		return m.ID
	})
	_ = searchCacher.Set(name, ids)

	log.Infof("anilist: %d results for %q", len(medias), name)
	return medias, nil
}

// FindClosest searches for name and returns the best match. Titles that
// fuzzy-match the query rank before those that do not; ties are broken by
// edit distance. When nothing is found the trailing word is dropped and the
// search repeated, up to three times.
func (c *Client) FindClosest(ctx context.Context, name string) (*Media, error) {
	query := normalizedName(name)

	for try := 0; try < 3; try++ {
		medias, err := c.Search(ctx, query)
		if err != nil {
			return nil, err
		}

		if len(medias) > 0 {
			closest := Closest(query, medias)
			log.Infof("anilist: closest match for %q is %q", name, closest.Name())
			return closest, nil
		}

		words := strings.Fields(query)
		if len(words) <= 1 {
			break
		}
		query = strings.Join(words[:len(words)-1], " ")
		log.Infof("anilist: no results for %q, trying %q", name, query)
	}

	return nil, fmt.Errorf("%w: %s", ErrNoResults, name)
}

// Closest ranks medias against query. medias must not be empty.
func Closest(query string, medias []*Media) *Media {
	query = normalizedName(query)

	score := func(m *Media) (bool, int) {
		title := normalizedName(m.Name())
		romaji := normalizedName(m.Title.Romaji)
		fuzzyHit := fuzzy.MatchNormalized(query, title) || fuzzy.MatchNormalized(query, romaji)
		distance := min(levenshtein.Distance(query, title), levenshtein.Distance(query, romaji))
		return fuzzyHit, distance
	}

	return lo.MinBy(medias, func(a, b *Media) bool {
		aHit, aDist := score(a)
		bHit, bDist := score(b)
		if aHit != bHit {
			return aHit
		}
		return aDist < bDist
	})
}
