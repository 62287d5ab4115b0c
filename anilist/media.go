package anilist

import (
	"context"

	"github.com/yato-cli/yato/log"
)

// Media is the subset of an AniList anime entry yato works with.
type Media struct {
	ID    int `json:"id" jsonschema:"description=ID of the anime on AniList."`
	IDMal int `json:"idMal" jsonschema:"description=ID of the anime on MyAnimeList."`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	// Episodes is 0 while the total is unknown.
	Episodes   int `json:"episodes"`
	CoverImage struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"coverImage"`
	Status string `json:"status"`
}

// Name prefers the English title and falls back to romaji.
func (m *Media) Name() string {
	if m.Title.English == "" {
		return m.Title.Romaji
	}
	return m.Title.English
}

const mediaFields = `
id
idMal
title {
	romaji
	english
}
episodes
coverImage {
	large
	medium
}
status
`

var mediaQuery = `
query ($id: Int) {
	Media (id: $id, type: ANIME) {` + mediaFields + `}
}`

// Media fetches an anime by AniList id.
func (c *Client) Media(ctx context.Context, id int) (*Media, error) {
	if media, ok := mediaCacher.Get(id).Get(); ok {
		return media, nil
	}

	log.Infof("anilist: fetching media %d", id)

	var data struct {
		Media *Media `json:"Media"`
	}
	if err := c.do(ctx, mediaQuery, map[string]any{"id": id}, false, &data); err != nil {
		return nil, err
	}

	if data.Media == nil {
		return nil, &DataError{ID: id, Field: "media"}
	}
	if data.Media.Name() == "" {
		return nil, &DataError{ID: id, Field: "title"}
	}

	_ = mediaCacher.Set(id, data.Media)
	return data.Media, nil
}

// MalID maps an AniList id to its MyAnimeList id.
func (c *Client) MalID(ctx context.Context, id int) (int, error) {
	media, err := c.Media(ctx, id)
	if err != nil {
		return 0, err
	}
	if media.IDMal == 0 {
		return 0, &DataError{ID: id, Field: "idMal"}
	}
	return media.IDMal, nil
}
