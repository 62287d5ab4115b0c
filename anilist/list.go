package anilist

import (
	"context"

	"github.com/samber/lo"
)

// Entry is one anime on the viewer's list.
type Entry struct {
	Media    Media           `json:"media"`
	Progress int             `json:"progress"`
	Status   MediaListStatus `json:"status"`
}

var viewerQuery = `
query {
	Viewer {
		id
		name
	}
}`

var watchingQuery = `
query ($userId: Int) {
	MediaListCollection (userId: $userId, type: ANIME, status_in: [CURRENT, REPEATING]) {
		lists {
			entries {
				progress
				status
				media {` + mediaFields + `}
			}
		}
	}
}`

type mediaList struct {
	Entries []Entry `json:"entries"`
}

// Viewer is the authenticated user.
type Viewer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Viewer returns the user the stored token belongs to.
func (c *Client) Viewer(ctx context.Context) (Viewer, error) {
	var data struct {
		Viewer Viewer `json:"Viewer"`
	}
	err := c.do(ctx, viewerQuery, nil, true, &data)
	return data.Viewer, err
}

// Watching lists the viewer's current and rewatching entries.
func (c *Client) Watching(ctx context.Context) ([]Entry, error) {
	viewer, err := c.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	var data struct {
		MediaListCollection struct {
			Lists []mediaList `json:"lists"`
		} `json:"MediaListCollection"`
	}
	if err := c.do(ctx, watchingQuery, map[string]any{"userId": viewer.ID}, true, &data); err != nil {
		return nil, err
	}

	entries := lo.FlatMap(data.MediaListCollection.Lists, func(list mediaList, _ int) []Entry {
		return list.Entries
	})

	for _, entry := range entries {
		media := entry.Media
		_ = mediaCacher.Set(media.ID, &media)
	}

	return entries, nil
}
