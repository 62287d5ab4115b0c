package anilist

import (
	"context"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

var relationsQuery = `
query ($id: Int) {
	Media (id: $id, type: ANIME) {
		relations {
			edges {
				relationType
				node {` + mediaFields + `
					type
				}
			}
		}
	}
}`

type relationEdge struct {
	RelationType string `json:"relationType"`
	Node         struct {
		Media
		Type string `json:"type"`
	} `json:"node"`
}

// Sequel returns the anime that directly follows id, if AniList knows one.
func (c *Client) Sequel(ctx context.Context, id int) (mo.Option[Media], error) {
	if sequelID, ok := relationCacher.Get(id).Get(); ok {
		if sequelID == 0 {
			return mo.None[Media](), nil
		}
		if media, err := c.Media(ctx, sequelID); err == nil {
			return mo.Some(*media), nil
		}
	}

	var data struct {
		Media *struct {
			Relations struct {
				Edges []relationEdge `json:"edges"`
			} `json:"relations"`
		} `json:"Media"`
	}
	if err := c.do(ctx, relationsQuery, map[string]any{"id": id}, false, &data); err != nil {
		return mo.None[Media](), err
	}
	if data.Media == nil {
		return mo.None[Media](), &DataError{ID: id, Field: "relations"}
	}

	edge, found := lo.Find(data.Media.Relations.Edges, func(e relationEdge) bool {
		return e.RelationType == "SEQUEL" && e.Node.Type == "ANIME" && e.Node.ID != 0
	})
	if !found {
		_ = relationCacher.Set(id, 0)
		return mo.None[Media](), nil
	}

	sequel := edge.Node.Media
	if sequel.Name() == "" {
		return mo.None[Media](), &DataError{ID: sequel.ID, Field: "title"}
	}

	_ = relationCacher.Set(id, sequel.ID)
	_ = mediaCacher.Set(sequel.ID, &sequel)
	return mo.Some(sequel), nil
}
