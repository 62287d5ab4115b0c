package anilist

import (
	"context"
	"fmt"

	"github.com/yato-cli/yato/log"
)

// MediaListStatus is the state of an anime on the viewer's list.
type MediaListStatus string

const (
	MediaListStatusCurrent   MediaListStatus = "CURRENT"
	MediaListStatusPlanning  MediaListStatus = "PLANNING"
	MediaListStatusCompleted MediaListStatus = "COMPLETED"
	MediaListStatusDropped   MediaListStatus = "DROPPED"
	MediaListStatusPaused    MediaListStatus = "PAUSED"
	MediaListStatusRepeating MediaListStatus = "REPEATING"
)

var saveEntryMutation = `
mutation ($mediaId: Int, $progress: Int, $status: MediaListStatus, $score: Float) {
	SaveMediaListEntry (mediaId: $mediaId, progress: $progress, status: $status, score: $score) {
		id
		progress
		status
		score
	}
}`

func (c *Client) saveEntry(ctx context.Context, variables map[string]any) error {
	log.Infof("anilist: saving list entry %v", variables)
	if err := c.do(ctx, saveEntryMutation, variables, true, nil); err != nil {
		log.Errorf("anilist: save list entry: %v", err)
		return err
	}
	return nil
}

// UpdateProgress sets the number of watched episodes.
func (c *Client) UpdateProgress(ctx context.Context, id, progress int) error {
	return c.saveEntry(ctx, map[string]any{"mediaId": id, "progress": progress})
}

// UpdateStatus moves the anime to status.
func (c *Client) UpdateStatus(ctx context.Context, id int, status MediaListStatus) error {
	return c.saveEntry(ctx, map[string]any{"mediaId": id, "status": status})
}

// UpdateScore rates the anime on a 1 to 10 scale.
func (c *Client) UpdateScore(ctx context.Context, id int, score float64) error {
	if score < 1 || score > 10 {
		return fmt.Errorf("score %v is outside 1..10", score)
	}
	return c.saveEntry(ctx, map[string]any{"mediaId": id, "score": score})
}
