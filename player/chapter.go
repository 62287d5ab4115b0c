package player

import (
	"context"
	"strings"
)

// Chapter is one entry of mpv's chapter-list property.
type Chapter struct {
	Title string  `json:"title"`
	Time  float64 `json:"time"`
}

// SetChapters replaces the chapter list shown on the player's timeline.
func (c *Client) SetChapters(ctx context.Context, chapters []Chapter) error {
	return c.SetProperty(ctx, "chapter-list", chapters)
}

// SetTitle sets both the window title and the media title shown in the OSD.
func (c *Client) SetTitle(ctx context.Context, title string) error {
	title = sanitizeTitle(title)
	if err := c.SetProperty(ctx, "title", title); err != nil {
		return err
	}
	return c.SetProperty(ctx, "force-media-title", title)
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
