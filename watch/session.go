// Package watch runs a viewing session: it keeps one mpv instance playing
// consecutive episodes of a series, skipping windows, prefetching links and
// saving progress along the way.
package watch

import (
	"fmt"

	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/config"
)

// Session is the state of one viewing session. Only the orchestrator mutates it.
type Session struct {
	SeriesID int
	MalID    int
	// Episode is the last completed episode. Episode+1 is the one that plays.
	Episode int
	// MaxEpisodes is 0 while the total is unknown.
	MaxEpisodes int
	Title       string
	Cover       string

	Language string
	Quality  string
	Track    string

	// Syncing sessions come from the AniList list and save progress.
	Syncing bool
}

// NewSession starts after completed episodes of media.
func NewSession(media *anilist.Media, completed int, cfg config.Config, syncing bool) Session {
	return Session{
		SeriesID:    media.ID,
		MalID:       media.IDMal,
		Episode:     completed,
		MaxEpisodes: media.Episodes,
		Title:       media.Name(),
		Cover:       media.CoverImage.Large,
		Language:    cfg.Provider.Language,
		Quality:     cfg.Provider.Quality,
		Track:       cfg.Provider.Track,
		Syncing:     syncing,
	}
}

// Validate rejects sessions that cannot start.
func (s Session) Validate() error {
	switch {
	case s.SeriesID <= 0:
		return fmt.Errorf("invalid series id %d", s.SeriesID)
	case s.Episode < 0:
		return fmt.Errorf("invalid episode %d", s.Episode)
	case s.MaxEpisodes > 0 && s.Episode >= s.MaxEpisodes:
		return fmt.Errorf("all %d episodes of %s are already watched", s.MaxEpisodes, s.Title)
	}
	return nil
}

func (s Session) playing() int {
	return s.Episode + 1
}

// last reports whether episode is the final one of the series.
func (s Session) last(episode int) bool {
	return s.MaxEpisodes > 0 && episode >= s.MaxEpisodes
}

func (s Session) episodeTitle(episode int) string {
	return fmt.Sprintf("%s - Episode %d", s.Title, episode)
}
