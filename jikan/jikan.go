// Package jikan classifies episodes as filler through the Jikan (MyAnimeList) API.
package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/network"
)

// BaseURL is the Jikan v4 root.
var BaseURL = "https://api.jikan.moe/v4"

type episodeResponse struct {
	Data struct {
		MalID  int    `json:"mal_id"`
		Title  string `json:"title"`
		Filler bool   `json:"filler"`
		Recap  bool   `json:"recap"`
	} `json:"data"`
}

// errRateLimited marks a 429, the only answer worth retrying.
var errRateLimited = errors.New("jikan rate limit hit")

// Classifier answers IsFiller for MyAnimeList ids.
type Classifier struct {
	Client *http.Client
	// Attempts made while Jikan answers 429. Zero means one.
	Attempts uint
	// Delay between rate limited attempts.
	Delay time.Duration
}

// New returns a classifier on the shared client. Jikan allows three requests
// a second, so rate limited lookups wait and try again.
func New() *Classifier {
	return &Classifier{Client: network.Client, Attempts: 3, Delay: 400 * time.Millisecond}
}

// IsFiller reports whether episode of the series malID is marked as filler.
func (c *Classifier) IsFiller(ctx context.Context, malID, episode int) (bool, error) {
	var filler bool
	err := retry.Do(
		func() error {
			var err error
			filler, err = c.fetch(ctx, malID, episode)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(max(c.Attempts, 1)),
		retry.Delay(c.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errRateLimited) }),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debugf("jikan: episode %d rate limited, attempt %d", episode, n+1)
		}),
	)
	return filler, err
}

func (c *Classifier) fetch(ctx context.Context, malID, episode int) (bool, error) {
	endpoint := fmt.Sprintf("%s/anime/%d/episodes/%d", BaseURL, malID, episode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("jikan request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return false, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("jikan returned status %s for episode %d", resp.Status, episode)
	}

	var data episodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false, fmt.Errorf("decode jikan response: %w", err)
	}

	return data.Data.Filler, nil
}
