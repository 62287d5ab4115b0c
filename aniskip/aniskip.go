// Package aniskip fetches opening, ending and recap windows from the AniSkip v2 API.
package aniskip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"

	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/network"
	"github.com/yato-cli/yato/player"
)

// BaseURL is the skip-times endpoint. Tests point it at a local server.
var BaseURL = "https://api.aniskip.com/v2/skip-times"

// ErrNotFound is returned when AniSkip has no windows for the episode.
var ErrNotFound = errors.New("no skip times found")

// ParseError reports a response body that is not the expected JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse aniskip response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Interval is a [Start, End] range in seconds. The zero value means none reported.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether t lies inside the closed interval.
func (i Interval) Contains(t float64) bool {
	return i.Start <= t && t <= i.End
}

// Windows holds the skip windows of one episode.
type Windows struct {
	Opening Interval `json:"opening"`
	Ending  Interval `json:"ending"`
	Recap   Interval `json:"recap"`
}

type response struct {
	Found   bool `json:"found"`
	Results []struct {
		SkipType string `json:"skipType"`
		Interval struct {
			StartTime float64 `json:"startTime"`
			EndTime   float64 `json:"endTime"`
		} `json:"interval"`
	} `json:"results"`
}

// Fetch retrieves the windows of an episode, rounding every bound to precision digits.
func Fetch(ctx context.Context, malID, episode, precision int) (Windows, error) {
	query := url.Values{}
	query.Add("types", "op")
	query.Add("types", "ed")
	query.Add("types", "recap")
	query.Set("episodeLength", "0")

	endpoint := fmt.Sprintf("%s/%d/%d?%s", BaseURL, malID, episode, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Windows{}, err
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return Windows{}, fmt.Errorf("aniskip request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Windows{}, fmt.Errorf("aniskip returned status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Windows{}, fmt.Errorf("read aniskip response: %w", err)
	}

	return parse(body, precision)
}

func parse(body []byte, precision int) (Windows, error) {
	if len(body) == 0 {
		return Windows{}, &ParseError{Err: errors.New("empty body")}
	}

	var data response
	if err := json.Unmarshal(body, &data); err != nil {
		return Windows{}, &ParseError{Err: err}
	}

	if !data.Found || len(data.Results) == 0 {
		return Windows{}, ErrNotFound
	}

	var windows Windows
	for _, result := range data.Results {
		interval := Interval{
			Start: Round(result.Interval.StartTime, precision),
			End:   Round(result.Interval.EndTime, precision),
		}

		switch result.SkipType {
		case "op":
			windows.Opening = interval
		case "ed":
			windows.Ending = interval
		case "recap":
			windows.Recap = interval
		default:
			log.Debugf("aniskip: ignoring skip type %q", result.SkipType)
		}
	}

	log.Debugf("aniskip: windows %+v", windows)
	return windows, nil
}

// Round rounds v half-up to precision decimal digits.
func Round(v float64, precision int) float64 {
	multiplier := math.Pow(10, float64(precision))
	return math.Floor(v*multiplier+0.5) / multiplier
}

// Chapters lays the windows out as a player chapter list. Categories that were
// not reported stay at zero, so their markers collapse onto the title card.
func (w Windows) Chapters() []player.Chapter {
	return []player.Chapter{
		{Title: "Title card", Time: 0},
		{Title: "Recap", Time: w.Recap.Start},
		{Title: "Pre-Opening", Time: w.Recap.End},
		{Title: "Opening", Time: w.Opening.Start},
		{Title: "Main", Time: w.Opening.End},
		{Title: "Credits", Time: w.Ending.Start},
		{Title: "Post-Credits", Time: w.Ending.End},
	}
}
