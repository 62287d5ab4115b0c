// Package anilist is a client for the AniList GraphQL API: series metadata,
// MyAnimeList id mapping, sequels and the viewer's list.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/network"
)

// DefaultURL is the public GraphQL endpoint.
const DefaultURL = "https://graphql.anilist.co"

// ErrUnauthenticated is returned by calls that need a token when none is stored.
var ErrUnauthenticated = errors.New("anilist: not authenticated, run `yato anilist auth`")

// DataError reports a response that lacks a field the caller needs.
type DataError struct {
	ID    int
	Field string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("anilist: media %d has no %s", e.ID, e.Field)
}

// Client talks to AniList.
type Client struct {
	// URL defaults to DefaultURL.
	URL  string
	HTTP *http.Client
	// Token returns the OAuth token for authenticated calls.
	Token func() (string, error)
	// ShowAdult includes adult entries in search results.
	ShowAdult bool
}

// New returns a client on the shared HTTP client using the keyring token.
func New() *Client {
	return &Client{
		URL:   DefaultURL,
		HTTP:  network.Client,
		Token: GetToken,
	}
}

type graphqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, authenticated bool, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lo.Ternary(c.URL == "", DefaultURL, c.URL), bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if authenticated {
		if c.Token == nil {
			return ErrUnauthenticated
		}
		token, err := c.Token()
		if err != nil || token == "" {
			return ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("anilist request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if len(env.Errors) > 0 {
		messages := lo.Map(env.Errors, func(e graphqlError, _ int) string { return e.Message })
		return fmt.Errorf("anilist: %s", strings.Join(messages, "; "))
	}

	if resp.StatusCode != http.StatusOK {
		log.Errorf("anilist returned status %d", resp.StatusCode)
		return fmt.Errorf("anilist returned status %d", resp.StatusCode)
	}

	if decodeErr != nil {
		return fmt.Errorf("decode anilist response: %w", decodeErr)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
