package anilist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/yato-cli/yato/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
	Auth      string         `json:"-"`
}

type fakeAnilist struct {
	mu       sync.Mutex
	requests []graphqlRequest
	respond  func(req graphqlRequest) string
}

func (f *fakeAnilist) serve() (*httptest.Server, *Client) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req graphqlRequest
		_ = json.Unmarshal(body, &req)
		req.Auth = r.Header.Get("Authorization")

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		_, _ = w.Write([]byte(f.respond(req)))
	}))

	client := &Client{
		URL:   srv.URL,
		HTTP:  srv.Client(),
		Token: func() (string, error) { return "secret", nil },
	}
	return srv, client
}

func (f *fakeAnilist) last() graphqlRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeAnilist) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestMedia(t *testing.T) {
	ctx := context.Background()

	Convey("Given AniList knows media 9001", t, func() {
		fake := &fakeAnilist{respond: func(req graphqlRequest) string {
			switch req.Variables["id"] {
			case float64(9001):
				return `{"data":{"Media":{"id":9001,"idMal":52991,"title":{"romaji":"Sousou no Frieren","english":"Frieren: Beyond Journey's End"},"episodes":28,"coverImage":{"large":"https://img/large.png"}}}}`
			case float64(9002):
				return `{"data":{"Media":{"id":9002,"idMal":null,"title":{"romaji":"Obscure"},"episodes":1}}}`
			default:
				return `{"data":{"Media":null},"errors":[{"message":"Not Found.","status":404}]}`
			}
		}}
		srv, client := fake.serve()
		defer srv.Close()

		Convey("Then the media is returned and cached", func() {
			media, err := client.Media(ctx, 9001)
			So(err, ShouldBeNil)
			So(media.Name(), ShouldEqual, "Frieren: Beyond Journey's End")
			So(media.Episodes, ShouldEqual, 28)

			before := fake.count()
			again, err := client.Media(ctx, 9001)
			So(err, ShouldBeNil)
			So(again.ID, ShouldEqual, 9001)
			So(fake.count(), ShouldEqual, before)
		})

		Convey("Then the MyAnimeList id is mapped", func() {
			malID, err := client.MalID(ctx, 9001)
			So(err, ShouldBeNil)
			So(malID, ShouldEqual, 52991)
		})

		Convey("Then a missing MyAnimeList id is a DataError", func() {
			_, err := client.MalID(ctx, 9002)
			var dataErr *DataError
			So(errors.As(err, &dataErr), ShouldBeTrue)
			So(dataErr.Field, ShouldEqual, "idMal")
		})

		Convey("Then GraphQL errors surface", func() {
			_, err := client.Media(ctx, 404)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Not Found.")
		})
	})
}

func TestSequel(t *testing.T) {
	ctx := context.Background()

	Convey("Given a series with a sequel and one without", t, func() {
		fake := &fakeAnilist{respond: func(req graphqlRequest) string {
			if req.Variables["id"] == float64(8001) {
				return `{"data":{"Media":{"relations":{"edges":[
					{"relationType":"PREQUEL","node":{"id":7999,"title":{"romaji":"Before"},"type":"ANIME"}},
					{"relationType":"SEQUEL","node":{"id":8002,"idMal":600,"title":{"romaji":"After"},"episodes":12,"type":"ANIME"}}
				]}}}}`
			}
			return `{"data":{"Media":{"relations":{"edges":[
				{"relationType":"SEQUEL","node":{"id":1,"title":{"romaji":"Manga"},"type":"MANGA"}}
			]}}}}`
		}}
		srv, client := fake.serve()
		defer srv.Close()

		Convey("Then the sequel is found", func() {
			sequel, err := client.Sequel(ctx, 8001)
			So(err, ShouldBeNil)
			So(sequel.IsPresent(), ShouldBeTrue)
			So(sequel.MustGet().ID, ShouldEqual, 8002)
			So(sequel.MustGet().Episodes, ShouldEqual, 12)
		})

		Convey("Then a non-anime sequel does not count", func() {
			sequel, err := client.Sequel(ctx, 8100)
			So(err, ShouldBeNil)
			So(sequel.IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestFindClosest(t *testing.T) {
	ctx := context.Background()

	Convey("Given a search that only matches a shorter query", t, func() {
		fake := &fakeAnilist{respond: func(req graphqlRequest) string {
			if req.Variables["query"] == "cowboy bebop" {
				return `{"data":{"Page":{"media":[
					{"id":5,"title":{"romaji":"Cowboy Bebop: Tengoku no Tobira","english":"Cowboy Bebop: The Movie"}},
					{"id":1,"title":{"romaji":"Cowboy Bebop","english":"Cowboy Bebop"}}
				]}}}`
			}
			return `{"data":{"Page":{"media":[]}}}`
		}}
		srv, client := fake.serve()
		defer srv.Close()

		Convey("When searching with a trailing extra word", func() {
			media, err := client.FindClosest(ctx, "Cowboy Bebop remastered")

			Convey("Then the word is dropped and the closest title wins", func() {
				So(err, ShouldBeNil)
				So(media.ID, ShouldEqual, 1)
				So(fake.last().Variables["isAdult"], ShouldEqual, false)
			})
		})

		Convey("When nothing ever matches", func() {
			_, err := client.FindClosest(ctx, "zzzz")

			Convey("Then ErrNoResults is returned", func() {
				So(errors.Is(err, ErrNoResults), ShouldBeTrue)
			})
		})
	})
}

func TestMutations(t *testing.T) {
	ctx := context.Background()

	Convey("Given an authenticated client", t, func() {
		fake := &fakeAnilist{respond: func(graphqlRequest) string {
			return `{"data":{"SaveMediaListEntry":{"id":1}}}`
		}}
		srv, client := fake.serve()
		defer srv.Close()

		Convey("Then progress is saved with the bearer token", func() {
			So(client.UpdateProgress(ctx, 21, 3), ShouldBeNil)
			req := fake.last()
			So(strings.Contains(req.Query, "SaveMediaListEntry"), ShouldBeTrue)
			So(req.Variables["progress"], ShouldEqual, float64(3))
			So(req.Auth, ShouldEqual, "Bearer secret")
		})

		Convey("Then status and score are saved", func() {
			So(client.UpdateStatus(ctx, 21, MediaListStatusCurrent), ShouldBeNil)
			So(fake.last().Variables["status"], ShouldEqual, "CURRENT")

			So(client.UpdateScore(ctx, 21, 8.5), ShouldBeNil)
			So(fake.last().Variables["score"], ShouldEqual, 8.5)
		})

		Convey("Then an out of range score is refused locally", func() {
			before := fake.count()
			So(client.UpdateScore(ctx, 21, 11), ShouldNotBeNil)
			So(fake.count(), ShouldEqual, before)
		})

		Convey("Then a missing token is ErrUnauthenticated", func() {
			client.Token = func() (string, error) { return "", errors.New("no keyring") }
			So(errors.Is(client.UpdateProgress(ctx, 21, 3), ErrUnauthenticated), ShouldBeTrue)
		})
	})
}

func TestWatching(t *testing.T) {
	ctx := context.Background()

	Convey("Given a viewer with two lists", t, func() {
		fake := &fakeAnilist{respond: func(req graphqlRequest) string {
			if strings.Contains(req.Query, "Viewer") {
				return `{"data":{"Viewer":{"id":77,"name":"someone"}}}`
			}
			return `{"data":{"MediaListCollection":{"lists":[
				{"entries":[{"progress":2,"status":"CURRENT","media":{"id":31,"title":{"romaji":"A"},"episodes":12}}]},
				{"entries":[{"progress":0,"status":"REPEATING","media":{"id":32,"title":{"romaji":"B"},"episodes":24}}]}
			]}}}`
		}}
		srv, client := fake.serve()
		defer srv.Close()

		Convey("Then the entries of both are returned", func() {
			entries, err := client.Watching(ctx)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Progress, ShouldEqual, 2)
			So(entries[1].Status, ShouldEqual, MediaListStatusRepeating)
			So(fake.last().Variables["userId"], ShouldEqual, float64(77))
		})
	})
}
