package aniskip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func serve(status int, body string) (*httptest.Server, *http.Request) {
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	BaseURL = srv.URL + "/v2/skip-times"
	return srv, &seen
}

func TestFetch(t *testing.T) {
	defer func(original string) { BaseURL = original }(BaseURL)
	ctx := context.Background()

	Convey("Given AniSkip reports an opening, an ending and a recap", t, func() {
		srv, seen := serve(http.StatusOK, `{
			"found": true,
			"results": [
				{"skipType": "op", "interval": {"startTime": 89.4567, "endTime": 179.001}},
				{"skipType": "ed", "interval": {"startTime": 1320.5, "endTime": 1410.25}},
				{"skipType": "recap", "interval": {"startTime": 0, "endTime": 30.125}},
				{"skipType": "mixed-op", "interval": {"startTime": 1, "endTime": 2}}
			]
		}`)
		defer srv.Close()

		Convey("When the windows are fetched", func() {
			windows, err := Fetch(ctx, 52991, 3, 2)

			Convey("Then every window is filled and rounded", func() {
				So(err, ShouldBeNil)
				So(windows.Opening, ShouldResemble, Interval{Start: 89.46, End: 179})
				So(windows.Ending, ShouldResemble, Interval{Start: 1320.5, End: 1410.25})
				So(windows.Recap, ShouldResemble, Interval{Start: 0, End: 30.13})
			})

			Convey("Then the v2 query is used", func() {
				So(seen.URL.Path, ShouldEqual, "/v2/skip-times/52991/3")
				So(seen.URL.Query()["types"], ShouldResemble, []string{"op", "ed", "recap"})
				So(seen.URL.Query().Get("episodeLength"), ShouldEqual, "0")
			})
		})
	})

	Convey("Given AniSkip has nothing for the episode", t, func() {
		srv, _ := serve(http.StatusOK, `{"found": false, "results": []}`)
		defer srv.Close()

		Convey("Then ErrNotFound is returned", func() {
			_, err := Fetch(ctx, 1, 1, 2)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given AniSkip answers with broken JSON", t, func() {
		srv, _ := serve(http.StatusOK, `{"found": tru`)
		defer srv.Close()

		Convey("Then a ParseError is returned", func() {
			_, err := Fetch(ctx, 1, 1, 2)
			var parseErr *ParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
		})
	})

	Convey("Given AniSkip fails", t, func() {
		srv, _ := serve(http.StatusInternalServerError, `oops`)
		defer srv.Close()

		Convey("Then the status is reported", func() {
			_, err := Fetch(ctx, 1, 1, 2)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "500")
			So(errors.Is(err, ErrNotFound), ShouldBeFalse)
		})
	})
}

func TestRound(t *testing.T) {
	Convey("Round is half-up at the given precision", t, func() {
		So(Round(12.3456, 2), ShouldEqual, 12.35)
		So(Round(12.344, 2), ShouldEqual, 12.34)
		So(Round(89.5, 0), ShouldEqual, 90)
		So(Round(7, 3), ShouldEqual, 7)
	})
}

func TestChapters(t *testing.T) {
	Convey("Given windows for every category", t, func() {
		windows := Windows{
			Recap:   Interval{Start: 0, End: 30},
			Opening: Interval{Start: 90, End: 180},
			Ending:  Interval{Start: 1320, End: 1410},
		}

		Convey("Then the chapter markers follow the episode's structure", func() {
			chapters := windows.Chapters()
			So(len(chapters), ShouldEqual, 7)
			So(chapters[0].Title, ShouldEqual, "Title card")
			So(chapters[3].Title, ShouldEqual, "Opening")
			So(chapters[3].Time, ShouldEqual, 90)
			So(chapters[4].Title, ShouldEqual, "Main")
			So(chapters[4].Time, ShouldEqual, 180)
			So(chapters[6].Time, ShouldEqual, 1410)
		})
	})

	Convey("Interval bounds are inclusive", t, func() {
		i := Interval{Start: 10, End: 20}
		So(i.Contains(10), ShouldBeTrue)
		So(i.Contains(20), ShouldBeTrue)
		So(i.Contains(20.01), ShouldBeFalse)
	})
}
