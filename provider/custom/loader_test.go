package custom

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/provider"
	"github.com/yato-cli/yato/where"
)

func init() {
	filesystem.SetMemMapFs()
}

const script = `
function ResolveEpisode(req)
	local base = "https://cdn.example.com/" .. req.mal_id .. "/" .. req.track .. "/" .. req.episode
	return {
		{ url = base .. "-480.m3u8", quality = "480p" },
		{ url = base .. "-1080.m3u8", quality = "1080p" },
		{ url = base .. "-720.m3u8", quality = "720p" },
	}
end
`

func writeScript(name, content string) string {
	path := filepath.Join(where.Providers(), name)
	if err := filesystem.WriteAtomic(path, []byte(content)); err != nil {
		panic(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given a provider script", t, func() {
		p, err := Load(writeScript("english.lua", script))
		So(err, ShouldBeNil)
		defer p.Close()

		Convey("Then it is named after its file", func() {
			So(p.Name(), ShouldEqual, "english")
		})

		Convey("When the best quality is resolved", func() {
			url, err := p.Resolve(ctx, provider.Request{MalID: 52991, Episode: 4, Track: "sub", Quality: "best"})

			Convey("Then the highest quality link is returned", func() {
				So(err, ShouldBeNil)
				So(url, ShouldEqual, "https://cdn.example.com/52991/sub/4-1080.m3u8")
			})
		})

		Convey("When an exact quality is resolved", func() {
			url, err := p.Resolve(ctx, provider.Request{MalID: 1, Episode: 1, Track: "dub", Quality: "720p"})

			Convey("Then that link is returned", func() {
				So(err, ShouldBeNil)
				So(url, ShouldEqual, "https://cdn.example.com/1/dub/1-720.m3u8")
			})
		})
	})

	Convey("Given a script without ResolveEpisode", t, func() {
		_, err := Load(writeScript("broken.lua", `function Other() end`))

		Convey("Then loading fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "ResolveEpisode")
		})
	})

	Convey("Given a script with a syntax error", t, func() {
		_, err := Load(writeScript("syntax.lua", `function ResolveEpisode(`))

		Convey("Then loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a script that raises", t, func() {
		p, err := Load(writeScript("raises.lua", `function ResolveEpisode(req) error("site is down") end`))
		So(err, ShouldBeNil)
		defer p.Close()

		Convey("Then Resolve returns the Lua error", func() {
			_, err := p.Resolve(ctx, provider.Request{Episode: 1})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "site is down")
		})
	})
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	Convey("Given scripts in the providers directory", t, func() {
		writeScript("hungarian.lua", script)
		registry := provider.NewRegistry()

		languages, err := Discover(registry)
		So(err, ShouldBeNil)

		Convey("Then each is registered under its language", func() {
			So(languages, ShouldContain, "hungarian")
			So(registry.Languages(), ShouldContain, "hungarian")
		})

		Convey("Then requests dispatch by language", func() {
			url, err := registry.Resolve(ctx, provider.Request{Language: "Hungarian", MalID: 5, Episode: 2, Track: "sub", Quality: "480p"})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "https://cdn.example.com/5/sub/2-480.m3u8")
		})

		Convey("Then an unknown language is a ResolutionError", func() {
			_, err := registry.Resolve(ctx, provider.Request{Language: "klingon"})
			var resolutionErr *provider.ResolutionError
			So(errors.As(err, &resolutionErr), ShouldBeTrue)
			So(errors.Is(err, provider.ErrLanguageNotSupported), ShouldBeTrue)
		})
	})
}
