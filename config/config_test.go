package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given a fresh configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Then every registered default is visible through viper", func() {
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
		})

		Convey("Then keys map to prefixed env vars", func() {
			field := Default[key.PlayerCompletionPercentage]
			So(field.Env(), ShouldEqual, "YATO_PLAYER_COMPLETION_PERCENTAGE")
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		viper.Reset()
		So(Setup(), ShouldBeNil)
		Reset(viper.Reset)

		snap := Snapshot()

		Convey("Then it carries the documented defaults", func() {
			So(snap.Player.Program, ShouldEqual, "mpv")
			So(snap.Player.Args, ShouldBeEmpty)
			So(snap.Player.CompletionPercent, ShouldEqual, 85)
			So(snap.Player.PrefetchPercent, ShouldEqual, 70)
			So(snap.Player.Tick, ShouldEqual, 250*time.Millisecond)
			So(snap.Player.SkipCooldown, ShouldEqual, time.Second)
			So(snap.Skip.Opening && snap.Skip.Credits && snap.Skip.Recap && snap.Skip.Filler, ShouldBeTrue)
			So(snap.Provider.Language, ShouldEqual, "english")
			So(snap.Provider.Track, ShouldEqual, TrackSub)
			So(snap.Provider.RetryDelay, ShouldEqual, 3*time.Second)
			So(snap.Validate(), ShouldBeNil)
		})

		Convey("When viper changes after the snapshot was taken", func() {
			viper.Set(key.SkipOpening, false)

			Convey("Then the snapshot is unaffected", func() {
				So(snap.Skip.Opening, ShouldBeTrue)
				So(Snapshot().Skip.Opening, ShouldBeFalse)
			})
		})

		Convey("When player args are set", func() {
			viper.Set(key.PlayerArgs, " --no-cache  --fullscreen=yes ")

			Convey("Then they are split on spaces", func() {
				So(Snapshot().Player.Args, ShouldResemble, []string{"--no-cache", "--fullscreen=yes"})
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a valid snapshot", t, func() {
		viper.Reset()
		So(Setup(), ShouldBeNil)
		Reset(viper.Reset)
		snap := Snapshot()

		Convey("A completion percentage above 100 is rejected", func() {
			snap.Player.CompletionPercent = 101
			So(snap.Validate(), ShouldNotBeNil)
		})

		Convey("A track other than sub or dub is rejected", func() {
			snap.Provider.Track = "raw"
			So(snap.Validate(), ShouldNotBeNil)
		})

		Convey("A prefetch trigger of 100 is rejected", func() {
			snap.Player.PrefetchPercent = 100
			So(snap.Validate(), ShouldNotBeNil)
		})

		Convey("A negative precision is rejected", func() {
			snap.Skip.Precision = -1
			So(snap.Validate(), ShouldNotBeNil)
		})
	})
}
