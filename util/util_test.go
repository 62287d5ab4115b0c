package util

import (
	"math"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/yato-cli/yato/filesystem"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "episode", "episodes"), ShouldEqual, "1 episode")
		So(Quantify(12, "episode", "episodes"), ShouldEqual, "12 episodes")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("opening"), ShouldEqual, "Opening")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFormatClock(t *testing.T) {
	Convey("Given playback positions in seconds", t, func() {
		Convey("Then they render as HH:MM:SS", func() {
			So(FormatClock(0), ShouldEqual, "00:00:00")
			So(FormatClock(59.6), ShouldEqual, "00:01:00")
			So(FormatClock(754.2), ShouldEqual, "00:12:34")
			So(FormatClock(3725), ShouldEqual, "01:02:05")
		})

		Convey("Then garbage renders as zero", func() {
			So(FormatClock(-3), ShouldEqual, "00:00:00")
			So(FormatClock(math.NaN()), ShouldEqual, "00:00:00")
		})
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5, 1, 10), ShouldEqual, 5)
		So(Clamp(-1, 1, 10), ShouldEqual, 1)
		So(Clamp(11.5, 1.0, 10.0), ShouldEqual, 10.0)
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("providers/english.lua"), ShouldEqual, "english")
		So(FileStem("english"), ShouldEqual, "english")
	})
}

func TestDelete(t *testing.T) {
	filesystem.SetMemMapFs()

	Convey("Given a directory with a file", t, func() {
		So(filesystem.API().WriteFile("/tmp/yato/a/b.json", []byte("{}"), 0o644), ShouldBeNil)

		Convey("When the directory is deleted", func() {
			So(Delete("/tmp/yato/a"), ShouldBeNil)

			Convey("Then nothing is left", func() {
				So(lo.Must(filesystem.API().Exists("/tmp/yato/a/b.json")), ShouldBeFalse)
			})
		})

		Convey("When a missing path is deleted", func() {
			Convey("Then an error is returned", func() {
				So(Delete("/tmp/yato/missing"), ShouldNotBeNil)
			})
		})
	})
}
