package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/key"
)

func TestParseValue(t *testing.T) {
	Convey("Values are parsed by the type of their default", t, func() {
		v, err := parseValue(config.Default[key.PlayerTick], []string{"500ms"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "500ms")

		v, err = parseValue(config.Default[key.PlayerCompletionPercentage], []string{"90"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 90)

		v, err = parseValue(config.Default[key.SkipRecap], []string{"false"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, false)

		v, err = parseValue(config.Default[key.ProviderLanguage], []string{"german"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "german")
	})

	Convey("Malformed values are rejected", t, func() {
		_, err := parseValue(config.Default[key.PlayerTick], []string{"soon"})
		So(err, ShouldNotBeNil)

		_, err = parseValue(config.Default[key.SkipPrecision], []string{"two"})
		So(err, ShouldNotBeNil)

		_, err = parseValue(config.Default[key.SkipOpening], nil)
		So(err, ShouldNotBeNil)
	})

	Convey("Unknown keys suggest the closest one", t, func() {
		So(errUnknownKey("player.tik").Error(), ShouldContainSubstring, key.PlayerTick)
	})
}
