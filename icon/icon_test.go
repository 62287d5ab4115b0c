package icon

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/key"
)

func TestGet(t *testing.T) {
	Convey("Given every registered icon", t, func() {
		for _, variant := range AvailableVariants() {
			Convey("It renders for variant "+variant, func() {
				viper.Set(key.IconsVariant, variant)
				for i := range icons {
					So(Get(i), ShouldNotBeEmpty)
				}
			})
		}

		Convey("It renders nothing for an unknown variant", func() {
			viper.Set(key.IconsVariant, "squares")
			So(Get(Skip), ShouldBeEmpty)
		})
	})
}
