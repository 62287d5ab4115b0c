// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/key"
	"github.com/yato-cli/yato/style"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants lists the accepted icons.variant values.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Skip
	Sync
	Play
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

func (d iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

var icons = map[Icon]iconDef{
	Success:  {emoji: "🎉", nerd: style.Fg(color.Green)(""), plain: style.Fg(color.Green)("✓")},
	Fail:     {emoji: "💀", nerd: style.Fg(color.Red)(""), plain: style.Fg(color.Red)("✖")},
	Progress: {emoji: "⏳", nerd: style.Fg(color.Blue)(""), plain: style.Fg(color.Blue)("…")},
	Skip:     {emoji: "⏩", nerd: style.Fg(color.Yellow)(""), plain: style.Fg(color.Yellow)("»")},
	Sync:     {emoji: "🔄", nerd: style.Fg(color.Cyan)(""), plain: style.Fg(color.Cyan)("↻")},
	Play:     {emoji: "▶️", nerd: style.Fg(color.Purple)(""), plain: style.Fg(color.Purple)("▶")},
}

// Get renders i in the configured variant, or "" for an unknown variant.
func Get(i Icon) string {
	return icons[i].get()
}
