package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/util"
	"github.com/yato-cli/yato/where"
)

type clearTarget struct {
	name     string
	flag     string
	short    mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"cache", "cache", mo.Some("c"), where.Cache},
	{"saved progress", "progress", mo.Some("p"), where.Progress},
	{"series overrides", "overrides", mo.Some("o"), where.Overrides},
	{"failed sync queue", "queue", mo.Some("f"), where.Queue},
	{"search history", "queries", mo.None[string](), where.Queries},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := "Clear " + target.name
		if short, ok := target.short.Get(); ok {
			clearCmd.Flags().BoolP(target.flag, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.flag, false, help)
		}
	}
	clearCmd.Flags().BoolP("anilist", "a", false, "Remove the stored AniList token")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached and saved data",
	Run: func(cmd *cobra.Command, args []string) {
		var cleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.flag)) {
				continue
			}
			cleared = true

			if err := util.Delete(target.location()); err != nil && !errors.Is(err, fs.ErrNotExist) {
				handleErr(err)
			}
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if lo.Must(cmd.Flags().GetBool("anilist")) {
			cleared = true
			handleErr(anilist.DeleteToken())
			fmt.Printf("%s AniList token removed\n", icon.Get(icon.Success))
		}

		if !cleared {
			handleErr(cmd.Help())
		}
	},
}
