package cmd

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/override"
	"github.com/yato-cli/yato/style"
	"github.com/yato-cli/yato/where"
)

func init() {
	rootCmd.AddCommand(overrideCmd)
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Invert the global skip policies for a single series",
	Long: `A set flag makes a series do the opposite of the configuration for that category.
With skip.opening = true, "yato override set 154587 --intro" keeps the opening of that series.`,
}

func seriesArg(args []string) int {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		handleErr(fmt.Errorf("invalid anilist id %q", args[0]))
	}
	return id
}

func describeSetting(s override.Setting) string {
	flags := lo.Compact([]string{
		lo.Ternary(s.Intro, "intro", ""),
		lo.Ternary(s.Outro, "outro", ""),
		lo.Ternary(s.Recap, "recap", ""),
		lo.Ternary(s.Filler, "filler", ""),
	})
	if len(flags) == 0 {
		return style.Faint("none")
	}
	return style.Fg(color.Yellow)(fmt.Sprint(flags))
}

func init() {
	overrideCmd.AddCommand(overrideSetCmd)

	overrideSetCmd.Flags().Bool("intro", false, "Invert skip.opening")
	overrideSetCmd.Flags().Bool("outro", false, "Invert skip.credits")
	overrideSetCmd.Flags().Bool("recap", false, "Invert skip.recap")
	overrideSetCmd.Flags().Bool("filler", false, "Invert skip.filler")
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <anilist id>",
	Short: "Replace the override of a series",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := seriesArg(args)
		setting := override.Setting{
			Intro:  lo.Must(cmd.Flags().GetBool("intro")),
			Outro:  lo.Must(cmd.Flags().GetBool("outro")),
			Recap:  lo.Must(cmd.Flags().GetBool("recap")),
			Filler: lo.Must(cmd.Flags().GetBool("filler")),
		}

		handleErr(override.Open(where.Overrides()).Set(id, setting))
		success("override of %d set to %s", id, describeSetting(setting))
	},
}

func init() {
	overrideCmd.AddCommand(overrideGetCmd)
}

var overrideGetCmd = &cobra.Command{
	Use:   "get <anilist id>",
	Short: "Show the override of a series",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setting, err := override.Open(where.Overrides()).Get(seriesArg(args))
		handleErr(err)
		fmt.Println(describeSetting(setting))
	},
}

func init() {
	overrideCmd.AddCommand(overrideRemoveCmd)
}

var overrideRemoveCmd = &cobra.Command{
	Use:     "rm <anilist id>",
	Aliases: []string{"remove"},
	Short:   "Remove the override of a series",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := seriesArg(args)
		removed, err := override.Open(where.Overrides()).Delete(id)
		handleErr(err)

		if !removed {
			fmt.Printf("%s %d has no override\n", icon.Get(icon.Skip), id)
			return
		}
		success("removed override of %d", id)
	},
}

func init() {
	overrideCmd.AddCommand(overrideListCmd)
}

var overrideListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List every override",
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := override.Open(where.Overrides()).All()
		handleErr(err)

		for _, e := range entries {
			fmt.Printf("%s %s\n", style.Fg(color.Purple)(strconv.Itoa(e.SeriesID)), describeSetting(e.Setting))
		}
	},
}
