package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/progress"
	"github.com/yato-cli/yato/style"
	"github.com/yato-cli/yato/util"
	"github.com/yato-cli/yato/where"
)

func init() {
	rootCmd.AddCommand(progressCmd)

	progressCmd.Flags().BoolP("json", "j", false, "Print the records as JSON")
	progressCmd.Flags().Bool("schema", false, "Print the JSON schema of the progress file")
	progressCmd.MarkFlagsMutuallyExclusive("json", "schema")
	progressCmd.SetOut(os.Stdout)
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the locally saved resume positions",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			schema, err := progress.Schema()
			handleErr(err)
			cmd.Println(string(schema))
			return
		}

		store, err := progress.Load(where.Progress())
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(progress.File{Entries: store.All()}))
			return
		}

		records := store.All()
		if len(records) == 0 {
			cmd.Println(style.Faint("no saved progress"))
			return
		}

		for _, r := range records {
			cmd.Printf(
				"%s episode %s at %s\n",
				style.Fg(color.Purple)(strconv.Itoa(r.SeriesID)),
				style.Bold(strconv.Itoa(r.Episode)),
				style.Fg(color.Yellow)(util.FormatClock(r.Position)),
			)
		}
	},
}

func init() {
	progressCmd.AddCommand(progressRemoveCmd)
}

var progressRemoveCmd = &cobra.Command{
	Use:     "rm <anilist id>",
	Aliases: []string{"remove"},
	Short:   "Forget the saved position of a series",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := seriesArg(args)

		store, err := progress.Load(where.Progress())
		handleErr(err)

		if !store.Delete(id) {
			fmt.Printf("%s %d has no saved progress\n", icon.Get(icon.Skip), id)
			return
		}
		handleErr(store.Save())
		success("removed progress of %d", id)
	},
}
