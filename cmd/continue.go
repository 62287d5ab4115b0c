package cmd

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/prompt"
)

func init() {
	rootCmd.AddCommand(continueCmd)
}

var continueCmd = &cobra.Command{
	Use:     "continue",
	Aliases: []string{"c"},
	Short:   "Pick up a series from your AniList watching list",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Snapshot()
		handleErr(cfg.Validate())

		ctx, cancel := interruptible()
		defer cancel()

		client := newAnilist(cfg)
		entries, err := client.Watching(ctx)
		handleErr(err)

		if len(entries) == 0 {
			handleErr(errors.New("your watching list is empty"))
		}

		options := lo.Map(entries, func(e anilist.Entry, _ int) string {
			total := "?"
			if e.Media.Episodes > 0 {
				total = fmt.Sprint(e.Media.Episodes)
			}
			return fmt.Sprintf("%s (%d/%s)", e.Media.Name(), e.Progress, total)
		})

		index, err := prompt.New().Select("Continue watching", options)
		if errors.Is(err, prompt.ErrCancelled) {
			return
		}
		handleErr(err)

		entry := entries[index]
		handleErr(runSession(ctx, cfg, client, &entry.Media, entry.Progress, true))
	},
}
