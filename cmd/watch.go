package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/progress"
	"github.com/yato-cli/yato/query"
	"github.com/yato-cli/yato/where"
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntP("episode", "e", 0, "Episode to start from. Defaults to the saved one")
	watchCmd.Flags().BoolP("sync", "s", false, "Save progress locally and to AniList")
}

var watchCmd = &cobra.Command{
	Use:     "watch <anilist id | name>",
	Short:   "Watch a series by AniList id or name",
	Example: "  yato watch 154587\n  yato watch frieren --episode 5",
	Args:    cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return query.Suggest(toComplete), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Snapshot()
		handleErr(cfg.Validate())

		ctx, cancel := interruptible()
		defer cancel()

		client := newAnilist(cfg)
		media, err := lookupMedia(ctx, client, args)
		handleErr(err)

		completed := lo.Must(cmd.Flags().GetInt("episode")) - 1
		if completed < 0 {
			completed = savedEpisode(media, cfg.Player.CompletionPercent)
		}

		syncing := lo.Must(cmd.Flags().GetBool("sync"))
		handleErr(runSession(ctx, cfg, client, media, completed, syncing))
	},
}

// lookupMedia treats a single numeric argument as an AniList id and anything
// else as a title. Titles searched before go straight to the series they
// resolved to.
func lookupMedia(ctx context.Context, client *anilist.Client, args []string) (*anilist.Media, error) {
	if len(args) == 1 {
		if id, err := strconv.Atoi(args[0]); err == nil {
			return client.Media(ctx, id)
		}
	}

	name := strings.Join(args, " ")
	if id, ok := query.Lookup(name); ok {
		if media, err := client.Media(ctx, id); err == nil {
			_ = query.Remember(name, media.ID)
			return media, nil
		}
	}

	media, err := client.FindClosest(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := query.Remember(name, media.ID); err != nil {
		log.Warnf("remember query: %v", err)
	}
	return media, nil
}

// savedEpisode is the number of episodes to treat as watched from the local
// record. An episode saved past the completion threshold counts as watched.
func savedEpisode(media *anilist.Media, completionPercent float64) int {
	store, err := progress.Load(where.Progress())
	if err != nil {
		return 0
	}

	record, ok := store.Get(media.ID).Get()
	if !ok || record.Episode < 1 {
		return 0
	}
	return resumeFrom(record, media.Episodes, completionPercent)
}

// resumeFrom starts after a completed episode and on an unfinished one. A
// finished final episode starts the series over.
func resumeFrom(record progress.Record, episodes int, completionPercent float64) int {
	if !record.Completed(completionPercent) {
		return record.Episode - 1
	}
	if episodes > 0 && record.Episode >= episodes {
		return 0
	}
	return record.Episode
}
