package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/internal/sync"
	"github.com/yato-cli/yato/util"
	"github.com/yato-cli/yato/where"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Retry AniList updates that failed during earlier sessions",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := interruptible()
		defer cancel()

		queue := sync.NewQueue(where.Queue())
		pending, err := queue.Pending()
		handleErr(err)

		if len(pending) == 0 {
			fmt.Printf("%s nothing to sync\n", icon.Get(icon.Skip))
			return
		}

		replayed, err := queue.Reconcile(ctx, newAnilist(config.Snapshot()))
		if replayed > 0 {
			success("synced %s", util.Quantify(replayed, "update", "updates"))
		}
		handleErr(err)
	},
}
