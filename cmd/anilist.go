package cmd

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/open"
	"github.com/yato-cli/yato/prompt"
	"github.com/yato-cli/yato/style"
)

func init() {
	rootCmd.AddCommand(anilistCmd)
}

var anilistCmd = &cobra.Command{
	Use:   "anilist",
	Short: "Manage the AniList account used for syncing",
}

func init() {
	anilistCmd.AddCommand(anilistAuthCmd)
	anilistAuthCmd.Flags().StringP("token", "t", "", "Access token. Prompted for when omitted")
}

var anilistAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store an AniList access token in the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		token := lo.Must(cmd.Flags().GetString("token"))
		if token == "" {
			fmt.Println("Authorize yato in your browser and paste the token:")
			fmt.Println(style.Fg(color.Blue)(anilist.AuthURL))
			if err := open.Start(anilist.AuthURL); err != nil {
				log.Warnf("open browser: %v", err)
			}

			var err error
			token, err = prompt.New().Input("Token")
			handleErr(err)
		}

		handleErr(anilist.SetToken(token))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		viewer, err := newAnilist(config.Snapshot()).Viewer(ctx)
		if err != nil {
			_ = anilist.DeleteToken()
			handleErr(fmt.Errorf("token rejected: %w", err))
		}
		success("logged in as %s", style.Fg(color.Purple)(viewer.Name))
	},
}

func init() {
	anilistCmd.AddCommand(anilistLogoutCmd)
}

var anilistLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored AniList token",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(anilist.DeleteToken())
		success("logged out")
	},
}
