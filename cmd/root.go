// Package cmd implements the yato command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/key"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/style"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant (emoji, nerd, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("language", "l", "", "Provider language used to resolve links")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("language", completionLanguages))
	lo.Must0(viper.BindPFlag(key.ProviderLanguage, rootCmd.PersistentFlags().Lookup("language")))

	rootCmd.PersistentFlags().StringP("quality", "q", "", "Preferred quality, e.g. 1080p or best")
	lo.Must0(viper.BindPFlag(key.ProviderQuality, rootCmd.PersistentFlags().Lookup("quality")))

	rootCmd.PersistentFlags().Bool("dub", false, "Prefer the dubbed track")
}

var rootCmd = &cobra.Command{
	Use:   constant.Yato,
	Short: "Binge anime in mpv with automatic skips and AniList sync",
	Long: style.Bold(constant.Yato) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - binge anime in mpv with automatic skips and AniList sync"),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("dub")) {
			viper.Set(key.ProviderTrack, "dub")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		continueCmd.Run(continueCmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

func success(format string, args ...any) {
	fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, args...))
}
