package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/key"
	"github.com/yato-cli/yato/provider"
	"github.com/yato-cli/yato/style"
	"github.com/yato-cli/yato/where"
)

func completionLanguages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	registry, err := newRegistry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return registry.Languages(), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(providerCmd)
}

var providerCmd = &cobra.Command{
	Use:     "provider",
	Aliases: []string{"providers"},
	Short:   "Manage the Lua scripts that resolve episode links",
}

func init() {
	providerCmd.AddCommand(providerListCmd)
}

var providerListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List installed providers",
	Run: func(cmd *cobra.Command, args []string) {
		registry, err := newRegistry()
		handleErr(err)

		current := viper.GetString(key.ProviderLanguage)
		for _, language := range registry.Languages() {
			if strings.EqualFold(language, current) {
				fmt.Printf("%s %s\n", style.Fg(color.Purple)(language), style.Faint("(selected)"))
				continue
			}
			fmt.Println(language)
		}
	},
}

func init() {
	providerCmd.AddCommand(providerNewCmd)
}

var providerNewCmd = &cobra.Command{
	Use:   "new <language>",
	Short: "Scaffold a new Lua provider script",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		target := provider.ScriptPath(args[0])
		if exists := lo.Must(filesystem.API().Exists(target)); exists {
			handleErr(fmt.Errorf("%s already exists", target))
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    func(values ...int) int { return lo.Max(values) },
		}

		tmpl, err := template.New("provider").Funcs(funcMap).Parse(constant.ProviderTemplate)
		handleErr(err)

		handleErr(filesystem.API().MkdirAll(filepath.Dir(target), os.ModePerm))
		f, err := filesystem.API().Create(target)
		handleErr(err)
		defer f.Close()

		handleErr(tmpl.Execute(f, struct {
			Language         string
			Author           string
			ResolveEpisodeFn string
		}{
			Language:         args[0],
			Author:           author,
			ResolveEpisodeFn: constant.ResolveEpisodeFn,
		}))

		fmt.Println(target)
	},
}

func init() {
	providerCmd.AddCommand(providerUpdateCmd)
	providerUpdateCmd.Flags().String("from", "", "Repository base URL. Defaults to provider.repository")
}

var providerUpdateCmd = &cobra.Command{
	Use:   "update [language...]",
	Short: "Download the latest provider scripts",
	Long:  "Download the latest version of the given providers, or of every installed one when none is given.",
	Run: func(cmd *cobra.Command, args []string) {
		base := lo.Must(cmd.Flags().GetString("from"))
		if base == "" {
			base = viper.GetString(key.ProviderRepository)
		}

		languages := args
		if len(languages) == 0 {
			registry, err := newRegistry()
			handleErr(err)
			languages = registry.Languages()
		}

		if len(languages) == 0 {
			languages = []string{viper.GetString(key.ProviderLanguage)}
		}

		ctx, cancel := interruptible()
		defer cancel()

		for _, language := range languages {
			changed, err := provider.Update(ctx, base, language)
			switch {
			case err != nil:
				fmt.Printf("%s %s: %v\n", style.Fg(color.Red)(icon.Get(icon.Fail)), language, err)
			case changed:
				success("updated %s", language)
			default:
				fmt.Printf("%s %s is up to date\n", icon.Get(icon.Skip), language)
			}

			if ctx.Err() != nil {
				handleErr(context.Cause(ctx))
			}
		}
	},
}

func init() {
	providerCmd.AddCommand(providerRemoveCmd)
}

var providerRemoveCmd = &cobra.Command{
	Use:               "rm <language>",
	Aliases:           []string{"remove"},
	Short:             "Remove an installed provider",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionLanguages,
	Run: func(cmd *cobra.Command, args []string) {
		path := provider.ScriptPath(args[0])
		if exists := lo.Must(filesystem.API().Exists(path)); !exists {
			handleErr(fmt.Errorf("provider %s is not installed, see %s", args[0], where.Providers()))
		}

		handleErr(filesystem.API().Remove(path))
		success("removed %s", args[0])
	},
}
