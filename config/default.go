package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/key"
	"github.com/yato-cli/yato/style"
)

// Field is one registered configuration key with its default and description.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field for `yato config info`.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env is the environment variable bound to the field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Yato + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds every registered field by key.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlayerProgram, "mpv", "Player executable. Must speak the mpv JSON IPC protocol")
	register(key.PlayerArgs, "", "Extra arguments passed to the player, separated by spaces.\nFor example: \"--no-cache --fullscreen=yes\"")
	register(key.PlayerCompletionPercentage, 85, "Watched percentage at which an episode is reported to Anilist. From 0 to 100")
	register(key.PlayerPrefetchPercentage, 70, "Watched percentage at which the next episode link is resolved in the background")
	register(key.PlayerTick, 250*time.Millisecond, "How often the player is polled while an episode plays")
	register(key.PlayerSkipCooldown, time.Second, "Pause after an automatic skip so the same window does not fire twice")

	register(key.SkipOpening, true, "Skip openings reported by aniskip")
	register(key.SkipCredits, true, "Skip ending credits reported by aniskip")
	register(key.SkipRecap, true, "Skip recaps reported by aniskip")
	register(key.SkipFiller, true, "Skip episodes Jikan classifies as filler")
	register(key.SkipPrecision, 2, "Decimal digits skip window bounds are rounded to")

	register(key.ProviderLanguage, "english", "Language of the provider script used to resolve links.\nScripts live in the providers directory, see \"yato where --providers\"")
	register(key.ProviderQuality, "best", "Preferred quality. Falls back to the best available one")
	register(key.ProviderTrack, "sub", "Audio track. Either sub or dub")
	register(key.ProviderRetryDelay, 3*time.Second, "Delay between attempts when a link cannot be resolved")
	register(key.ProviderRepository, "https://raw.githubusercontent.com/yato-cli/providers/main", "Base URL \"yato provider update\" downloads scripts from")

	register(key.AnilistScoreOnCompletion, false, "Ask for a score after the last episode of a season")
	register(key.AnilistShowAdult, false, "Include adult entries in search results")

	register(key.PresenceEnable, false, "Show what you are watching as Discord rich presence")
	register(key.PresenceClientID, "1359438420304334929", "Discord application id used for rich presence")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.LogsMaxSize, 10, "Size in megabytes a log file may reach before it is rotated")
	register(key.LogsMaxBackups, 5, "Number of rotated log files kept")
	register(key.LogsMaxAge, 28, "Days a rotated log file is kept")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Let \"yato version\" check GitHub for a newer release")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"wrap":     func(s string) string { return wordwrap.String(s, 72) },
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint (wrap .Description) }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
