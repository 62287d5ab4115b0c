package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/key"
)

// Track values accepted by provider.track.
const (
	TrackSub = "sub"
	TrackDub = "dub"
)

// Config is a point-in-time copy of the settings a watch session depends on.
// Sessions receive it by value and never consult viper again.
type Config struct {
	Player   Player
	Skip     Skip
	Provider Provider
	Anilist  Anilist
	Presence Presence
}

type Player struct {
	Program           string
	Args              []string
	CompletionPercent float64
	PrefetchPercent   float64
	Tick              time.Duration
	SkipCooldown      time.Duration
}

// Skip holds the global skip policies. Per-series overrides invert them.
type Skip struct {
	Opening   bool
	Credits   bool
	Recap     bool
	Filler    bool
	Precision int
}

type Provider struct {
	Language   string
	Quality    string
	Track      string
	RetryDelay time.Duration
}

type Anilist struct {
	ScoreOnCompletion bool
	ShowAdult         bool
}

type Presence struct {
	Enable   bool
	ClientID string
}

// Snapshot reads the current viper state into a Config.
func Snapshot() Config {
	return Config{
		Player: Player{
			Program:           viper.GetString(key.PlayerProgram),
			Args:              splitArgs(viper.GetString(key.PlayerArgs)),
			CompletionPercent: viper.GetFloat64(key.PlayerCompletionPercentage),
			PrefetchPercent:   viper.GetFloat64(key.PlayerPrefetchPercentage),
			Tick:              viper.GetDuration(key.PlayerTick),
			SkipCooldown:      viper.GetDuration(key.PlayerSkipCooldown),
		},
		Skip: Skip{
			Opening:   viper.GetBool(key.SkipOpening),
			Credits:   viper.GetBool(key.SkipCredits),
			Recap:     viper.GetBool(key.SkipRecap),
			Filler:    viper.GetBool(key.SkipFiller),
			Precision: viper.GetInt(key.SkipPrecision),
		},
		Provider: Provider{
			Language:   strings.ToLower(viper.GetString(key.ProviderLanguage)),
			Quality:    viper.GetString(key.ProviderQuality),
			Track:      strings.ToLower(viper.GetString(key.ProviderTrack)),
			RetryDelay: viper.GetDuration(key.ProviderRetryDelay),
		},
		Anilist: Anilist{
			ScoreOnCompletion: viper.GetBool(key.AnilistScoreOnCompletion),
			ShowAdult:         viper.GetBool(key.AnilistShowAdult),
		},
		Presence: Presence{
			Enable:   viper.GetBool(key.PresenceEnable),
			ClientID: viper.GetString(key.PresenceClientID),
		},
	}
}

func splitArgs(s string) []string {
	return lo.Filter(strings.Split(s, " "), func(arg string, _ int) bool {
		return arg != ""
	})
}

// Validate rejects settings a session cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Player.Program == "":
		return fmt.Errorf("%s must not be empty", key.PlayerProgram)
	case c.Player.CompletionPercent < 0 || c.Player.CompletionPercent > 100:
		return fmt.Errorf("%s must be between 0 and 100, got %v", key.PlayerCompletionPercentage, c.Player.CompletionPercent)
	case c.Player.PrefetchPercent <= 0 || c.Player.PrefetchPercent >= 100:
		return fmt.Errorf("%s must be between 0 and 100 exclusive, got %v", key.PlayerPrefetchPercentage, c.Player.PrefetchPercent)
	case c.Player.Tick <= 0:
		return fmt.Errorf("%s must be positive", key.PlayerTick)
	case c.Player.SkipCooldown < 0:
		return fmt.Errorf("%s must not be negative", key.PlayerSkipCooldown)
	case c.Skip.Precision < 0:
		return fmt.Errorf("%s must not be negative", key.SkipPrecision)
	case c.Provider.Track != TrackSub && c.Provider.Track != TrackDub:
		return fmt.Errorf("%s must be %q or %q, got %q", key.ProviderTrack, TrackSub, TrackDub, c.Provider.Track)
	case c.Provider.RetryDelay <= 0:
		return fmt.Errorf("%s must be positive", key.ProviderRetryDelay)
	}

	return nil
}
