// Package key lists every configuration key understood by yato.
package key

// Player - these keys configure the external player and the watch loop timing.
const (
	PlayerProgram              = "player.program"
	PlayerArgs                 = "player.args"
	PlayerCompletionPercentage = "player.completion_percentage"
	PlayerPrefetchPercentage   = "player.prefetch_percentage"
	PlayerTick                 = "player.tick"
	PlayerSkipCooldown         = "player.skip_cooldown"
)

// Skip - these keys are the global skip policies that per-series overrides invert.
const (
	SkipOpening   = "skip.opening"
	SkipCredits   = "skip.credits"
	SkipRecap     = "skip.recap"
	SkipFiller    = "skip.filler"
	SkipPrecision = "skip.precision"
)

// Provider - these keys select how episode links are resolved.
const (
	ProviderLanguage   = "provider.language"
	ProviderQuality    = "provider.quality"
	ProviderTrack      = "provider.track"
	ProviderRetryDelay = "provider.retry_delay"
	ProviderRepository = "provider.repository"
)

// Anilist - these keys govern the tracking service integration.
const (
	AnilistScoreOnCompletion = "anilist.score_on_completion"
	AnilistShowAdult         = "anilist.show_adult"
)

// Presence - these keys control the Discord rich presence.
const (
	PresenceEnable   = "presence.enable"
	PresenceClientID = "presence.client_id"
)

// Logs - these keys manage diagnostics written to disk.
const (
	LogsWrite      = "logs.write"
	LogsLevel      = "logs.level"
	LogsJson       = "logs.json"
	LogsMaxSize    = "logs.max_size"
	LogsMaxBackups = "logs.max_backups"
	LogsMaxAge     = "logs.max_age"
)

// Cli - these keys change non-playback CLI behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	IconsVariant    = "icons.variant"
)
