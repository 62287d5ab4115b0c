package watch

import (
	"context"
	"io"
	"time"

	"github.com/samber/mo"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/aniskip"
	"github.com/yato-cli/yato/internal/sync"
	"github.com/yato-cli/yato/override"
	"github.com/yato-cli/yato/player"
	"github.com/yato-cli/yato/presence"
	"github.com/yato-cli/yato/progress"
	"github.com/yato-cli/yato/provider"
)

// Controller is the part of the player IPC client the loop drives.
type Controller interface {
	GetProperty(ctx context.Context, name string) (float64, error)
	SeekAbsolute(ctx context.Context, seconds float64) error
	HasActivePlayback(ctx context.Context) (bool, error)
	IsAlive(ctx context.Context) (bool, error)
	GetPausedStatus(ctx context.Context) (bool, error)
	LoadFile(ctx context.Context, target string) error
	SetChapters(ctx context.Context, chapters []player.Chapter) error
	SetTitle(ctx context.Context, title string) error
}

// Player is a launched player owned by one session.
type Player interface {
	Controller
	Close() error
}

// Launcher starts a player on its first URL.
type Launcher interface {
	Launch(ctx context.Context, url string) (Player, error)
}

// SkipSource returns the skip windows of an episode.
type SkipSource interface {
	Fetch(ctx context.Context, malID, episode, precision int) (aniskip.Windows, error)
}

// SkipSourceFunc adapts a function such as aniskip.Fetch.
type SkipSourceFunc func(ctx context.Context, malID, episode, precision int) (aniskip.Windows, error)

func (f SkipSourceFunc) Fetch(ctx context.Context, malID, episode, precision int) (aniskip.Windows, error) {
	return f(ctx, malID, episode, precision)
}

// FillerClassifier tells filler episodes apart.
type FillerClassifier interface {
	IsFiller(ctx context.Context, malID, episode int) (bool, error)
}

// Tracker is the remote list service.
type Tracker interface {
	sync.Tracker
	Sequel(ctx context.Context, id int) (mo.Option[anilist.Media], error)
}

// ProgressStore keeps the local resume positions.
type ProgressStore interface {
	Get(seriesID int) mo.Option[progress.Record]
	Upsert(record progress.Record)
	Save() error
}

// OverrideLookup returns the per-series skip overrides.
type OverrideLookup interface {
	Lookup(seriesID int) override.Setting
}

// Prompter asks the completion questions.
type Prompter interface {
	Confirm(message string) (bool, error)
	Score() (float64, error)
}

// FailureQueue keeps tracker updates that could not be delivered.
type FailureQueue interface {
	Push(m sync.Mutation) error
}

// Clock is the loop's only source of time. Its After also drives retry delays.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (realClock) Now() time.Time                         { return time.Now() }

// Deps are the collaborators of a session. Nil Presence, Clock and Output get defaults.
type Deps struct {
	Launcher  Launcher
	Resolver  provider.Resolver
	Skips     SkipSource
	Fillers   FillerClassifier
	Tracker   Tracker
	Progress  ProgressStore
	Overrides OverrideLookup
	Prompt    Prompter
	Presence  presence.Broadcaster
	Queue     FailureQueue
	Clock     Clock
	Output    io.Writer
}

// SpawnLauncher launches mpv through player.Spawn.
type SpawnLauncher struct {
	Options player.Options
}

func (l SpawnLauncher) Launch(ctx context.Context, url string) (Player, error) {
	handle, err := player.Spawn(ctx, l.Options, url)
	if err != nil {
		return nil, err
	}
	return handle, nil
}
