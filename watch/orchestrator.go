package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/aniskip"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/internal/sync"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/override"
	"github.com/yato-cli/yato/presence"
	"github.com/yato-cli/yato/progress"
	"github.com/yato-cli/yato/prompt"
	"github.com/yato-cli/yato/provider"
	"github.com/yato-cli/yato/style"
	"github.com/yato-cli/yato/util"
)

const (
	// startupProbes bounds how long a freshly loaded episode may stay silent.
	startupProbes = 40
	// presencePollTicks is how often the pause flag is read for presence.
	presencePollTicks = 4
)

type link struct {
	episode int
	url     string
}

// Orchestrator drives one session from the first resolved link until the
// user quits or the series (and any accepted sequels) runs out.
type Orchestrator struct {
	cfg     config.Config
	deps    Deps
	session Session
	clock   Clock
	out     io.Writer

	cache LinkCache

	// state of the episode on screen
	prefetch     *task
	prefetchSlot *Slot[link]
	prefetches   int
	resumeShown  bool
}

// New binds a session to an immutable configuration and its collaborators.
func New(cfg config.Config, deps Deps, session Session) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		session: session,
		clock:   deps.Clock,
		out:     deps.Output,
	}

	if o.clock == nil {
		o.clock = realClock{}
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	if o.deps.Presence == nil {
		o.deps.Presence = presence.Nop{}
	}

	return o
}

// Session returns the current session state.
func (o *Orchestrator) Session() Session {
	return o.session
}

// Run plays until the session ends. A user closing the player ends it
// without error. Background tasks still running when Run returns are
// abandoned; they see the cancelled session context and deliver nothing.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.session.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer o.deps.Presence.Idle("Idle")

	startup := NewSlot[link]()
	spawn("startup", func() { o.fetchLink(ctx, o.session, o.session.playing(), startup) })

	first, err := startup.Recv(ctx)
	if err != nil {
		return err
	}
	o.session.Episode = first.episode - 1

	o.printf("Starting %s\n", style.Bold(o.session.episodeTitle(first.episode)))
	p, err := o.deps.Launcher.Launch(ctx, first.url)
	if err != nil {
		return fmt.Errorf("launch player: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warnf("closing player: %v", err)
		}
	}()

	for {
		end, err := o.play(ctx, p)
		if err != nil {
			return err
		}
		if !end {
			log.Info("player closed, ending session")
			return nil
		}

		more, err := o.advance(ctx, p)
		if err != nil || !more {
			return err
		}
	}
}

// play runs the poll loop for the episode after session.Episode and persists
// the outcome. end is false when the player went away.
func (o *Orchestrator) play(ctx context.Context, p Controller) (end bool, err error) {
	session := o.session
	episode := session.playing()

	o.prefetch = nil
	o.prefetchSlot = NewSlot[link]()

	if alive, err := o.waitAlive(ctx, p); err != nil || !alive {
		return false, err
	}

	windows := o.fetchWindows(ctx, session, episode)
	if err := p.SetChapters(ctx, windows.Chapters()); err != nil {
		log.Warnf("setting chapters: %v", err)
	}
	if err := p.SetTitle(ctx, session.episodeTitle(episode)); err != nil {
		return false, fmt.Errorf("set title: %w", err)
	}

	duration, alive, err := o.waitDuration(ctx, p)
	if err != nil || !alive {
		return false, err
	}

	start, err := o.resume(ctx, p, session, episode)
	if err != nil {
		return false, err
	}
	o.deps.Presence.Watching(o.activity(session, episode, start, false))

	rules := skipRules(o.cfg.Skip, o.lookupOverride(session.SeriesID), windows)

	var (
		position, percent float64
		observed, paused  bool
	)

	for tick := 1; ; tick++ {
		active, err := p.HasActivePlayback(ctx)
		if err != nil {
			log.Infof("episode %d: player is gone: %v", episode, err)
			end = false
			break
		}
		if !active {
			log.Infof("episode %d reached its end", episode)
			end = true
			break
		}

		position, err = p.GetProperty(ctx, "time-pos")
		if err != nil {
			return false, fmt.Errorf("read time-pos: %w", err)
		}
		observed = true
		percent = position / duration * 100

		if o.prefetch == nil && percent > o.cfg.Player.PrefetchPercent && !session.last(episode) {
			o.startPrefetch(ctx, session, episode+1)
		}

		if err := o.applySkips(ctx, p, rules, position); err != nil {
			return false, err
		}

		if o.cfg.Presence.Enable && tick%presencePollTicks == 0 {
			if now, err := p.GetPausedStatus(ctx); err == nil && now != paused {
				paused = now
				o.deps.Presence.Watching(o.activity(session, episode, position, paused))
			}
		}

		if err := o.sleep(ctx, o.cfg.Player.Tick); err != nil {
			return false, err
		}
	}

	log.Infof("playback stopped for episode %d at %s", episode, util.FormatClock(position))

	if session.Syncing && observed {
		if err := o.persist(ctx, session, episode, position, duration, percent); err != nil {
			return false, err
		}
	}

	return end, nil
}

// advance moves past a finished episode. It reports false when the session is over.
func (o *Orchestrator) advance(ctx context.Context, p Controller) (bool, error) {
	o.session.Episode++
	completed := o.session.Episode

	if l, ok := o.prefetchSlot.TryRecv(); ok {
		o.cache.Insert(l.episode, l.url)
	}

	if o.session.last(completed) {
		return o.complete(ctx, p)
	}

	next := o.nextEpisode(ctx, o.session, completed+1)
	url, hit := o.cache.Take(next)
	if hit {
		log.Infof("episode %d was prefetched", next)
	} else {
		o.printf("No link prefetched, fetching now.\n")

		var err error
		if url, err = o.resolve(ctx, o.session, next); err != nil {
			return false, err
		}
	}

	return true, o.load(ctx, p, next, url)
}

// complete handles the end of a series: scoring and the sequel offer.
func (o *Orchestrator) complete(ctx context.Context, p Controller) (bool, error) {
	o.printf("This was the last episode of the season.\n")

	if o.session.Syncing && o.cfg.Anilist.ScoreOnCompletion {
		o.score(ctx)
	}

	if o.deps.Tracker == nil {
		return false, nil
	}

	found, err := o.deps.Tracker.Sequel(ctx, o.session.SeriesID)
	if err != nil {
		log.Warnf("sequel lookup for %d failed: %v", o.session.SeriesID, err)
		return false, nil
	}

	sequel, ok := found.Get()
	if !ok {
		log.Infof("%d has no sequel", o.session.SeriesID)
		return false, nil
	}

	accepted, err := o.deps.Prompt.Confirm(fmt.Sprintf("Continue watching with the sequel %s?", sequel.Name()))
	if err != nil {
		if !errors.Is(err, prompt.ErrCancelled) {
			log.Warnf("sequel prompt: %v", err)
		}
		return false, nil
	}
	if !accepted {
		log.Info("user declined the sequel")
		return false, nil
	}

	if o.session.Syncing {
		o.report(ctx, sync.Mutation{MediaID: sequel.ID, Action: sync.ActionStatus, Status: anilist.MediaListStatusCurrent})
		o.report(ctx, sync.Mutation{MediaID: sequel.ID, Action: sync.ActionProgress, Progress: 0})
	}

	o.switchTo(sequel)
	o.printf("Starting the sequel...\n")

	first := o.nextEpisode(ctx, o.session, 1)
	url, err := o.resolve(ctx, o.session, first)
	if err != nil {
		return false, err
	}

	return true, o.load(ctx, p, first, url)
}

func (o *Orchestrator) switchTo(sequel anilist.Media) {
	o.session.SeriesID = sequel.ID
	o.session.MalID = sequel.IDMal
	o.session.Title = sequel.Name()
	o.session.Cover = sequel.CoverImage.Large
	o.session.MaxEpisodes = sequel.Episodes
	o.session.Episode = 0
	o.cache = LinkCache{}
}

func (o *Orchestrator) load(ctx context.Context, p Controller, episode int, url string) error {
	if err := p.LoadFile(ctx, url); err != nil {
		return fmt.Errorf("load episode %d: %w", episode, err)
	}
	o.session.Episode = episode - 1
	o.printf("%s\n", style.Title(o.session.episodeTitle(episode)))
	return nil
}

func (o *Orchestrator) score(ctx context.Context) {
	score, err := o.deps.Prompt.Score()
	if err != nil {
		log.Warnf("score prompt: %v", err)
		return
	}
	o.report(ctx, sync.Mutation{MediaID: o.session.SeriesID, Action: sync.ActionScore, Score: score})
}

// persist saves the local record and, past the completion threshold, reports
// the episode to the tracker. Only the local save can fail the session.
func (o *Orchestrator) persist(ctx context.Context, s Session, episode int, position, duration, percent float64) error {
	record := o.deps.Progress.Get(s.SeriesID).OrElse(progress.Record{SeriesID: s.SeriesID})
	record.Episode = episode
	record.Position = position
	record.Duration = duration
	record.ProviderIDs = map[string]string{s.Language: record.ProviderIDs[s.Language]}

	o.deps.Progress.Upsert(record)
	if err := o.deps.Progress.Save(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	log.Infof("saved progress of %d: episode %d at %.1f", s.SeriesID, episode, position)

	if percent >= o.cfg.Player.CompletionPercent {
		if o.report(ctx, sync.Mutation{MediaID: s.SeriesID, Action: sync.ActionProgress, Progress: episode}) {
			o.printf("Synced to AniList\n")
		}
	}

	return nil
}

// report sends m to the tracker and queues it when that fails.
func (o *Orchestrator) report(ctx context.Context, m sync.Mutation) bool {
	if o.deps.Tracker == nil {
		return false
	}

	var err error
	switch m.Action {
	case sync.ActionProgress:
		err = o.deps.Tracker.UpdateProgress(ctx, m.MediaID, m.Progress)
	case sync.ActionStatus:
		err = o.deps.Tracker.UpdateStatus(ctx, m.MediaID, m.Status)
	case sync.ActionScore:
		err = o.deps.Tracker.UpdateScore(ctx, m.MediaID, m.Score)
	}

	if err == nil {
		return true
	}

	log.Warnf("tracker %s update for %d failed, queueing: %v", m.Action, m.MediaID, err)
	o.printf("Sync failed, queued for the next start\n")

	if o.deps.Queue == nil {
		return false
	}
	m.Timestamp = o.clock.Now().Unix()
	if err := o.deps.Queue.Push(m); err != nil {
		log.Errorf("queueing tracker update: %v", err)
	}
	return false
}

func (o *Orchestrator) startPrefetch(ctx context.Context, s Session, episode int) {
	o.prefetches++
	o.printf("Prefetching next episode.\n")

	slot := o.prefetchSlot
	o.prefetch = spawn("prefetch", func() { o.fetchLink(ctx, s, episode, slot) })
}

// fetchLink applies the filler policy, resolves with unbounded retry and
// hands the link over. Nothing is sent once the session is over.
func (o *Orchestrator) fetchLink(ctx context.Context, s Session, episode int, slot *Slot[link]) {
	episode = o.nextEpisode(ctx, s, episode)

	url, err := o.resolve(ctx, s, episode)
	if err != nil {
		log.Infof("abandoning link for episode %d: %v", episode, err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	slot.Send(link{episode: episode, url: url})
	log.Infof("episode %d link ready", episode)
}

// resolve retries the resolver every RetryDelay until it succeeds or ctx ends.
func (o *Orchestrator) resolve(ctx context.Context, s Session, episode int) (string, error) {
	req := provider.Request{
		SeriesID: s.SeriesID,
		MalID:    s.MalID,
		Episode:  episode,
		Title:    s.Title,
		Language: s.Language,
		Quality:  s.Quality,
		Track:    s.Track,
	}

	var url string
	err := retry.Do(
		func() error {
			resolved, err := o.deps.Resolver.Resolve(ctx, req)
			if err != nil {
				return err
			}
			url = resolved
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(o.cfg.Provider.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.WithTimer(o.clock),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warnf("resolving episode %d failed (attempt %d), retrying: %v", episode, n+1, err)
		}),
	)

	return url, err
}

// nextEpisode applies the filler policy of the series. It never moves past
// the final episode.
func (o *Orchestrator) nextEpisode(ctx context.Context, s Session, episode int) int {
	if o.deps.Fillers == nil || !override.Applies(o.cfg.Skip.Filler, o.lookupOverride(s.SeriesID).Filler) {
		return episode
	}

	next := SkipFillers(ctx, o.deps.Fillers, s.MalID, episode)
	if s.MaxEpisodes > 0 && next > s.MaxEpisodes {
		return s.MaxEpisodes
	}
	return next
}

func (o *Orchestrator) lookupOverride(seriesID int) override.Setting {
	if o.deps.Overrides == nil {
		return override.Setting{}
	}
	return o.deps.Overrides.Lookup(seriesID)
}

func (o *Orchestrator) fetchWindows(ctx context.Context, s Session, episode int) aniskip.Windows {
	if o.deps.Skips == nil {
		return aniskip.Windows{}
	}

	windows, err := o.deps.Skips.Fetch(ctx, s.MalID, episode, o.cfg.Skip.Precision)
	if err != nil {
		log.Warnf("skip windows for episode %d: %v", episode, err)
		o.printf("Failed to fetch AniSkip data: %v\n", err)
		return aniskip.Windows{}
	}
	return windows
}

// resume seeks to the saved position when the record belongs to episode and
// returns the position playback starts from.
func (o *Orchestrator) resume(ctx context.Context, p Controller, s Session, episode int) (float64, error) {
	first := !o.resumeShown
	o.resumeShown = true

	record, ok := o.deps.Progress.Get(s.SeriesID).Get()
	if !ok || record.Episode != episode || record.Position <= 0 {
		if first {
			o.printf("Starting from the beginning\n")
		}
		return 0, nil
	}

	o.printf("Resuming from - %s\n", style.Bold(util.FormatClock(record.Position)))
	if err := p.SeekAbsolute(ctx, record.Position); err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}
	return record.Position, nil
}

// waitAlive polls until the player answers. false means it never did.
func (o *Orchestrator) waitAlive(ctx context.Context, p Controller) (bool, error) {
	for i := 0; i < startupProbes; i++ {
		if alive, err := p.IsAlive(ctx); err == nil && alive {
			return true, nil
		}
		if err := o.sleep(ctx, o.cfg.Player.Tick); err != nil {
			return false, err
		}
	}

	log.Warnf("player did not answer after %d probes", startupProbes)
	return false, nil
}

// waitDuration polls until the file reports its duration. alive is false
// when the player went away meanwhile.
func (o *Orchestrator) waitDuration(ctx context.Context, p Controller) (float64, bool, error) {
	for {
		duration, err := p.GetProperty(ctx, "duration")
		if err == nil && duration > 0 {
			return duration, true, nil
		}
		if _, err := p.IsAlive(ctx); err != nil {
			return 0, false, nil
		}
		if err := o.sleep(ctx, o.cfg.Player.Tick); err != nil {
			return 0, false, err
		}
	}
}

func (o *Orchestrator) activity(s Session, episode int, position float64, paused bool) presence.Activity {
	return presence.Activity{
		Title:    s.Title,
		Episode:  episode,
		Episodes: s.MaxEpisodes,
		Cover:    s.Cover,
		Position: position,
		Paused:   paused,
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-o.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}
