package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	gosync "sync"
	"time"

	"github.com/samber/mo"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/aniskip"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/internal/sync"
	"github.com/yato-cli/yato/override"
	"github.com/yato-cli/yato/player"
	"github.com/yato-cli/yato/progress"
	"github.com/yato-cli/yato/provider"
)

var errPlayerGone = errors.New("dial unix: connection refused")

// fakeClock fires every timer at once and moves simulated time forward.
type fakeClock struct {
	mu  gosync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// script is what the player reports for one loaded file: one position per
// tick, then either end of file or a dead socket.
type script struct {
	positions []float64
	quit      bool
}

type seek struct {
	at time.Time
	to float64
}

// fakePlayer is only touched from the orchestrator goroutine.
type fakePlayer struct {
	clock    *fakeClock
	duration float64
	scripts  []script
	current  int
	tick     int
	onTick   func(tick int)

	loaded   []string
	seeks    []seek
	titles   []string
	chapters [][]player.Chapter
	closed   bool
}

func (p *fakePlayer) script() script {
	if p.current < len(p.scripts) {
		return p.scripts[p.current]
	}
	return script{quit: true}
}

func (p *fakePlayer) GetProperty(_ context.Context, name string) (float64, error) {
	switch name {
	case "duration":
		return p.duration, nil
	case "time-pos":
		return p.script().positions[p.tick-1], nil
	}
	return 0, fmt.Errorf("unexpected property %s", name)
}

func (p *fakePlayer) SeekAbsolute(_ context.Context, seconds float64) error {
	p.seeks = append(p.seeks, seek{at: p.clock.Now(), to: seconds})
	return nil
}

func (p *fakePlayer) HasActivePlayback(context.Context) (bool, error) {
	s := p.script()
	if p.tick < len(s.positions) {
		p.tick++
		if p.onTick != nil {
			p.onTick(p.tick)
		}
		return true, nil
	}
	if s.quit {
		return false, errPlayerGone
	}
	return false, nil
}

func (p *fakePlayer) IsAlive(context.Context) (bool, error)         { return true, nil }
func (p *fakePlayer) GetPausedStatus(context.Context) (bool, error) { return false, nil }

func (p *fakePlayer) LoadFile(_ context.Context, target string) error {
	p.loaded = append(p.loaded, target)
	p.current++
	p.tick = 0
	return nil
}

func (p *fakePlayer) SetChapters(_ context.Context, chapters []player.Chapter) error {
	p.chapters = append(p.chapters, chapters)
	return nil
}

func (p *fakePlayer) SetTitle(_ context.Context, title string) error {
	p.titles = append(p.titles, title)
	return nil
}

func (p *fakePlayer) Close() error {
	p.closed = true
	return nil
}

type fakeLauncher struct {
	player *fakePlayer
}

func (l *fakeLauncher) Launch(_ context.Context, url string) (Player, error) {
	l.player.loaded = append(l.player.loaded, url)
	return l.player, nil
}

// fakeResolver answers "url-<series>-<episode>". hook may replace the answer.
type fakeResolver struct {
	mu       gosync.Mutex
	requests []provider.Request
	hook     func(ctx context.Context, req provider.Request, call int) (url string, handled bool, err error)
}

func (r *fakeResolver) Resolve(ctx context.Context, req provider.Request) (string, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	call := 0
	for _, prev := range r.requests {
		if prev.SeriesID == req.SeriesID && prev.Episode == req.Episode {
			call++
		}
	}
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		if url, handled, err := hook(ctx, req, call); handled {
			return url, err
		}
	}
	return fmt.Sprintf("url-%d-%d", req.SeriesID, req.Episode), nil
}

func (r *fakeResolver) calls(episode int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, req := range r.requests {
		if req.Episode == episode {
			n++
		}
	}
	return n
}

type fakeSkips struct {
	windows aniskip.Windows
	err     error
}

func (s fakeSkips) Fetch(context.Context, int, int, int) (aniskip.Windows, error) {
	return s.windows, s.err
}

type fakeFillers struct {
	fillers map[int]bool
	err     error
}

func (f fakeFillers) IsFiller(_ context.Context, _ int, episode int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.fillers[episode], nil
}

type progressCall struct {
	id, progress int
}

type fakeTracker struct {
	mu        gosync.Mutex
	progress  []progressCall
	statuses  map[int]anilist.MediaListStatus
	scores    map[int]float64
	sequel    mo.Option[anilist.Media]
	updateErr error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{statuses: map[int]anilist.MediaListStatus{}, scores: map[int]float64{}}
}

func (t *fakeTracker) UpdateProgress(_ context.Context, id, progress int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.updateErr != nil {
		return t.updateErr
	}
	t.progress = append(t.progress, progressCall{id: id, progress: progress})
	return nil
}

func (t *fakeTracker) UpdateStatus(_ context.Context, id int, status anilist.MediaListStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.updateErr != nil {
		return t.updateErr
	}
	t.statuses[id] = status
	return nil
}

func (t *fakeTracker) UpdateScore(_ context.Context, id int, score float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.updateErr != nil {
		return t.updateErr
	}
	t.scores[id] = score
	return nil
}

func (t *fakeTracker) Sequel(context.Context, int) (mo.Option[anilist.Media], error) {
	return t.sequel, nil
}

// fakeProgress counts every upsert.
type fakeProgress struct {
	records map[int]progress.Record
	upserts []progress.Record
	saves   int
	saveErr error
}

func newFakeProgress(records ...progress.Record) *fakeProgress {
	p := &fakeProgress{records: map[int]progress.Record{}}
	for _, r := range records {
		p.records[r.SeriesID] = r
	}
	return p
}

func (p *fakeProgress) Get(id int) mo.Option[progress.Record] {
	r, ok := p.records[id]
	if !ok {
		return mo.None[progress.Record]()
	}
	return mo.Some(r)
}

func (p *fakeProgress) Upsert(r progress.Record) {
	p.upserts = append(p.upserts, r)
	p.records[r.SeriesID] = r
}

func (p *fakeProgress) Save() error {
	p.saves++
	return p.saveErr
}

type fakeOverrides map[int]override.Setting

func (f fakeOverrides) Lookup(id int) override.Setting {
	return f[id]
}

type fakePrompt struct {
	accept bool
	score  float64
	asked  []string
}

func (p *fakePrompt) Confirm(message string) (bool, error) {
	p.asked = append(p.asked, message)
	return p.accept, nil
}

func (p *fakePrompt) Score() (float64, error) {
	p.asked = append(p.asked, "score")
	return p.score, nil
}

type fakeQueue struct {
	pushed []sync.Mutation
}

func (q *fakeQueue) Push(m sync.Mutation) error {
	q.pushed = append(q.pushed, m)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Player: config.Player{
			Program:           "mpv",
			CompletionPercent: 85,
			PrefetchPercent:   70,
			Tick:              250 * time.Millisecond,
			SkipCooldown:      time.Second,
		},
		Skip: config.Skip{
			Opening:   true,
			Credits:   true,
			Recap:     true,
			Filler:    false,
			Precision: 2,
		},
		Provider: config.Provider{
			Language:   "english",
			Quality:    "best",
			Track:      "sub",
			RetryDelay: 3 * time.Second,
		},
	}
}

type fixture struct {
	clock    *fakeClock
	player   *fakePlayer
	resolver *fakeResolver
	tracker  *fakeTracker
	progress *fakeProgress
	prompt   *fakePrompt
	queue    *fakeQueue
	deps     Deps
}

func newFixture(scripts ...script) *fixture {
	clock := newFakeClock()
	f := &fixture{
		clock:    clock,
		player:   &fakePlayer{clock: clock, duration: 100, scripts: scripts},
		resolver: &fakeResolver{},
		tracker:  newFakeTracker(),
		progress: newFakeProgress(),
		prompt:   &fakePrompt{},
		queue:    &fakeQueue{},
	}

	f.deps = Deps{
		Launcher:  &fakeLauncher{player: f.player},
		Resolver:  f.resolver,
		Skips:     fakeSkips{},
		Tracker:   f.tracker,
		Progress:  f.progress,
		Overrides: fakeOverrides{},
		Prompt:    f.prompt,
		Queue:     f.queue,
		Clock:     clock,
		Output:    io.Discard,
	}
	return f
}

func testSession(episode, maxEpisodes int) Session {
	return Session{
		SeriesID:    100,
		MalID:       1000,
		Episode:     episode,
		MaxEpisodes: maxEpisodes,
		Title:       "Frieren",
		Language:    "english",
		Quality:     "best",
		Track:       "sub",
		Syncing:     true,
	}
}

func steady(position float64, ticks int) []float64 {
	positions := make([]float64, ticks)
	for i := range positions {
		positions[i] = position
	}
	return positions
}
