// Package sync queues tracker updates that failed during a session and
// replays them on a later start.
package sync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/log"
)

// Action names the tracker call a Mutation replays.
type Action string

const (
	ActionProgress Action = "progress"
	ActionStatus   Action = "status"
	ActionScore    Action = "score"
)

// Mutation is one queued tracker call.
type Mutation struct {
	Timestamp int64                   `json:"timestamp"`
	MediaID   int                     `json:"media_id"`
	Action    Action                  `json:"action"`
	Progress  int                     `json:"progress,omitempty"`
	Status    anilist.MediaListStatus `json:"status,omitempty"`
	Score     float64                 `json:"score,omitempty"`
}

// Tracker is the subset of the AniList client mutations are replayed against.
type Tracker interface {
	UpdateProgress(ctx context.Context, id, progress int) error
	UpdateStatus(ctx context.Context, id int, status anilist.MediaListStatus) error
	UpdateScore(ctx context.Context, id int, score float64) error
}

// mu serializes file access between Push and the rewrite at the end of Reconcile.
var mu sync.Mutex

// Queue is an append-only JSON lines file.
type Queue struct {
	Path string
	// Attempts per mutation during Reconcile.
	Attempts uint
	// Delay is the base of the exponential backoff between attempts.
	Delay time.Duration
}

// NewQueue returns a queue at path with the default replay policy.
func NewQueue(path string) *Queue {
	return &Queue{Path: path, Attempts: 3, Delay: 100 * time.Millisecond}
}

// Push appends m, stamping it with the current time when unset.
func (q *Queue) Push(m Mutation) error {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().Unix()
	}

	line, err := json.Marshal(m)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	if err := filesystem.API().MkdirAll(filepath.Dir(q.Path), os.ModePerm); err != nil {
		return err
	}

	f, err := filesystem.API().OpenFile(q.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// Pending reads every queued mutation. Undecodable lines are logged and dropped.
func (q *Queue) Pending() ([]Mutation, error) {
	mu.Lock()
	defer mu.Unlock()
	return q.pending()
}

func (q *Queue) pending() ([]Mutation, error) {
	data, err := filesystem.API().ReadFile(q.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mutations []Mutation
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var m Mutation
		if err := json.Unmarshal(line, &m); err != nil {
			log.Warnf("sync: dropping malformed queue line: %v", err)
			continue
		}
		mutations = append(mutations, m)
	}

	return mutations, scanner.Err()
}

// rewrite replaces the file with remaining followed by whatever was pushed
// after the first seen mutations were read.
func (q *Queue) rewrite(seen int, remaining []Mutation) error {
	mu.Lock()
	defer mu.Unlock()

	current, err := q.pending()
	if err != nil {
		return err
	}
	mutations := remaining
	if len(current) > seen {
		mutations = append(mutations, current[seen:]...)
	}

	var buf bytes.Buffer
	for _, m := range mutations {
		line, err := json.Marshal(m)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return filesystem.WriteAtomic(q.Path, buf.Bytes())
}

func apply(ctx context.Context, tracker Tracker, m Mutation) error {
	switch m.Action {
	case ActionProgress:
		return tracker.UpdateProgress(ctx, m.MediaID, m.Progress)
	case ActionStatus:
		return tracker.UpdateStatus(ctx, m.MediaID, m.Status)
	case ActionScore:
		return tracker.UpdateScore(ctx, m.MediaID, m.Score)
	default:
		return retry.Unrecoverable(fmt.Errorf("unknown action %q", m.Action))
	}
}

// Reconcile replays every pending mutation in order. Mutations that still
// fail stay queued; the rest are removed. It returns how many were replayed.
func (q *Queue) Reconcile(ctx context.Context, tracker Tracker) (int, error) {
	mutations, err := q.Pending()
	if err != nil || len(mutations) == 0 {
		return 0, err
	}

	log.Infof("sync: replaying %d queued tracker updates", len(mutations))

	var (
		remaining []Mutation
		errs      *multierror.Error
	)

	for _, m := range mutations {
		err := retry.Do(
			func() error { return apply(ctx, tracker, m) },
			retry.Context(ctx),
			retry.Attempts(q.Attempts),
			retry.Delay(q.Delay),
			retry.MaxJitter(q.Delay),
			retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("media %d %s: %w", m.MediaID, m.Action, err))
			if known(m.Action) {
				remaining = append(remaining, m)
			} else {
				log.Warnf("sync: dropping mutation with unknown action %q", m.Action)
			}
		}
	}

	if err := q.rewrite(len(mutations), remaining); err != nil {
		errs = multierror.Append(errs, err)
	}

	replayed := len(mutations) - len(remaining)
	log.Infof("sync: replayed %d, %d still pending", replayed, len(remaining))
	return replayed, errs.ErrorOrNil()
}

func known(action Action) bool {
	switch action {
	case ActionProgress, ActionStatus, ActionScore:
		return true
	default:
		return false
	}
}
