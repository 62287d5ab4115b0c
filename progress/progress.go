// Package progress stores where each series was left off, one record per series.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/log"
)

// Record is the saved position of one series.
type Record struct {
	SeriesID int `json:"anilist_id" jsonschema:"description=AniList id of the series."`
	// Episode is the episode Position belongs to.
	Episode  int     `json:"episode" jsonschema:"description=Episode the position belongs to."`
	Position float64 `json:"position" jsonschema:"description=Last observed playback position in seconds."`
	// Duration of the episode, zero in records written before it was kept.
	Duration float64 `json:"duration,omitempty" jsonschema:"description=Length of the episode in seconds."`
	// ProviderIDs maps a provider language to the provider's own id for the series.
	ProviderIDs map[string]string `json:"scraper_ids" jsonschema:"description=Provider specific series ids keyed by language."`
}

// Completed reports whether Position reached percent of the episode.
// Records without a duration are never complete.
func (r Record) Completed(percent float64) bool {
	if r.Duration <= 0 {
		return false
	}
	return r.Position/r.Duration*100 >= percent
}

// File is the on-disk layout.
type File struct {
	Entries []Record `json:"entries" jsonschema:"description=One record per series."`
}

// Store is the whole record file held in memory. It is read once by Load and
// rewritten in full by Save.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries []Record
}

// Load reads the store at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	store := &Store{path: path}

	data, err := filesystem.API().ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Infof("progress: %s does not exist yet", path)
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse progress file %s: %w", path, err)
	}

	store.entries = file.Entries
	log.Infof("progress: loaded %d records", len(store.entries))
	return store, nil
}

// Path is the file the store saves to.
func (s *Store) Path() string {
	return s.path
}

// Get returns the record of a series.
func (s *Store) Get(seriesID int) mo.Option[Record] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := lo.Find(s.entries, func(r Record) bool { return r.SeriesID == seriesID })
	return lo.Ternary(ok, mo.Some(record), mo.None[Record]())
}

// All returns a copy of every record in file order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.entries...)
}

// Upsert replaces the episode and position of the record for r.SeriesID,
// merging provider ids, or appends r when the series is new.
func (s *Store) Upsert(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, index, ok := lo.FindIndexOf(s.entries, func(e Record) bool { return e.SeriesID == r.SeriesID })
	if !ok {
		if r.ProviderIDs == nil {
			r.ProviderIDs = map[string]string{}
		}
		s.entries = append(s.entries, r)
		return
	}

	existing := &s.entries[index]
	existing.Episode = r.Episode
	existing.Position = r.Position
	existing.Duration = r.Duration
	if existing.ProviderIDs == nil {
		existing.ProviderIDs = map[string]string{}
	}
	for language, id := range r.ProviderIDs {
		existing.ProviderIDs[language] = id
	}
}

// Delete removes the record of a series and reports whether there was one.
func (s *Store) Delete(seriesID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.entries)
	s.entries = lo.Reject(s.entries, func(r Record, _ int) bool { return r.SeriesID == seriesID })
	return len(s.entries) != before
}

// Save rewrites the whole file.
func (s *Store) Save() error {
	s.mu.RLock()
	file := File{Entries: lo.Ternary(s.entries == nil, []Record{}, s.entries)}
	data, err := json.MarshalIndent(file, "", "  ")
	s.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := filesystem.WriteAtomic(s.path, data); err != nil {
		return fmt.Errorf("save progress file: %w", err)
	}
	return nil
}
