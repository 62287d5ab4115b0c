// Package override keeps per-series exceptions to the global skip policy.
//
// A set flag does not mean "skip": it means "do the opposite of the config"
// for that category and series.
package override

import (
	"sort"
	"sync"

	"github.com/metafates/gache"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/log"
)

// Setting holds the inverted categories of one series.
type Setting struct {
	Intro  bool `json:"intro"`
	Outro  bool `json:"outro"`
	Recap  bool `json:"recap"`
	Filler bool `json:"filler"`
}

// Any reports whether any category is inverted.
func (s Setting) Any() bool {
	return s.Intro || s.Outro || s.Recap || s.Filler
}

// Applies resolves a category's effective policy: the global default unless
// the series overrides it.
func Applies(global, override bool) bool {
	if override {
		return !global
	}
	return global
}

// Store persists settings keyed by AniList id.
type Store struct {
	cache *gache.Cache[map[int]Setting]
	mu    sync.Mutex
}

// Open returns the store backed by the file at path.
func Open(path string) *Store {
	return &Store{
		cache: gache.New[map[int]Setting](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (s *Store) load() (map[int]Setting, error) {
	settings, expired, err := s.cache.Get()
	if err != nil {
		return nil, err
	}
	if expired || settings == nil {
		return make(map[int]Setting), nil
	}
	return settings, nil
}

// Get returns the setting of a series, the zero Setting when none is stored.
func (s *Store) Get(seriesID int) (Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return Setting{}, err
	}
	return settings[seriesID], nil
}

// Lookup is Get for callers that treat an unreadable store as "no override".
func (s *Store) Lookup(seriesID int) Setting {
	setting, err := s.Get(seriesID)
	if err != nil {
		log.Warnf("override: read %d: %v", seriesID, err)
	}
	return setting
}

// Set stores setting, removing the entry when no category is inverted.
func (s *Store) Set(seriesID int, setting Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return err
	}

	if setting.Any() {
		settings[seriesID] = setting
	} else {
		delete(settings, seriesID)
	}
	return s.cache.Set(settings)
}

// Delete removes the setting of a series and reports whether one existed.
func (s *Store) Delete(seriesID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return false, err
	}

	if _, ok := settings[seriesID]; !ok {
		return false, nil
	}
	delete(settings, seriesID)
	return true, s.cache.Set(settings)
}

// Entry pairs a series with its setting.
type Entry struct {
	SeriesID int
	Setting  Setting
}

// All lists every stored setting ordered by series id.
func (s *Store) All() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(settings))
	for id, setting := range settings {
		entries = append(entries, Entry{SeriesID: id, Setting: setting})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SeriesID < entries[j].SeriesID })
	return entries, nil
}
