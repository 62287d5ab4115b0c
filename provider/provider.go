// Package provider turns an episode of a series into a playable stream URL.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrLanguageNotSupported is wrapped by the ResolutionError returned for an
// unregistered language.
var ErrLanguageNotSupported = errors.New("language not supported")

// Request describes the episode to resolve.
type Request struct {
	SeriesID int
	MalID    int
	Episode  int
	Title    string
	Language string
	Quality  string
	Track    string
}

// Resolver returns a playable URL for a request.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Resolve(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ResolutionError reports that no URL could be produced for an episode.
type ResolutionError struct {
	Language string
	Episode  int
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve episode %d (%s): %v", e.Episode, e.Language, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Registry dispatches requests to the resolver registered for their language.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register binds resolver to language, replacing any previous binding.
func (r *Registry) Register(language string, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[normalize(language)] = resolver
}

// Languages lists registered languages in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]string, 0, len(r.resolvers))
	for language := range r.resolvers {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

// Resolve implements Resolver. Every failure is a *ResolutionError.
func (r *Registry) Resolve(ctx context.Context, req Request) (string, error) {
	r.mu.RLock()
	resolver, ok := r.resolvers[normalize(req.Language)]
	r.mu.RUnlock()

	if !ok {
		return "", &ResolutionError{Language: req.Language, Episode: req.Episode, Err: ErrLanguageNotSupported}
	}

	url, err := resolver.Resolve(ctx, req)
	if err != nil {
		var resolutionErr *ResolutionError
		if errors.As(err, &resolutionErr) {
			return "", err
		}
		return "", &ResolutionError{Language: req.Language, Episode: req.Episode, Err: err}
	}

	if strings.TrimSpace(url) == "" {
		return "", &ResolutionError{Language: req.Language, Episode: req.Episode, Err: errors.New("empty url")}
	}

	return url, nil
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
