package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
)

// Source implements ports.CatalogSource from a catalog held in memory.
// Set swaps the catalog and notifies watchers, which makes hot-reload
// flows testable without a filesystem.
type Source struct {
	mu       sync.Mutex
	cat      *catalog.Catalog
	watchers []chan string
}

// NewSource creates a source serving the given catalog. A nil catalog
// falls back to the built-in defaults.
func NewSource(cat *catalog.Catalog) *Source {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Source{cat: cat}
}

// NewSourceFromBytes parses YAML catalog documents, each merged over the
// previous one starting from an empty catalog.
func NewSourceFromBytes(docs ...[]byte) (*Source, error) {
	cat := catalog.New()
	for i, doc := range docs {
		next, err := catalog.Parse(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		for _, m := range next.Motions() {
			cat.AddMotion(m)
		}
		for _, e := range next.Expressions() {
			cat.AddExpression(e)
		}
		for _, p := range next.ConflictPairs() {
			cat.AddConflict(p.A, p.B)
		}
		for _, s := range next.Sequences() {
			cat.AddSequence(s)
		}
		for _, r := range next.Reactions() {
			cat.AddReaction(r)
		}
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &Source{cat: cat}, nil
}

// Load returns the current catalog.
func (s *Source) Load(ctx context.Context) (*catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat, nil
}

// Set replaces the served catalog and notifies watchers.
func (s *Source) Set(cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	s.mu.Lock()
	watchers := make([]chan string, len(s.watchers))
	copy(watchers, s.watchers)
	s.cat = cat
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- "catalog":
		default:
		}
	}
}

// Watch emits an id whenever Set replaces the catalog. The channel closes
// when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
