package middleware

import (
	"context"
	"regexp"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

type filterMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewFilterMiddleware creates a middleware that drops expression targets
// whose names match the patterns before snapshots are persisted. Hosts
// use it to keep transient or private expressions out of storage. Loads
// pass through untouched.
func NewFilterMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &filterMiddleware{next: next, patterns: patterns}
	}
}

func (m *filterMiddleware) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	// Clone so the engine's in-memory snapshot keeps every target.
	cloned := snap.Clone()
	cloned.Expressions = filterExpressions(cloned.Expressions, m.patterns)
	return m.next.Save(ctx, id, cloned)
}

func (m *filterMiddleware) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, id)
}

func (m *filterMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *filterMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func filterExpressions(list []domain.ExpressionWeight, patterns []*regexp.Regexp) []domain.ExpressionWeight {
	out := list[:0]
	for _, w := range list {
		if matchesAny(w.Name, patterns) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func matchesAny(name string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
