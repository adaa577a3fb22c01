// Package loam adapts a Loam document repository to the engine's catalog
// source port. A catalog directory holds one Markdown document per
// definition, with the definition in the YAML frontmatter; the Markdown
// body is free-form authoring notes and is not read.
//
// Kind is either explicit in the frontmatter or inferred from the first
// path segment, so the conventional layout needs no kind keys at all:
//
//	catalog/
//	  motions/breath.md
//	  expressions/happy.md
//	  sequences/delight.md
//	  reactions/praise.md
package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
)

// Source assembles a catalog from a Loam repository. Documents are merged
// over the built-in defaults, so a directory only needs to declare what it
// adds or overrides.
type Source struct {
	Repo *loam.TypedRepository[DefMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DefMetadata]) *Source {
	return &Source{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it as a
// catalog source.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog dir: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog dir %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[DefMetadata](repo)), nil
}

// Load reads every document, folds the definitions over the built-in
// defaults and validates the result.
func (s *Source) Load(ctx context.Context) (*catalog.Catalog, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	var file catalog.File
	seen := make(map[string]string)

	for _, doc := range docs {
		kind, err := resolveKind(doc.ID, doc.Data.Kind)
		if err != nil {
			return nil, err
		}
		name := definitionName(doc.ID, doc.Data)

		// Collision Detection
		key := kind + "/" + name
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("collision detected: %s %q is defined in both '%s' and '%s'", kind, name, existing, doc.ID)
		}
		seen[key] = doc.ID

		switch kind {
		case kindMotion:
			file.Motions = append(file.Motions, catalog.MotionSpec{
				Group:    name,
				Region:   doc.Data.Region,
				Rank:     doc.Data.Rank,
				Weight:   doc.Data.Weight,
				FadeIn:   doc.Data.FadeIn,
				FadeOut:  doc.Data.FadeOut,
				Duration: doc.Data.Duration,
			})

		case kindExpression:
			file.Expressions = append(file.Expressions, catalog.ExpressionSpec{
				Name:       name,
				Intensity:  doc.Data.Intensity,
				Rebound:    doc.Data.Rebound,
				Compatible: doc.Data.Compatible,
			})
			for _, other := range doc.Data.Conflicts {
				file.Conflicts = append(file.Conflicts, []string{name, other})
			}

		case kindSequence:
			steps, err := s.resolveSteps(ctx, doc.Data.Steps, nil)
			if err != nil {
				return nil, fmt.Errorf("sequence %q: %w", name, err)
			}
			file.Sequences = append(file.Sequences, catalog.SequenceSpec{
				Name:  name,
				Loop:  doc.Data.Loop,
				Steps: steps,
			})

		case kindReaction:
			file.Reactions = append(file.Reactions, catalog.ReactionSpec{
				Name:     name,
				Keywords: doc.Data.Keywords,
				Sequence: doc.Data.Sequence,
				Priority: doc.Data.Priority,
			})
		}
	}

	cat, err := file.Apply(catalog.Default())
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// resolveSteps recursively resolves polymorphic step definitions (inline
// maps or include strings naming another sequence document).
func (s *Source) resolveSteps(ctx context.Context, stepsRaw []any, visited map[string]bool) ([]catalog.StepSpec, error) {
	if visited == nil {
		visited = make(map[string]bool)
	}

	steps := make([]catalog.StepSpec, 0, len(stepsRaw))

	for _, item := range stepsRaw {
		switch v := item.(type) {
		case string:
			// Include Reference
			refID := trimExtension(v)
			if visited[refID] {
				return nil, fmt.Errorf("cycle detected in sequence includes: %s", refID)
			}

			// DFS Cycle Detection: Mark
			visited[refID] = true

			includedRaw, err := s.getSequenceSteps(ctx, refID)
			if err != nil {
				return nil, fmt.Errorf("failed to load included sequence '%s': %w", refID, err)
			}

			included, err := s.resolveSteps(ctx, includedRaw, visited)

			// DFS Cycle Detection: Unmark (backtrack)
			delete(visited, refID)

			if err != nil {
				return nil, err
			}
			steps = append(steps, included...)

		case map[string]any, map[any]any:
			// Inline Definition
			var step StepMeta
			if err := mapstructure.Decode(v, &step); err != nil {
				return nil, fmt.Errorf("failed to decode inline step: %w", err)
			}
			if step.Expression == "" {
				return nil, fmt.Errorf("inline step missing expression")
			}
			steps = append(steps, catalog.StepSpec{
				Expression: step.Expression,
				Weight:     step.Weight,
				PreDelay:   step.PreDelay,
				Hold:       step.Hold,
				BlendWith:  step.BlendWith,
				BlendRatio: step.BlendRatio,
			})

		default:
			return nil, fmt.Errorf("invalid step definition type: %T", v)
		}
	}

	return steps, nil
}

// getSequenceSteps fetches an included document's raw steps, accepting
// both a full path id and the bare name of a file under sequences/.
func (s *Source) getSequenceSteps(ctx context.Context, refID string) ([]any, error) {
	doc, err := s.Repo.Get(ctx, refID)
	if err != nil && !strings.Contains(refID, "/") {
		doc, err = s.Repo.Get(ctx, "sequences/"+refID)
	}
	if err != nil {
		return nil, err
	}

	kind, err := resolveKind(doc.ID, doc.Data.Kind)
	if err != nil {
		return nil, err
	}
	if kind != kindSequence {
		return nil, fmt.Errorf("included document '%s' is a %s, not a sequence", doc.ID, kind)
	}
	return doc.Data.Steps, nil
}

// Watch implements ports.Watchable.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	// Watch all relevant files (recursive) using the doublestar pattern
	// supported by Loam. Loam debounces rapid edits itself.
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				// Pass the changed id up the chain, respecting context
				// cancellation.
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

const (
	kindMotion     = "motion"
	kindExpression = "expression"
	kindSequence   = "sequence"
	kindReaction   = "reaction"
)

// resolveKind returns the definition kind, either explicit or inferred
// from the document's directory.
func resolveKind(docID, explicit string) (string, error) {
	switch explicit {
	case kindMotion, kindExpression, kindSequence, kindReaction:
		return explicit, nil
	case "":
		// Inferred below.
	default:
		return "", fmt.Errorf("document '%s': unknown kind %q", docID, explicit)
	}

	dir, _, found := strings.Cut(filepath.ToSlash(docID), "/")
	if found {
		switch dir {
		case "motions":
			return kindMotion, nil
		case "expressions":
			return kindExpression, nil
		case "sequences":
			return kindSequence, nil
		case "reactions":
			return kindReaction, nil
		}
	}
	return "", fmt.Errorf("document '%s': cannot determine kind; set kind or place the file under motions/, expressions/, sequences/ or reactions/", docID)
}

// definitionName picks the declared name, falling back to the file name.
func definitionName(docID string, meta DefMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	if meta.Group != "" {
		return meta.Group
	}
	return path.Base(trimExtension(docID))
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
