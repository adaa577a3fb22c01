// Package catalog models the external library of named motions,
// expressions, conflict pairs, sequences and reaction rules the engine
// arbitrates over. The engine never invents names; everything it plays
// comes from a Catalog, whether built in, loaded from a YAML file or
// served by a document repository.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// ErrNotFound is returned when a named definition does not exist.
var ErrNotFound = errors.New("catalog: not found")

// DefaultIntensity is assumed for expressions the catalog does not know.
const DefaultIntensity = 0.5

// MotionDef describes one motion group.
type MotionDef struct {
	Group    string
	Region   domain.Region
	Rank     domain.Rank
	Weight   float64
	FadeIn   time.Duration
	FadeOut  time.Duration
	Duration time.Duration
}

// ExpressionDef describes one facial expression.
type ExpressionDef struct {
	Name      string
	Intensity float64
	// Rebound names the brief intermediate expression used when falling
	// from this expression back to neutral.
	Rebound string
	// Compatible lists expressions this one may replace without waiting
	// out the minimum switch interval.
	Compatible []string
}

// CompatibleWith reports whether name is on the compatibility list.
func (d ExpressionDef) CompatibleWith(name string) bool {
	for _, c := range d.Compatible {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// SequenceStep is one timed step of a sequence.
type SequenceStep struct {
	Expression string
	Weight     float64
	PreDelay   time.Duration
	Hold       time.Duration
	// BlendWith optionally blends a secondary expression at BlendRatio.
	BlendWith  string
	BlendRatio float64
}

// Sequence is an ordered list of timed expression steps.
type Sequence struct {
	Name  string
	Steps []SequenceStep
	Loop  bool
}

// ReactionRule binds a keyword set to a sequence. Rules are evaluated in
// priority order (higher first); the first keyword hit wins.
type ReactionRule struct {
	Name     string
	Keywords []string
	Sequence string
	Priority int
}

// Match returns the first keyword contained in the lowercased text.
func (r ReactionRule) Match(lower string) (string, bool) {
	for _, kw := range r.Keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

// Catalog is the full definition set. Conflict storage is symmetric by
// construction: AddConflict records both directions.
type Catalog struct {
	motions     map[string]MotionDef
	expressions map[string]ExpressionDef
	conflicts   map[string]map[string]struct{}
	sequences   map[string]Sequence
	reactions   []ReactionRule
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		motions:     make(map[string]MotionDef),
		expressions: make(map[string]ExpressionDef),
		conflicts:   make(map[string]map[string]struct{}),
		sequences:   make(map[string]Sequence),
	}
}

// AddMotion registers a motion group. An empty region is derived from the
// group name; the weight defaults to 1.
func (c *Catalog) AddMotion(def MotionDef) {
	def.Group = strings.TrimSpace(def.Group)
	if def.Group == "" {
		return
	}
	if def.Region == "" {
		def.Region = domain.GuessRegion(def.Group)
	}
	def.Rank = def.Rank.Clamp()
	if def.Weight <= 0 {
		def.Weight = 1
	}
	def.Weight = domain.Clamp01(def.Weight)
	c.motions[strings.ToLower(def.Group)] = def
}

// Motion looks up a motion definition by group name.
func (c *Catalog) Motion(group string) (MotionDef, bool) {
	def, ok := c.motions[strings.ToLower(strings.TrimSpace(group))]
	return def, ok
}

// RegionOf resolves a motion group to its body region. Known groups use
// their declared region; unknown ones fall back to the name heuristic and
// finally to RegionFull. The mapping is total.
func (c *Catalog) RegionOf(group string) domain.Region {
	if def, ok := c.Motion(group); ok {
		return def.Region
	}
	return domain.GuessRegion(group)
}

// AddExpression registers an expression definition.
func (c *Catalog) AddExpression(def ExpressionDef) {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return
	}
	if def.Intensity <= 0 {
		def.Intensity = DefaultIntensity
	}
	def.Intensity = domain.Clamp01(def.Intensity)
	c.expressions[strings.ToLower(def.Name)] = def
}

// Expression looks up an expression definition. Unknown names return a
// default-intensity definition and ok=false, so callers can proceed while
// logging the miss.
func (c *Catalog) Expression(name string) (ExpressionDef, bool) {
	def, ok := c.expressions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ExpressionDef{Name: name, Intensity: DefaultIntensity}, false
	}
	return def, true
}

// AddConflict records that a and b cannot coexist. The table is symmetric;
// both directions are stored. Self-conflicts are ignored.
func (c *Catalog) AddConflict(a, b string) {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" || a == b {
		return
	}
	if c.conflicts[a] == nil {
		c.conflicts[a] = make(map[string]struct{})
	}
	if c.conflicts[b] == nil {
		c.conflicts[b] = make(map[string]struct{})
	}
	c.conflicts[a][b] = struct{}{}
	c.conflicts[b][a] = struct{}{}
}

// InConflict reports whether a and b are recorded as incompatible.
func (c *Catalog) InConflict(a, b string) bool {
	set, ok := c.conflicts[strings.ToLower(strings.TrimSpace(a))]
	if !ok {
		return false
	}
	_, hit := set[strings.ToLower(strings.TrimSpace(b))]
	return hit
}

// ConflictsOf returns the sorted set of names conflicting with name.
func (c *Catalog) ConflictsOf(name string) []string {
	set := c.conflicts[strings.ToLower(strings.TrimSpace(name))]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddSequence registers a sequence.
func (c *Catalog) AddSequence(seq Sequence) {
	seq.Name = strings.TrimSpace(seq.Name)
	if seq.Name == "" {
		return
	}
	c.sequences[strings.ToLower(seq.Name)] = seq
}

// Sequence looks up a sequence by name.
func (c *Catalog) Sequence(name string) (Sequence, error) {
	seq, ok := c.sequences[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Sequence{}, fmt.Errorf("sequence %q: %w", name, ErrNotFound)
	}
	return seq, nil
}

// AddReaction registers a reaction rule; rules keep a stable order sorted
// by priority (higher first).
func (c *Catalog) AddReaction(rule ReactionRule) {
	if rule.Name == "" || len(rule.Keywords) == 0 {
		return
	}
	c.reactions = append(c.reactions, rule)
	sort.SliceStable(c.reactions, func(i, j int) bool {
		return c.reactions[i].Priority > c.reactions[j].Priority
	})
}

// ReactionFor matches free text, case-insensitively, against the rules in
// priority order. The first keyword hit wins.
func (c *Catalog) ReactionFor(text string) (ReactionRule, string, bool) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return ReactionRule{}, "", false
	}
	for _, rule := range c.reactions {
		if kw, ok := rule.Match(lower); ok {
			return rule, kw, true
		}
	}
	return ReactionRule{}, "", false
}

// Motions returns all motion definitions sorted by group.
func (c *Catalog) Motions() []MotionDef {
	out := make([]MotionDef, 0, len(c.motions))
	for _, def := range c.motions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// Expressions returns all expression definitions sorted by name.
func (c *Catalog) Expressions() []ExpressionDef {
	out := make([]ExpressionDef, 0, len(c.expressions))
	for _, def := range c.expressions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Sequences returns all sequences sorted by name.
func (c *Catalog) Sequences() []Sequence {
	out := make([]Sequence, 0, len(c.sequences))
	for _, seq := range c.sequences {
		out = append(out, seq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reactions returns the rules in evaluation order.
func (c *Catalog) Reactions() []ReactionRule {
	out := make([]ReactionRule, len(c.reactions))
	copy(out, c.reactions)
	return out
}

// ConflictPairs returns every conflicting pair once, in canonical order.
func (c *Catalog) ConflictPairs() []domain.ConflictPair {
	seen := make(map[domain.ConflictPair]struct{})
	for a, set := range c.conflicts {
		for b := range set {
			seen[domain.NewConflictPair(a, b)] = struct{}{}
		}
	}
	out := make([]domain.ConflictPair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
