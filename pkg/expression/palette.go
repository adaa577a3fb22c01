package expression

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/observability"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

// Policy decides what happens to the members of a conflicting pair.
type Policy string

const (
	// PolicyPriority drops the lower-priority member of each pair; ties
	// keep both.
	PolicyPriority Policy = "priority"
	// PolicyBlend keeps all members and reports conflicts informationally.
	PolicyBlend Policy = "blend"
	// PolicyLatest behaves like blend; the caller decides what to replace.
	PolicyLatest Policy = "latest"
)

// ParsePolicy maps a free-form policy name to a Policy.
// Unknown names fall back to PolicyPriority.
func ParsePolicy(s string) Policy {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyBlend:
		return PolicyBlend
	case PolicyLatest:
		return PolicyLatest
	default:
		return PolicyPriority
	}
}

const (
	defaultMaxActive = 3
	defaultEpsilon   = 0.001
)

// Palette holds the weighted set of concurrently displayed expressions.
// Targets are what callers asked for; the displayed weights equal the
// resolved targets immediately, or trail them when smoothing is on. It is
// driven by the engine tick and is not safe for concurrent use.
type Palette struct {
	clock         *schedule.Clock
	logger        *slog.Logger
	catalog       *catalog.Catalog
	policy        Policy
	maxActive     int
	autoNormalize bool
	smoothing     float64
	epsilon       float64

	targets   map[string]domain.ExpressionWeight // as requested, post capacity eviction
	resolved  map[string]domain.ExpressionWeight // post conflict policy and normalization
	current   map[string]domain.ExpressionWeight // displayed
	conflicts []domain.ConflictPair
	dropped   []string

	emitter *observability.Emitter[domain.Selection]
}

// Option configures a Palette.
type Option func(*Palette)

// WithLogger sets the palette's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Palette) {
		if l != nil {
			p.logger = l
			p.emitter.SetLogger(l)
		}
	}
}

// WithClock shares the engine's virtual clock.
func WithClock(c *schedule.Clock) Option {
	return func(p *Palette) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithCatalog supplies the conflict table. Without a catalog no pair ever
// conflicts.
func WithCatalog(c *catalog.Catalog) Option {
	return func(p *Palette) { p.catalog = c }
}

// WithPolicy selects the conflict resolution policy.
func WithPolicy(policy Policy) Option {
	return func(p *Palette) { p.policy = ParsePolicy(string(policy)) }
}

// WithMaxActive caps concurrently targeted expressions. Exceeding the cap
// evicts the lowest-ranked targets outright.
func WithMaxActive(n int) Option {
	return func(p *Palette) {
		if n > 0 {
			p.maxActive = n
		}
	}
}

// WithAutoNormalize controls scaling when the resolved total exceeds 1.
// Default on.
func WithAutoNormalize(enabled bool) Option {
	return func(p *Palette) { p.autoNormalize = enabled }
}

// WithSmoothing sets the per-tick fractional step the displayed weights
// move toward their targets. Zero disables smoothing and applies targets
// immediately.
func WithSmoothing(step float64) Option {
	return func(p *Palette) { p.smoothing = domain.Clamp01(step) }
}

// WithEpsilon sets the weight below which a fading-out expression is
// deleted.
func WithEpsilon(eps float64) Option {
	return func(p *Palette) {
		if eps > 0 {
			p.epsilon = eps
		}
	}
}

// NewPalette creates an empty palette.
func NewPalette(opts ...Option) *Palette {
	p := &Palette{
		clock:         schedule.NewClock(),
		logger:        logging.NewNop(),
		policy:        PolicyPriority,
		maxActive:     defaultMaxActive,
		autoNormalize: true,
		epsilon:       defaultEpsilon,
		targets:       make(map[string]domain.ExpressionWeight),
		resolved:      make(map[string]domain.ExpressionWeight),
		current:       make(map[string]domain.ExpressionWeight),
	}
	p.emitter = observability.NewEmitter[domain.Selection](p.logger, "expression")
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Set replaces one expression's target weight. Weights are clamped; a
// weight of zero or less removes the target. Unknown names are accepted
// as-is, the catalog is advisory here.
func (p *Palette) Set(name string, weight float64, priority int) {
	name = key(name)
	if name == "" {
		return
	}
	if weight <= 0 {
		delete(p.targets, name)
	} else {
		p.targets[name] = domain.ExpressionWeight{Name: name, Weight: domain.Clamp01(weight), Priority: priority}
		p.suggestUnknown(name)
	}
	p.resolve()
	p.emitter.Flush()
}

// SetAll replaces the entire target set. Entries with non-positive
// weights are ignored; a later duplicate name overrides an earlier one.
func (p *Palette) SetAll(list []domain.ExpressionWeight) {
	p.targets = make(map[string]domain.ExpressionWeight, len(list))
	for _, w := range list {
		name := key(w.Name)
		if name == "" || w.Weight <= 0 {
			continue
		}
		p.targets[name] = domain.ExpressionWeight{Name: name, Weight: domain.Clamp01(w.Weight), Priority: w.Priority}
		p.suggestUnknown(name)
	}
	p.resolve()
	p.emitter.Flush()
}

// Remove clears one expression's target; the displayed weight ramps out
// under smoothing or disappears immediately without it.
func (p *Palette) Remove(name string) {
	p.Set(name, 0, 0)
}

// Clear removes every target.
func (p *Palette) Clear() {
	p.targets = make(map[string]domain.ExpressionWeight)
	p.resolve()
	p.emitter.Flush()
}

// Tick moves displayed weights one smoothing step toward their targets
// and buffers the fresh selection for the engine flush. Without smoothing
// the displayed weights already equal the targets and the tick only
// republishes.
func (p *Palette) Tick() {
	if p.smoothing > 0 {
		p.step()
	}
	p.publish()
}

// Selection returns the displayed weights plus the conflicts and drops
// from the last resolution. Weights are sorted by priority then weight
// then name.
func (p *Palette) Selection() domain.Selection {
	return p.selection()
}

// Targets returns the raw target set, sorted like Selection weights.
func (p *Palette) Targets() []domain.ExpressionWeight {
	out := make([]domain.ExpressionWeight, 0, len(p.targets))
	for _, w := range p.targets {
		out = append(out, w)
	}
	sortWeights(out)
	return out
}

// SetCatalog swaps the conflict table and re-resolves the current
// targets against it.
func (p *Palette) SetCatalog(c *catalog.Catalog) {
	p.catalog = c
	p.resolve()
	p.emitter.Flush()
}

// Subscribe registers a listener for selections; the returned func
// unsubscribes it.
func (p *Palette) Subscribe(fn func(domain.Selection)) func() {
	return p.emitter.Subscribe(fn)
}

// Flush delivers selections buffered during Tick.
func (p *Palette) Flush() { p.emitter.Flush() }

// Reset drops all targets and displayed weights without notifying.
func (p *Palette) Reset() {
	p.targets = make(map[string]domain.ExpressionWeight)
	p.resolved = make(map[string]domain.ExpressionWeight)
	p.current = make(map[string]domain.ExpressionWeight)
	p.conflicts = nil
	p.dropped = nil
	p.emitter.Drop()
}

// resolve recomputes the resolved targets: capacity eviction on the raw
// targets, conflict detection, the resolution policy, then normalization.
// Eviction is destructive; a conflict loser stays targeted and returns
// once its rival leaves.
func (p *Palette) resolve() {
	p.dropped = nil

	ordered := make([]domain.ExpressionWeight, 0, len(p.targets))
	for _, w := range p.targets {
		ordered = append(ordered, w)
	}
	sortWeights(ordered)
	for _, w := range ordered[min(len(ordered), p.maxActive):] {
		delete(p.targets, w.Name)
		p.dropped = append(p.dropped, w.Name)
		p.logger.Debug("expression evicted", "name", w.Name, "max_active", p.maxActive)
	}
	ordered = ordered[:min(len(ordered), p.maxActive)]

	p.conflicts = p.detect(ordered)

	p.resolved = make(map[string]domain.ExpressionWeight, len(ordered))
	for _, w := range ordered {
		p.resolved[w.Name] = w
	}
	if p.policy == PolicyPriority {
		for _, pair := range p.conflicts {
			a, okA := p.resolved[pair.A]
			b, okB := p.resolved[pair.B]
			if !okA || !okB || a.Priority == b.Priority {
				continue
			}
			loser := pair.A
			if b.Priority < a.Priority {
				loser = pair.B
			}
			delete(p.resolved, loser)
			p.dropped = append(p.dropped, loser)
			p.logger.Debug("conflict resolved", "pair", pair.A+"/"+pair.B, "dropped", loser)
		}
	}

	if p.autoNormalize {
		normalize(p.resolved)
	}

	if p.smoothing <= 0 {
		p.current = make(map[string]domain.ExpressionWeight, len(p.resolved))
		for name, w := range p.resolved {
			p.current[name] = w
		}
	}
	p.publish()
}

// detect reports each conflicting unordered pair among the active set
// exactly once, in canonical order.
func (p *Palette) detect(active []domain.ExpressionWeight) []domain.ConflictPair {
	if p.catalog == nil {
		return nil
	}
	var pairs []domain.ConflictPair
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if p.catalog.InConflict(active[i].Name, active[j].Name) {
				pairs = append(pairs, domain.NewConflictPair(active[i].Name, active[j].Name))
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// step is the first-order low-pass: each displayed weight moves a
// fraction of its remaining distance toward the target. Absent targets
// pull toward zero and are deleted below epsilon.
func (p *Palette) step() {
	for name, tgt := range p.resolved {
		cur, ok := p.current[name]
		if !ok {
			cur = domain.ExpressionWeight{Name: name}
		}
		cur.Weight += (tgt.Weight - cur.Weight) * p.smoothing
		cur.Priority = tgt.Priority
		p.current[name] = cur
	}
	for name, cur := range p.current {
		if _, ok := p.resolved[name]; ok {
			continue
		}
		cur.Weight += (0 - cur.Weight) * p.smoothing
		if cur.Weight < p.epsilon {
			delete(p.current, name)
			continue
		}
		p.current[name] = cur
	}
}

func (p *Palette) publish() {
	p.emitter.Emit(p.selection())
}

func (p *Palette) selection() domain.Selection {
	sel := domain.Selection{At: p.clock.Now()}
	for _, w := range p.current {
		sel.Weights = append(sel.Weights, w)
	}
	sortWeights(sel.Weights)
	sel.Conflicts = append([]domain.ConflictPair(nil), p.conflicts...)
	sel.Dropped = append([]string(nil), p.dropped...)
	return sel
}

func (p *Palette) suggestUnknown(name string) {
	if p.catalog == nil {
		return
	}
	if _, ok := p.catalog.Expression(name); ok {
		return
	}
	if near, ok := p.catalog.SuggestExpression(name); ok {
		p.logger.Warn("unknown expression", "name", name, "did_you_mean", near)
	}
}

// normalize scales every weight by the total when the total exceeds 1.
// Applying it twice changes nothing: after one pass the total is exactly
// 1 and no longer exceeds it.
func normalize(weights map[string]domain.ExpressionWeight) {
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}
	if total <= 1 {
		return
	}
	for name, w := range weights {
		w.Weight /= total
		weights[name] = w
	}
}

// sortWeights orders by priority desc, weight desc, name asc.
func sortWeights(list []domain.ExpressionWeight) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		if list[i].Weight != list[j].Weight {
			return list[i].Weight > list[j].Weight
		}
		return list[i].Name < list[j].Name
	})
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
