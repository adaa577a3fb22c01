package emotion

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/observability"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

// Tunables for the inertia policy. Every one can be overridden by an
// Option.
const (
	DefaultMinInterval      = 2 * time.Second
	DefaultMomentumDecay    = 0.25 // intensity units per second
	DefaultReboundThreshold = 0.7
	DefaultReboundHold      = 400 * time.Millisecond
	DefaultNeutral          = "neutral"
)

// Controller owns the emotional state and the sequencer. Emotion switches
// pass the inertia policy; sequences run as scheduled events on the
// engine's virtual clock. It is driven by the engine tick and is not safe
// for concurrent use.
type Controller struct {
	clock   *schedule.Clock
	sched   *schedule.Scheduler
	logger  *slog.Logger
	catalog *catalog.Catalog
	avatar  ports.Avatar

	minInterval      time.Duration
	decay            float64
	reboundThreshold float64
	reboundHold      time.Duration
	neutral          string

	state  domain.EmotionState
	run    *run
	settle *schedule.Event

	changes   *observability.Emitter[domain.EmotionChange]
	reactions *observability.Emitter[domain.Reaction]
	sequences *observability.Emitter[domain.SequenceEvent]
}

// run is one playing sequence. pending is whichever timer is outstanding
// for it, the pre-delay or the hold.
type run struct {
	seq        catalog.Sequence
	step       int
	looped     bool
	pending    *schedule.Event
	onComplete func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
			c.changes.SetLogger(l)
			c.reactions.SetLogger(l)
			c.sequences.SetLogger(l)
		}
	}
}

// WithCatalog supplies expression intensities, rebounds, sequences and
// reaction rules.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Controller) {
		if cat != nil {
			c.catalog = cat
		}
	}
}

// WithAvatar forwards committed expressions and sequence steps to the
// rendering sink.
func WithAvatar(av ports.Avatar) Option {
	return func(c *Controller) { c.avatar = av }
}

// WithMinInterval sets the minimum time between committed emotion changes.
func WithMinInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.minInterval = d
		}
	}
}

// WithMomentumDecay sets the linear momentum decay rate per second.
func WithMomentumDecay(perSecond float64) Option {
	return func(c *Controller) {
		if perSecond >= 0 {
			c.decay = perSecond
		}
	}
}

// WithReboundThreshold sets the intensity at and above which a falling
// expression routes through its rebound before settling at neutral.
func WithReboundThreshold(v float64) Option {
	return func(c *Controller) { c.reboundThreshold = domain.Clamp01(v) }
}

// WithReboundHold sets how long the rebound expression is held.
func WithReboundHold(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.reboundHold = d
		}
	}
}

// WithNeutral names the resting expression.
func WithNeutral(name string) Option {
	return func(c *Controller) {
		if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
			c.neutral = n
		}
	}
}

// NewController creates a controller resting at neutral. A nil scheduler
// gets a private one, useful only for tests; the engine shares its own so
// sequence timers ride the same virtual clock.
func NewController(sched *schedule.Scheduler, opts ...Option) *Controller {
	if sched == nil {
		sched = schedule.New(schedule.NewClock())
	}
	c := &Controller{
		clock:            sched.Clock(),
		sched:            sched,
		logger:           logging.NewNop(),
		catalog:          catalog.Default(),
		minInterval:      DefaultMinInterval,
		decay:            DefaultMomentumDecay,
		reboundThreshold: DefaultReboundThreshold,
		reboundHold:      DefaultReboundHold,
		neutral:          DefaultNeutral,
	}
	c.changes = observability.NewEmitter[domain.EmotionChange](c.logger, "emotion")
	c.reactions = observability.NewEmitter[domain.Reaction](c.logger, "reaction")
	c.sequences = observability.NewEmitter[domain.SequenceEvent](c.logger, "sequence")
	for _, opt := range opts {
		opt(c)
	}
	c.state.Current = c.neutral
	return c
}

// SetEmotionSmart attempts an emotion change under the inertia policy.
// Inside the minimum interval the change is rejected unless momentum has
// decayed below the candidate's base intensity or the candidate is on the
// current expression's compatibility list. Returns whether the change was
// committed.
func (c *Controller) SetEmotionSmart(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	now := c.clock.Now()
	def, known := c.catalog.Expression(name)
	if !known {
		if near, ok := c.catalog.SuggestExpression(name); ok {
			c.logger.Warn("unknown expression", "name", name, "did_you_mean", near)
		}
	}

	reason := "elapsed"
	if elapsed := now - c.state.ChangedAt; c.state.Current != "" && elapsed < c.minInterval {
		momentum := c.state.MomentumAt(now, c.decay)
		current, _ := c.catalog.Expression(c.state.Current)
		switch {
		case momentum < def.Intensity:
			reason = "momentum"
		case current.CompatibleWith(name):
			reason = "compatible"
		default:
			c.logger.Debug("emotion change rejected",
				"from", c.state.Current, "to", name,
				"momentum", momentum, "elapsed", elapsed)
			c.changes.Emit(domain.EmotionChange{
				Expression: name, Intensity: def.Intensity,
				Committed: false, Reason: "inertia", At: now,
			})
			c.Flush()
			return false
		}
	}
	c.commit(name, def.Intensity, reason, now)
	c.Flush()
	return true
}

// Play starts a sequence, cancelling any sequence already running and any
// pending return to neutral. onComplete may be nil; it fires only on
// natural completion, never on looping or cancellation.
func (c *Controller) Play(seq catalog.Sequence, onComplete func()) {
	if len(seq.Steps) == 0 {
		c.logger.Debug("empty sequence ignored", "sequence", seq.Name)
		return
	}
	c.CancelSequence()
	c.cancelSettle()
	c.run = &run{seq: seq, step: -1, onComplete: onComplete}
	c.scheduleStep(0)
	c.logger.Debug("sequence started", "sequence", seq.Name, "steps", len(seq.Steps), "loop", seq.Loop)
}

// PlayNamed plays a catalog sequence by name.
func (c *Controller) PlayNamed(name string, onComplete func()) error {
	seq, err := c.catalog.Sequence(name)
	if err != nil {
		return fmt.Errorf("play sequence: %w", err)
	}
	c.Play(seq, onComplete)
	return nil
}

// React matches free text against the reaction table and plays the bound
// sequence. The first keyword hit of the highest-priority rule wins; no
// match is a no-op. Returns whether a sequence was started.
func (c *Controller) React(text string) bool {
	rule, keyword, ok := c.catalog.ReactionFor(text)
	if !ok {
		return false
	}
	c.reactions.Emit(domain.Reaction{
		Rule: rule.Name, Keyword: keyword, Sequence: rule.Sequence, At: c.clock.Now(),
	})
	if err := c.PlayNamed(rule.Sequence, nil); err != nil {
		c.logger.Warn("reaction sequence missing", "rule", rule.Name, "sequence", rule.Sequence, "error", err)
		c.Flush()
		return false
	}
	c.logger.Debug("reaction triggered", "rule", rule.Name, "keyword", keyword, "sequence", rule.Sequence)
	c.Flush()
	return true
}

// CancelSequence stops the running sequence without completing it.
func (c *Controller) CancelSequence() {
	if c.run == nil {
		return
	}
	c.run.pending.Cancel()
	c.logger.Debug("sequence cancelled", "sequence", c.run.seq.Name, "step", c.run.step)
	c.run = nil
}

// State returns the current emotional record.
func (c *Controller) State() domain.EmotionState { return c.state }

// Momentum returns the decayed momentum as of now.
func (c *Controller) Momentum() float64 {
	return c.state.MomentumAt(c.clock.Now(), c.decay)
}

// Sequence reports the running sequence and its last applied step, -1
// before the first step lands.
func (c *Controller) Sequence() (name string, step int, ok bool) {
	if c.run == nil {
		return "", 0, false
	}
	return c.run.seq.Name, c.run.step, true
}

// Restore replaces the emotional record, cancelling any running sequence
// and pending settle.
func (c *Controller) Restore(state domain.EmotionState) {
	c.CancelSequence()
	c.cancelSettle()
	if state.Current == "" {
		state.Current = c.neutral
	}
	c.state = state
}

// SetCatalog swaps the definition set. A running sequence keeps the
// steps it was started with.
func (c *Controller) SetCatalog(cat *catalog.Catalog) {
	if cat != nil {
		c.catalog = cat
	}
}

// SubscribeChanges registers a listener for emotion change outcomes; the
// returned func unsubscribes it.
func (c *Controller) SubscribeChanges(fn func(domain.EmotionChange)) func() {
	return c.changes.Subscribe(fn)
}

// SubscribeReactions registers a listener for matched reactions.
func (c *Controller) SubscribeReactions(fn func(domain.Reaction)) func() {
	return c.reactions.Subscribe(fn)
}

// SubscribeSequences registers a listener for sequence progress. A step
// of -1 marks completion.
func (c *Controller) SubscribeSequences(fn func(domain.SequenceEvent)) func() {
	return c.sequences.Subscribe(fn)
}

// Flush delivers events buffered by scheduled steps.
func (c *Controller) Flush() {
	c.changes.Flush()
	c.reactions.Flush()
	c.sequences.Flush()
}

// Reset cancels all scheduled work and returns the state to neutral
// without notifying.
func (c *Controller) Reset() {
	c.CancelSequence()
	c.cancelSettle()
	c.state = domain.EmotionState{Current: c.neutral}
	c.changes.Drop()
	c.reactions.Drop()
	c.sequences.Drop()
}

// commit records the change, forwards it to the avatar and cancels any
// pending settle; the new emotion supersedes the return to neutral.
func (c *Controller) commit(name string, intensity float64, reason string, now time.Duration) {
	c.cancelSettle()
	c.state.Commit(name, intensity, now)
	if c.avatar != nil {
		c.avatar.SetExpression(name, domain.ExpressionOptions{Weight: intensity})
	}
	c.changes.Emit(domain.EmotionChange{
		Expression: name, Intensity: intensity,
		Committed: true, Reason: reason, At: now,
	})
	c.logger.Debug("emotion committed", "expression", name, "intensity", intensity, "reason", reason)
}

func (c *Controller) scheduleStep(i int) {
	r := c.run
	step := r.seq.Steps[i]
	r.pending = c.sched.After(step.PreDelay, func() {
		r.step = i
		c.applyStep(r, i)
		r.pending = c.sched.After(step.Hold, func() {
			c.advanceRun(r, i)
		})
	})
}

// applyStep displays one step: either a two-expression blend or a plain
// set. A zero step weight borrows the expression's catalog intensity.
func (c *Controller) applyStep(r *run, i int) {
	step := r.seq.Steps[i]
	w := domain.Clamp01(step.Weight)
	if w == 0 {
		def, _ := c.catalog.Expression(step.Expression)
		w = def.Intensity
	}
	if c.avatar != nil {
		if step.BlendWith != "" && step.BlendRatio > 0 {
			c.avatar.BlendExpressions(step.Expression, step.BlendWith, domain.Clamp01(step.BlendRatio))
		} else {
			c.avatar.SetExpression(step.Expression, domain.ExpressionOptions{Weight: w})
		}
	}
	c.sequences.Emit(domain.SequenceEvent{
		Sequence:   r.seq.Name,
		Step:       i,
		Expression: step.Expression,
		Looped:     r.looped && i == 0,
		At:         c.clock.Now(),
	})
	c.logger.Debug("sequence step", "sequence", r.seq.Name, "step", i, "expression", step.Expression)
}

func (c *Controller) advanceRun(r *run, i int) {
	if i+1 < len(r.seq.Steps) {
		c.scheduleStep(i + 1)
		return
	}
	if r.seq.Loop {
		// A zero-duration loop would cascade forever inside one Advance.
		if sequenceSpan(r.seq) <= 0 {
			c.logger.Warn("loop sequence has no duration, stopping", "sequence", r.seq.Name)
			c.run = nil
			return
		}
		r.looped = true
		c.scheduleStep(0)
		return
	}
	c.run = nil
	c.sequences.Emit(domain.SequenceEvent{
		Sequence: r.seq.Name, Step: -1, At: c.clock.Now(),
	})
	domain.Guard(c.logger, "emotion.on_complete", r.onComplete)
	c.logger.Debug("sequence complete", "sequence", r.seq.Name)
	c.returnToNeutral(r.seq.Steps[len(r.seq.Steps)-1].Expression)
}

// returnToNeutral settles the face after a sequence. Falling from a
// high-intensity expression routes through its rebound for a short hold;
// anything else commits neutral directly.
func (c *Controller) returnToNeutral(from string) {
	now := c.clock.Now()
	def, _ := c.catalog.Expression(from)
	if def.Intensity >= c.reboundThreshold && def.Rebound != "" {
		rdef, _ := c.catalog.Expression(def.Rebound)
		if c.avatar != nil {
			c.avatar.SetExpression(def.Rebound, domain.ExpressionOptions{Weight: rdef.Intensity})
		}
		c.changes.Emit(domain.EmotionChange{
			Expression: def.Rebound, Intensity: rdef.Intensity,
			Committed: false, Reason: "rebound", At: now,
		})
		c.settle = c.sched.After(c.reboundHold, func() {
			c.settle = nil
			c.commitNeutral("settle")
		})
		c.logger.Debug("rebound", "from", from, "via", def.Rebound, "hold", c.reboundHold)
		return
	}
	c.commitNeutral("settle")
}

func (c *Controller) commitNeutral(reason string) {
	def, _ := c.catalog.Expression(c.neutral)
	c.commit(c.neutral, def.Intensity, reason, c.clock.Now())
}

func (c *Controller) cancelSettle() {
	if c.settle != nil {
		c.settle.Cancel()
		c.settle = nil
	}
}

// sequenceSpan is the scheduled length of one pass over the steps.
func sequenceSpan(seq catalog.Sequence) time.Duration {
	var total time.Duration
	for _, s := range seq.Steps {
		total += s.PreDelay + s.Hold
	}
	return total
}
