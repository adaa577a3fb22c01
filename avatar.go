package avatar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/blend"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/emotion"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/expression"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/motion"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/observability"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

// Engine is the high-level entry point for the library. It owns one
// character's arbitration, blending, palette and emotional state, and is
// driven by Tick.
//
// Public methods serialize on an internal mutex, so one engine may be
// shared by an HTTP server, an MCP server and a ticker goroutine. The
// components behind it stay single-threaded. Listener callbacks run while
// that mutex is held: a subscriber must hand the value off (a channel
// send, a counter) and return, never call back into the engine.
type Engine struct {
	mu sync.Mutex

	logger    *slog.Logger
	clock     *schedule.Clock
	sched     *schedule.Scheduler
	catalog   *catalog.Catalog
	avatar    ports.Avatar
	source    ports.CatalogSource
	store     ports.StateStore
	hooks     domain.LifecycleHooks
	collector *observability.Collector

	mixerOpts   []blend.Option
	paletteOpts []expression.Option
	emotionOpts []emotion.Option
	idleGroup   string

	motions  *motion.Arbiter
	mixer    *blend.Mixer
	palette  *expression.Palette
	emotions *emotion.Controller
	ticks    *observability.Emitter[domain.TickEvent]

	seq       uint64
	destroyed bool

	// Name labels the character in logs, snapshots and the host registry.
	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithName labels the character. Default "default".
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.Name = name
		}
	}
}

// WithAvatar connects the rendering sink that receives expression,
// motion and gaze commands. Without one, commands are discarded.
func WithAvatar(av ports.Avatar) Option {
	return func(e *Engine) {
		if av != nil {
			e.avatar = av
		}
	}
}

// WithCatalog sets the motion and expression catalog. Default is the
// built-in catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(e *Engine) {
		if cat != nil {
			e.catalog = cat
		}
	}
}

// WithCatalogSource loads the catalog from an external source at Start,
// replacing the configured catalog.
func WithCatalogSource(src ports.CatalogSource) Option {
	return func(e *Engine) { e.source = src }
}

// WithStateStore enables SaveSnapshot and LoadSnapshot.
func WithStateStore(store ports.StateStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithMetrics wires a collector's hooks into the engine.
func WithMetrics(col *observability.Collector) Option {
	return func(e *Engine) { e.collector = col }
}

// WithIdleMotion configures the perpetual idle motion by catalog group.
func WithIdleMotion(group string) Option {
	return func(e *Engine) { e.idleGroup = group }
}

// WithMaxLayers caps the blend calculator's concurrent layers.
func WithMaxLayers(n int) Option {
	return func(e *Engine) { e.mixerOpts = append(e.mixerOpts, blend.WithMaxLayers(n)) }
}

// WithExpressionPolicy selects the palette's conflict policy.
func WithExpressionPolicy(p expression.Policy) Option {
	return func(e *Engine) { e.paletteOpts = append(e.paletteOpts, expression.WithPolicy(p)) }
}

// WithMaxExpressions caps concurrently targeted expressions.
func WithMaxExpressions(n int) Option {
	return func(e *Engine) { e.paletteOpts = append(e.paletteOpts, expression.WithMaxActive(n)) }
}

// WithExpressionSmoothing sets the palette's per-tick low-pass step.
func WithExpressionSmoothing(step float64) Option {
	return func(e *Engine) { e.paletteOpts = append(e.paletteOpts, expression.WithSmoothing(step)) }
}

// WithAutoNormalize controls palette weight normalization.
func WithAutoNormalize(enabled bool) Option {
	return func(e *Engine) { e.paletteOpts = append(e.paletteOpts, expression.WithAutoNormalize(enabled)) }
}

// WithMinSwitchInterval sets the minimum time between committed emotion
// changes.
func WithMinSwitchInterval(d time.Duration) Option {
	return func(e *Engine) { e.emotionOpts = append(e.emotionOpts, emotion.WithMinInterval(d)) }
}

// WithMomentumDecay sets the emotional momentum decay rate per second.
func WithMomentumDecay(perSecond float64) Option {
	return func(e *Engine) { e.emotionOpts = append(e.emotionOpts, emotion.WithMomentumDecay(perSecond)) }
}

// WithReboundThreshold sets the intensity at which completions route
// through a rebound expression.
func WithReboundThreshold(v float64) Option {
	return func(e *Engine) { e.emotionOpts = append(e.emotionOpts, emotion.WithReboundThreshold(v)) }
}

// WithReboundHold sets how long a rebound expression is held.
func WithReboundHold(d time.Duration) Option {
	return func(e *Engine) { e.emotionOpts = append(e.emotionOpts, emotion.WithReboundHold(d)) }
}

// WithNeutral names the resting expression.
func WithNeutral(name string) Option {
	return func(e *Engine) { e.emotionOpts = append(e.emotionOpts, emotion.WithNeutral(name)) }
}

// New assembles an engine. A bare New() is fully usable: built-in
// catalog, discarded avatar commands, silent logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  logging.NewNop(),
		catalog: catalog.Default(),
		avatar:  NopAvatar(),
		Name:    "default",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("character", e.Name)

	e.clock = schedule.NewClock()
	e.sched = schedule.New(e.clock, schedule.WithLogger(e.logger))
	e.ticks = observability.NewEmitter[domain.TickEvent](e.logger, "tick")

	e.motions = motion.NewArbiter(
		motion.WithClock(e.clock),
		motion.WithLogger(e.logger),
		motion.WithAvatar(e.avatar),
		motion.WithCatalog(e.catalog),
	)
	e.mixer = blend.NewMixer(append([]blend.Option{
		blend.WithClock(e.clock),
		blend.WithLogger(e.logger),
	}, e.mixerOpts...)...)
	e.palette = expression.NewPalette(append([]expression.Option{
		expression.WithClock(e.clock),
		expression.WithLogger(e.logger),
		expression.WithCatalog(e.catalog),
	}, e.paletteOpts...)...)
	e.emotions = emotion.NewController(e.sched, append([]emotion.Option{
		emotion.WithLogger(e.logger),
		emotion.WithCatalog(e.catalog),
		emotion.WithAvatar(e.avatar),
	}, e.emotionOpts...)...)

	e.wireHooks()

	if e.idleGroup != "" {
		req := motion.Request{Group: e.idleGroup}
		e.fillFromCatalog(&req)
		e.motions.SetIdle(&req)
	}
	return e
}

// wireHooks bridges the user hooks and the metrics collector onto the
// component emitters. Sequence events fan out to step and completion
// hooks by their step index.
func (e *Engine) wireHooks() {
	hooks := e.hooks
	if e.collector != nil {
		hooks = hooks.Merge(e.collector.Hooks())
	}
	if hooks.OnTick != nil {
		e.ticks.Subscribe(hooks.OnTick)
	}
	if hooks.OnMotion != nil {
		e.motions.Subscribe(hooks.OnMotion)
	}
	if hooks.OnBlend != nil {
		e.mixer.Subscribe(hooks.OnBlend)
	}
	if hooks.OnSelection != nil {
		e.palette.Subscribe(hooks.OnSelection)
	}
	if hooks.OnEmotionChange != nil {
		e.emotions.SubscribeChanges(hooks.OnEmotionChange)
	}
	if hooks.OnReaction != nil {
		e.emotions.SubscribeReactions(hooks.OnReaction)
	}
	if hooks.OnSequenceStep != nil || hooks.OnSequenceComplete != nil {
		e.emotions.SubscribeSequences(func(ev domain.SequenceEvent) {
			if ev.Step < 0 {
				if hooks.OnSequenceComplete != nil {
					hooks.OnSequenceComplete(ev)
				}
				return
			}
			if hooks.OnSequenceStep != nil {
				hooks.OnSequenceStep(ev)
			}
		})
	}
}

// Start loads the catalog from the configured source. Without a source
// it is a no-op, the engine is usable straight from New.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		e.logger.Warn("start on destroyed engine ignored")
		return nil
	}
	if e.source != nil {
		cat, err := e.source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		e.setCatalogLocked(cat)
	}
	e.logger.Info("engine started",
		"motions", len(e.catalog.Motions()),
		"expressions", len(e.catalog.Expressions()),
		"sequences", len(e.catalog.Sequences()))
	return nil
}

// Tick drives one frame: the virtual clock advances by dt, due scheduled
// events fire, every component advances, and only then are listeners
// notified. Observers always see the settled state of the whole tick.
func (e *Engine) Tick(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	started := time.Now()
	if dt < 0 {
		dt = 0
	}
	e.seq++
	e.sched.Advance(dt)
	e.motions.Tick()
	e.mixer.Tick()
	e.palette.Tick()

	e.ticks.Emit(domain.TickEvent{
		Seq:          e.seq,
		Now:          e.clock.Now(),
		Delta:        dt,
		Elapsed:      time.Since(started),
		ActiveLayers: len(e.motions.Layers()) + e.mixer.ActiveCount(),
	})

	e.motions.Flush()
	e.mixer.Flush()
	e.palette.Flush()
	e.emotions.Flush()
	e.ticks.Flush()
}

// Destroy cancels every pending scheduled event and drops all state.
// Further public calls are no-ops; nothing fires into a disposed engine.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.sched.Reset()
	e.motions.Reset()
	e.mixer.Reset()
	e.palette.Reset()
	e.emotions.Reset()
	e.ticks.Drop()
	e.logger.Info("engine destroyed", "ticks", e.seq)
}

// Reset returns the engine to its initial state without destroying it.
// The virtual clock keeps its reading; pending events are cancelled.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.sched.Reset()
	e.motions.Reset()
	e.mixer.Reset()
	e.palette.Reset()
	e.emotions.Reset()
	if e.idleGroup != "" {
		req := motion.Request{Group: e.idleGroup}
		e.fillFromCatalog(&req)
		e.motions.SetIdle(&req)
	}
	e.logger.Info("engine reset")
}

// Destroyed reports whether Destroy has been called.
func (e *Engine) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// Now returns the current virtual time.
func (e *Engine) Now() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now()
}

// Catalog returns the active catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// SetCatalog replaces the active catalog on every component. Live layers
// and running sequences keep the definitions they started with.
func (e *Engine) SetCatalog(cat *catalog.Catalog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || cat == nil {
		return
	}
	e.setCatalogLocked(cat)
}

// Reload fetches a fresh catalog from the configured source.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil
	}
	if e.source == nil {
		return fmt.Errorf("no catalog source configured")
	}
	cat, err := e.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	e.setCatalogLocked(cat)
	return nil
}

func (e *Engine) setCatalogLocked(cat *catalog.Catalog) {
	e.catalog = cat
	e.motions.SetCatalog(cat)
	e.palette.SetCatalog(cat)
	e.emotions.SetCatalog(cat)
	e.logger.Info("catalog replaced",
		"motions", len(cat.Motions()),
		"expressions", len(cat.Expressions()),
		"sequences", len(cat.Sequences()))
}

// fillFromCatalog completes a request from its group's catalog entry.
// Zero-valued fields inherit the definition; a zero rank inherits the
// catalog rank. Unknown groups default to full weight.
func (e *Engine) fillFromCatalog(req *motion.Request) {
	def, ok := e.catalog.Motion(req.Group)
	if !ok {
		if req.Weight == 0 {
			req.Weight = 1
		}
		return
	}
	if req.Region == "" {
		req.Region = def.Region
	}
	if req.Rank == domain.RankIdle {
		req.Rank = def.Rank
	}
	if req.Weight == 0 {
		req.Weight = def.Weight
	}
	if req.FadeIn == 0 {
		req.FadeIn = def.FadeIn
	}
	if req.FadeOut == 0 {
		req.FadeOut = def.FadeOut
	}
	if req.Duration == 0 {
		req.Duration = def.Duration
	}
}

// nopAvatar discards every command.
type nopAvatar struct{}

func (nopAvatar) SetExpression(string, domain.ExpressionOptions) {}
func (nopAvatar) BlendExpressions(string, string, float64)       {}
func (nopAvatar) PlayMotion(string, domain.Rank)                 {}
func (nopAvatar) LookAt(float64, float64)                        {}
func (nopAvatar) CurrentExpression() string                      { return "" }

// NopAvatar returns a rendering sink that discards every command.
func NopAvatar() ports.Avatar { return nopAvatar{} }
