// Package blend implements the layered blend calculator: arbitrary
// concurrent layers combine into one capped scalar weight using
// override, additive and multiply composition.
package blend

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/observability"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

const defaultMaxLayers = 8

// Mixer owns a set of animation layers and combines their effective
// weights. It is driven by the engine tick and is not safe for concurrent
// use.
type Mixer struct {
	clock      *schedule.Clock
	logger     *slog.Logger
	maxLayers  int
	autoRemove bool
	layers     []*domain.Layer
	emitter    *observability.Emitter[domain.BlendResult]
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithLogger sets the mixer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mixer) {
		if l != nil {
			m.logger = l
			m.emitter.SetLogger(l)
		}
	}
}

// WithClock shares the engine's virtual clock.
func WithClock(c *schedule.Clock) Option {
	return func(m *Mixer) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMaxLayers caps the number of concurrently held layers. Exceeding the
// cap evicts the lowest-priority layer outright.
func WithMaxLayers(n int) Option {
	return func(m *Mixer) {
		if n > 0 {
			m.maxLayers = n
		}
	}
}

// WithAutoRemove controls whether stopped layers are removed on tick.
// Default true.
func WithAutoRemove(enabled bool) Option {
	return func(m *Mixer) { m.autoRemove = enabled }
}

// NewMixer creates an empty mixer.
func NewMixer(opts ...Option) *Mixer {
	m := &Mixer{
		clock:      schedule.NewClock(),
		logger:     logging.NewNop(),
		maxLayers:  defaultMaxLayers,
		autoRemove: true,
	}
	m.emitter = observability.NewEmitter[domain.BlendResult](m.logger, "blend")
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add installs a layer entering its fade-in now and returns its id (a
// generated one when the layer has none). The weight is clamped, the mode
// normalized. Exceeding the layer cap evicts the lowest-priority layer
// with no fade.
func (m *Mixer) Add(layer domain.Layer) string {
	now := m.clock.Now()
	if layer.ID == "" {
		layer.ID = uuid.NewString()
	}
	l := domain.NewLayer(layer.ID, layer.Group, layer.Weight, layer.Priority, layer.Mode, now)
	l.Duration = layer.Duration
	l.FadeIn = layer.FadeIn
	l.FadeOut = layer.FadeOut
	m.layers = append(m.layers, &l)
	m.evictOverflow()
	m.logger.Debug("layer added", "id", l.ID, "group", l.Group, "mode", l.Mode, "priority", l.Priority)
	m.publish(now)
	m.emitter.Flush()
	return l.ID
}

// Remove deletes a layer immediately or starts its fade-out. Unknown ids
// are a no-op.
func (m *Mixer) Remove(id string, immediate bool) {
	now := m.clock.Now()
	changed := false
	for i, l := range m.layers {
		if l.ID != id {
			continue
		}
		if immediate {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
		} else {
			l.BeginFadeOut(now)
		}
		changed = true
		break
	}
	if changed {
		m.publish(now)
		m.emitter.Flush()
	}
}

// CreateTransition crossfades: the source layer begins a fade-out and a
// new layer for toName begins a fade-in of the same duration. Both sides
// happen before anyone observes the result. An empty fromID skips the
// fade-out half. Returns the new layer's id.
func (m *Mixer) CreateTransition(fromID, toName string, crossfade time.Duration, priority int, mode domain.BlendMode) string {
	now := m.clock.Now()
	if crossfade < 0 {
		crossfade = 0
	}
	if fromID != "" {
		if from, ok := m.find(fromID); ok {
			from.FadeOut = crossfade
			from.BeginFadeOut(now)
		}
	}

	l := domain.NewLayer(uuid.NewString(), toName, 1, priority, mode, now)
	l.FadeIn = crossfade
	m.layers = append(m.layers, &l)
	m.evictOverflow()
	m.logger.Debug("transition created", "from", fromID, "to", toName, "crossfade", crossfade)
	m.publish(now)
	m.emitter.Flush()
	return l.ID
}

// Tick advances every layer's fade state, removes stopped layers when
// auto-removal is on, and buffers the fresh result for the engine flush.
func (m *Mixer) Tick() {
	now := m.clock.Now()
	kept := m.layers[:0]
	for _, l := range m.layers {
		l.Advance(now)
		if m.autoRemove && l.Phase == domain.PhaseStopped {
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(m.layers); i++ {
		m.layers[i] = nil
	}
	m.layers = kept
	m.publish(now)
}

// Result computes the combined weight without mutating any layer.
func (m *Mixer) Result() domain.BlendResult {
	return m.result(m.clock.Now())
}

// Layer returns a copy of the layer with the given id.
func (m *Mixer) Layer(id string) (domain.Layer, bool) {
	if l, ok := m.find(id); ok {
		return *l, true
	}
	return domain.Layer{}, false
}

// Layers returns copies of all held layers in insertion order.
func (m *Mixer) Layers() []domain.Layer {
	out := make([]domain.Layer, 0, len(m.layers))
	for _, l := range m.layers {
		out = append(out, *l)
	}
	return out
}

// ActiveCount counts layers still contributing weight.
func (m *Mixer) ActiveCount() int {
	n := 0
	for _, l := range m.layers {
		if l.Phase.Active() {
			n++
		}
	}
	return n
}

// Subscribe registers a listener for blend results; the returned func
// unsubscribes it.
func (m *Mixer) Subscribe(fn func(domain.BlendResult)) func() {
	return m.emitter.Subscribe(fn)
}

// Flush delivers results buffered during Tick.
func (m *Mixer) Flush() { m.emitter.Flush() }

// Reset drops every layer without fading.
func (m *Mixer) Reset() {
	m.layers = nil
}

func (m *Mixer) find(id string) (*domain.Layer, bool) {
	for _, l := range m.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// evictOverflow enforces the layer cap: lowest priority goes first, older
// layers break ties.
func (m *Mixer) evictOverflow() {
	for len(m.layers) > m.maxLayers {
		victim := 0
		for i, l := range m.layers {
			if l.Priority < m.layers[victim].Priority {
				victim = i
			}
		}
		evicted := m.layers[victim]
		m.layers = append(m.layers[:victim], m.layers[victim+1:]...)
		m.logger.Debug("layer evicted", "id", evicted.ID, "group", evicted.Group, "priority", evicted.Priority)
	}
}

func (m *Mixer) publish(now time.Duration) {
	m.emitter.Emit(m.result(now))
}

// result folds the active layers, in insertion order, into one scalar:
// override takes the running max, additive adds, multiply scales the
// accumulator (seeding it when nothing has accumulated yet). The final
// value is capped at 1.
func (m *Mixer) result(now time.Duration) domain.BlendResult {
	res := domain.BlendResult{At: now}
	final := 0.0
	touched := false
	for _, l := range m.layers {
		if !l.Phase.Active() {
			continue
		}
		w := l.EffectiveWeight(now)
		res.Layers = append(res.Layers, domain.BlendSample{
			ID:     l.ID,
			Group:  l.Group,
			Mode:   l.Mode,
			Weight: w,
		})
		switch l.Mode {
		case domain.BlendAdditive:
			final += w
		case domain.BlendMultiply:
			if touched {
				final *= w
			} else {
				final = w
			}
		default:
			if w > final {
				final = w
			}
		}
		touched = true
	}
	res.Final = domain.Clamp01(final)
	return res
}
