package avatar

import (
	"context"
	"fmt"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/motion"
)

// RequestMotion submits a motion to the arbiter. Zero-valued request
// fields inherit the group's catalog definition. Returns whether the
// motion was admitted.
func (e *Engine) RequestMotion(req motion.Request) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return false
	}
	e.fillFromCatalog(&req)
	return e.motions.Request(req)
}

// PlayMotion is shorthand for requesting a catalog motion by group name.
func (e *Engine) PlayMotion(group string) bool {
	return e.RequestMotion(motion.Request{Group: group})
}

// StopMotion frees a body region, gracefully or immediately.
func (e *Engine) StopMotion(region domain.Region, immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.motions.Stop(region, immediate)
}

// StopAllMotions frees every region.
func (e *Engine) StopAllMotions(immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.motions.StopAll(immediate)
}

// SetIdleMotion configures the perpetual idle motion by catalog group;
// an empty group clears it.
func (e *Engine) SetIdleMotion(group string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.idleGroup = group
	if group == "" {
		e.motions.SetIdle(nil)
		return
	}
	req := motion.Request{Group: group}
	e.fillFromCatalog(&req)
	e.motions.SetIdle(&req)
}

// MotionLayers returns the layers currently occupying body regions.
func (e *Engine) MotionLayers() []domain.Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.motions.Layers()
}

// AddLayer installs a free-form layer on the blend calculator and
// returns its id.
func (e *Engine) AddLayer(layer domain.Layer) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ""
	}
	return e.mixer.Add(layer)
}

// RemoveLayer deletes a blend layer immediately or starts its fade-out.
func (e *Engine) RemoveLayer(id string, immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.mixer.Remove(id, immediate)
}

// CreateTransition crossfades between a blend layer and a new one,
// returning the new layer's id.
func (e *Engine) CreateTransition(fromID, toName string, crossfade time.Duration, priority int, mode domain.BlendMode) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ""
	}
	return e.mixer.CreateTransition(fromID, toName, crossfade, priority, mode)
}

// BlendLayers returns the blend calculator's layers.
func (e *Engine) BlendLayers() []domain.Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixer.Layers()
}

// BlendResult returns the combined weight of all blend layers.
func (e *Engine) BlendResult() domain.BlendResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixer.Result()
}

// SetExpression replaces one expression's target weight. Zero or less
// removes it.
func (e *Engine) SetExpression(name string, weight float64, priority int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.palette.Set(name, weight, priority)
}

// SetExpressions replaces the whole expression target set.
func (e *Engine) SetExpressions(list []domain.ExpressionWeight) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.palette.SetAll(list)
}

// RemoveExpression clears one expression target.
func (e *Engine) RemoveExpression(name string) {
	e.SetExpression(name, 0, 0)
}

// ClearExpressions removes every expression target.
func (e *Engine) ClearExpressions() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.palette.Clear()
}

// Selection returns the palette's displayed weights, conflicts and
// drops.
func (e *Engine) Selection() domain.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.palette.Selection()
}

// SetEmotionSmart attempts an emotion change under the inertia policy
// and reports whether it was committed.
func (e *Engine) SetEmotionSmart(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return false
	}
	return e.emotions.SetEmotionSmart(name)
}

// React matches text against the reaction table and plays the bound
// sequence. Reports whether anything matched.
func (e *Engine) React(text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return false
	}
	return e.emotions.React(text)
}

// PlaySequence plays a catalog sequence by name.
func (e *Engine) PlaySequence(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil
	}
	return e.emotions.PlayNamed(name, nil)
}

// Play starts a sequence built in code, for example with
// emotion.NewSequence.
func (e *Engine) Play(seq catalog.Sequence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.emotions.Play(seq, nil)
}

// CancelSequence stops the running sequence without completing it.
func (e *Engine) CancelSequence() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.emotions.CancelSequence()
}

// EmotionState returns the current emotional record.
func (e *Engine) EmotionState() domain.EmotionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emotions.State()
}

// LookAt forwards a gaze target to the rendering sink.
func (e *Engine) LookAt(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.avatar.LookAt(x, y)
}

// CurrentExpression reads the rendering sink's feedback getter.
func (e *Engine) CurrentExpression() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.avatar.CurrentExpression()
}

// Status is one consistent view of the whole engine, composed under a
// single lock.
type Status struct {
	Name         string              `json:"name"`
	Now          time.Duration       `json:"now"`
	Ticks        uint64              `json:"ticks"`
	Emotion      domain.EmotionState `json:"emotion"`
	Momentum     float64             `json:"momentum"`
	Sequence     string              `json:"sequence,omitempty"`
	SequenceStep int                 `json:"sequence_step,omitempty"`
	Selection    domain.Selection    `json:"selection"`
	Blend        domain.BlendResult  `json:"blend"`
	Motions      []domain.Layer      `json:"motions,omitempty"`
	IdleGroup    string              `json:"idle_group,omitempty"`
	Destroyed    bool                `json:"destroyed,omitempty"`
}

// Status composes a consistent snapshot of the engine's observable
// state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Name:      e.Name,
		Now:       e.clock.Now(),
		Ticks:     e.seq,
		Emotion:   e.emotions.State(),
		Momentum:  e.emotions.Momentum(),
		Selection: e.palette.Selection(),
		Blend:     e.mixer.Result(),
		Motions:   e.motions.Layers(),
		IdleGroup: e.motions.IdleGroup(),
		Destroyed: e.destroyed,
	}
	if name, step, ok := e.emotions.Sequence(); ok {
		st.Sequence = name
		st.SequenceStep = step
	}
	return st
}

// Snapshot captures the restorable state: the emotional record, the
// expression targets and the idle group.
func (e *Engine) Snapshot() *domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil
	}
	return &domain.Snapshot{
		Emotion:     e.emotions.State(),
		Expressions: e.palette.Targets(),
		IdleGroup:   e.motions.IdleGroup(),
		SavedAt:     time.Now().UTC(),
	}
}

// Restore applies a snapshot, cancelling any running sequence.
func (e *Engine) Restore(snap *domain.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || snap == nil {
		return
	}
	e.emotions.Restore(snap.Emotion)
	e.palette.SetAll(snap.Expressions)
	e.idleGroup = snap.IdleGroup
	if snap.IdleGroup == "" {
		e.motions.SetIdle(nil)
	} else {
		req := motion.Request{Group: snap.IdleGroup}
		e.fillFromCatalog(&req)
		e.motions.SetIdle(&req)
	}
	e.logger.Info("snapshot restored", "emotion", snap.Emotion.Current, "expressions", len(snap.Expressions))
}

// SaveSnapshot persists the current snapshot under the character name.
func (e *Engine) SaveSnapshot(ctx context.Context) error {
	snap := e.Snapshot()
	if snap == nil {
		return nil
	}
	e.mu.Lock()
	store, name := e.store, e.Name
	e.mu.Unlock()
	if store == nil {
		return fmt.Errorf("no state store configured")
	}
	if err := store.Save(ctx, name, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores the character's persisted snapshot.
func (e *Engine) LoadSnapshot(ctx context.Context) error {
	e.mu.Lock()
	store, name := e.store, e.Name
	e.mu.Unlock()
	if store == nil {
		return fmt.Errorf("no state store configured")
	}
	snap, err := store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	e.Restore(snap)
	return nil
}

// SubscribeTicks registers a listener for tick summaries; the returned
// func unsubscribes it.
func (e *Engine) SubscribeTicks(fn func(domain.TickEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.ticks.Subscribe(fn))
}

// SubscribeMotions registers a listener for arbitration events.
func (e *Engine) SubscribeMotions(fn func(domain.MotionEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.motions.Subscribe(fn))
}

// SubscribeBlends registers a listener for blend results.
func (e *Engine) SubscribeBlends(fn func(domain.BlendResult)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.mixer.Subscribe(fn))
}

// SubscribeSelections registers a listener for palette selections.
func (e *Engine) SubscribeSelections(fn func(domain.Selection)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.palette.Subscribe(fn))
}

// SubscribeEmotions registers a listener for emotion change outcomes.
func (e *Engine) SubscribeEmotions(fn func(domain.EmotionChange)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.emotions.SubscribeChanges(fn))
}

// SubscribeReactions registers a listener for matched reactions.
func (e *Engine) SubscribeReactions(fn func(domain.Reaction)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.emotions.SubscribeReactions(fn))
}

// SubscribeSequences registers a listener for sequence progress; a step
// of -1 marks completion.
func (e *Engine) SubscribeSequences(fn func(domain.SequenceEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrapUnsub(e.emotions.SubscribeSequences(fn))
}

// wrapUnsub re-locks around an unsubscribe func so handles are safe to
// call from any goroutine.
func (e *Engine) wrapUnsub(unsub func()) func() {
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		unsub()
	}
}
