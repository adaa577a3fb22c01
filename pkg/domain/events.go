package domain

import "time"

// MotionEventKind categorizes arbitration outcomes.
type MotionEventKind string

const (
	MotionStarted     MotionEventKind = "started"
	MotionRejected    MotionEventKind = "rejected"
	MotionEvicted     MotionEventKind = "evicted"
	MotionCompleted   MotionEventKind = "completed"
	MotionInterrupted MotionEventKind = "interrupted"
)

// MotionEvent describes one arbitration outcome for a body region.
type MotionEvent struct {
	Kind    MotionEventKind `json:"kind"`
	Region  Region          `json:"region"`
	LayerID string          `json:"layer_id"`
	Group   string          `json:"group"`
	Rank    Rank            `json:"rank"`
	At      time.Duration   `json:"at"`
}

// BlendSample is one layer's contribution to a blend result.
type BlendSample struct {
	ID     string    `json:"id"`
	Group  string    `json:"group"`
	Mode   BlendMode `json:"mode"`
	Weight float64   `json:"weight"` // effective weight after the fade ramp
}

// BlendResult is the combined output of the layered blend calculator.
type BlendResult struct {
	Final  float64       `json:"final"`
	Layers []BlendSample `json:"layers,omitempty"`
	At     time.Duration `json:"at"`
}

// Selection is the resolved output of the expression palette: the weights
// that survived capacity and conflict resolution, the conflicts that were
// detected, and the names dropped by policy.
type Selection struct {
	Weights   []ExpressionWeight `json:"weights"`
	Conflicts []ConflictPair     `json:"conflicts,omitempty"`
	Dropped   []string           `json:"dropped,omitempty"`
	At        time.Duration      `json:"at"`
}

// EmotionChange reports the outcome of a smart emotion switch attempt.
type EmotionChange struct {
	Expression string        `json:"expression"`
	Intensity  float64       `json:"intensity"`
	Committed  bool          `json:"committed"`
	Reason     string        `json:"reason,omitempty"`
	At         time.Duration `json:"at"`
}

// Reaction reports a text trigger matching a reaction rule.
type Reaction struct {
	Rule     string        `json:"rule"`
	Keyword  string        `json:"keyword"`
	Sequence string        `json:"sequence"`
	At       time.Duration `json:"at"`
}

// SequenceEvent reports sequencer progress. Step is -1 for completion
// events.
type SequenceEvent struct {
	Sequence   string        `json:"sequence"`
	Step       int           `json:"step"`
	Expression string        `json:"expression,omitempty"`
	Looped     bool          `json:"looped,omitempty"`
	At         time.Duration `json:"at"`
}

// TickEvent summarizes one engine tick.
type TickEvent struct {
	Seq          uint64        `json:"seq"`
	Now          time.Duration `json:"now"`
	Delta        time.Duration `json:"delta"`
	Elapsed      time.Duration `json:"elapsed"` // wall time spent computing the tick
	ActiveLayers int           `json:"active_layers"`
}

// LifecycleHooks defines optional callbacks for engine observability. Any
// field may be nil. Hooks run after the tick or public call that produced
// the event, inside the listener error boundary.
type LifecycleHooks struct {
	OnTick             func(TickEvent)
	OnMotion           func(MotionEvent)
	OnBlend            func(BlendResult)
	OnSelection        func(Selection)
	OnEmotionChange    func(EmotionChange)
	OnReaction         func(Reaction)
	OnSequenceStep     func(SequenceEvent)
	OnSequenceComplete func(SequenceEvent)
}

// Merge overlays non-nil callbacks from other onto a copy of h, fanning out
// to both where both are set.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	merged := h
	merged.OnTick = fanOut(h.OnTick, other.OnTick)
	merged.OnMotion = fanOut(h.OnMotion, other.OnMotion)
	merged.OnBlend = fanOut(h.OnBlend, other.OnBlend)
	merged.OnSelection = fanOut(h.OnSelection, other.OnSelection)
	merged.OnEmotionChange = fanOut(h.OnEmotionChange, other.OnEmotionChange)
	merged.OnReaction = fanOut(h.OnReaction, other.OnReaction)
	merged.OnSequenceStep = fanOut(h.OnSequenceStep, other.OnSequenceStep)
	merged.OnSequenceComplete = fanOut(h.OnSequenceComplete, other.OnSequenceComplete)
	return merged
}

func fanOut[E any](a, b func(E)) func(E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
