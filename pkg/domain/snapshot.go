package domain

import "time"

// Snapshot is the persistable slice of engine state: the emotional record,
// the expression targets and the idle motion, if any. It deliberately
// excludes transient layers and pending timers; restoring a snapshot
// re-applies targets rather than replaying history.
type Snapshot struct {
	Emotion     EmotionState       `json:"emotion"`
	Expressions []ExpressionWeight `json:"expressions,omitempty"`
	IdleGroup   string             `json:"idle_group,omitempty"`
	SavedAt     time.Time          `json:"saved_at"`

	// Sealed carries the encrypted body when a persistence middleware has
	// sealed the snapshot. The open fields above are blanked then.
	Sealed string `json:"sealed,omitempty"`
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing caller memory.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Expressions != nil {
		out.Expressions = make([]ExpressionWeight, len(s.Expressions))
		copy(out.Expressions, s.Expressions)
	}
	return &out
}
