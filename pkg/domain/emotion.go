package domain

import "time"

// ExpressionWeight is one entry in the expression palette. Name is the
// unique key; Priority breaks capacity and conflict ties (higher wins).
type ExpressionWeight struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Priority int     `json:"priority,omitempty"`
}

// ConflictPair records one unordered pair of expressions that cannot
// naturally coexist. A and B are stored in lexical order so a pair has a
// single canonical form.
type ConflictPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewConflictPair canonicalizes the pair ordering.
func NewConflictPair(a, b string) ConflictPair {
	if b < a {
		a, b = b, a
	}
	return ConflictPair{A: a, B: b}
}

// ExpressionOptions accompany an outbound SetExpression command.
type ExpressionOptions struct {
	Weight float64       `json:"weight,omitempty"`
	FadeIn time.Duration `json:"fade_in,omitempty"`
}

// EmotionState is the engine-wide emotional record driving the inertia
// policy. Momentum is stored at its value as of ChangedAt and decays
// linearly; use MomentumAt for the current value.
type EmotionState struct {
	Current   string        `json:"current"`
	Previous  string        `json:"previous,omitempty"`
	Intensity float64       `json:"intensity"`
	Momentum  float64       `json:"momentum"`
	ChangedAt time.Duration `json:"changed_at"`
}

// MomentumAt returns the linearly decayed momentum at now given a decay
// rate per second. Momentum never goes below zero.
func (s EmotionState) MomentumAt(now time.Duration, decayPerSecond float64) float64 {
	if decayPerSecond <= 0 {
		return Clamp01(s.Momentum)
	}
	elapsed := now - s.ChangedAt
	if elapsed < 0 {
		elapsed = 0
	}
	m := s.Momentum - decayPerSecond*elapsed.Seconds()
	return Clamp01(m)
}

// Commit records a committed emotion change at now.
func (s *EmotionState) Commit(name string, intensity float64, now time.Duration) {
	s.Previous = s.Current
	s.Current = name
	s.Intensity = Clamp01(intensity)
	s.Momentum = s.Intensity
	s.ChangedAt = now
}
