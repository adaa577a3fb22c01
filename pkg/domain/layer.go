package domain

import "time"

// Phase is the lifecycle position of a layer.
type Phase string

const (
	PhaseFadeIn  Phase = "fade_in"
	PhasePlaying Phase = "playing"
	PhaseFadeOut Phase = "fade_out"
	PhaseStopped Phase = "stopped"
)

// Active reports whether the phase still contributes weight.
func (p Phase) Active() bool {
	return p == PhaseFadeIn || p == PhasePlaying || p == PhaseFadeOut
}

// Layer is one independently timed animation contribution. Its effective
// weight is the base weight scaled by the fade ramp for the current phase.
// Times are virtual-clock readings, not wall time.
type Layer struct {
	ID       string    `json:"id"`
	Group    string    `json:"group"`
	Weight   float64   `json:"weight"`
	Priority int       `json:"priority"`
	Mode     BlendMode `json:"mode"`
	Phase    Phase     `json:"phase"`

	StartedAt time.Duration `json:"started_at"`
	// Duration bounds the playing phase; zero means unbounded.
	Duration time.Duration `json:"duration,omitempty"`
	FadeIn   time.Duration `json:"fade_in,omitempty"`
	FadeOut  time.Duration `json:"fade_out,omitempty"`
	// FadeOutAt is set when the fade-out began.
	FadeOutAt time.Duration `json:"fade_out_at,omitempty"`
}

// NewLayer builds a layer entering its fade-in at now. The weight is
// clamped and the mode normalized so a Layer never carries invalid values.
func NewLayer(id, group string, weight float64, priority int, mode BlendMode, now time.Duration) Layer {
	l := Layer{
		ID:        id,
		Group:     group,
		Weight:    Clamp01(weight),
		Priority:  priority,
		Mode:      ParseBlendMode(string(mode)),
		Phase:     PhaseFadeIn,
		StartedAt: now,
	}
	return l
}

// Advance progresses the fade lifecycle up to now and reports whether the
// phase changed. Zero-length fades skip their phase entirely, so a layer
// with FadeIn==0 is playing on the tick it was installed.
func (l *Layer) Advance(now time.Duration) bool {
	before := l.Phase
	switch l.Phase {
	case PhaseFadeIn:
		if now-l.StartedAt >= l.FadeIn {
			l.Phase = PhasePlaying
		}
		if l.Phase != PhasePlaying {
			break
		}
		fallthrough
	case PhasePlaying:
		if l.Duration > 0 && now-l.StartedAt >= l.Duration {
			l.BeginFadeOut(now)
		}
		if l.Phase != PhaseFadeOut {
			break
		}
		fallthrough
	case PhaseFadeOut:
		if now-l.FadeOutAt >= l.FadeOut {
			l.Phase = PhaseStopped
		}
	}
	return l.Phase != before
}

// BeginFadeOut moves the layer into its fade-out. Calling it again, or on a
// stopped layer, is a no-op.
func (l *Layer) BeginFadeOut(now time.Duration) {
	if l.Phase == PhaseFadeOut || l.Phase == PhaseStopped {
		return
	}
	l.Phase = PhaseFadeOut
	l.FadeOutAt = now
	if l.FadeOut <= 0 {
		l.Phase = PhaseStopped
	}
}

// FadeScale returns the fade multiplier in [0, 1] at now: a linear ramp up
// during fade-in, 1 while playing, a linear ramp down during fade-out and 0
// once stopped.
func (l *Layer) FadeScale(now time.Duration) float64 {
	switch l.Phase {
	case PhaseFadeIn:
		if l.FadeIn <= 0 {
			return 1
		}
		return Clamp01(float64(now-l.StartedAt) / float64(l.FadeIn))
	case PhasePlaying:
		return 1
	case PhaseFadeOut:
		if l.FadeOut <= 0 {
			return 0
		}
		return Clamp01(1 - float64(now-l.FadeOutAt)/float64(l.FadeOut))
	default:
		return 0
	}
}

// EffectiveWeight is the base weight scaled by the current fade ramp.
func (l *Layer) EffectiveWeight(now time.Duration) float64 {
	return Clamp01(l.Weight * l.FadeScale(now))
}
