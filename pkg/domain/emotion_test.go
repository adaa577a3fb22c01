package domain

import (
	"math"
	"testing"
	"time"
)

func TestMomentumDecay(t *testing.T) {
	s := EmotionState{}
	s.Commit("happy", 0.8, 0)

	if got := s.MomentumAt(0, 0.25); got != 0.8 {
		t.Errorf("momentum at commit = %v, want 0.8", got)
	}
	got := s.MomentumAt(2*time.Second, 0.25)
	if math.Abs(got-0.3) > 1e-9 {
		t.Errorf("momentum after 2s = %v, want 0.3", got)
	}
	if got := s.MomentumAt(time.Minute, 0.25); got != 0 {
		t.Errorf("momentum floor = %v, want 0", got)
	}
	// A clock that went backwards must not inflate momentum.
	if got := s.MomentumAt(-time.Second, 0.25); got != 0.8 {
		t.Errorf("momentum at negative elapsed = %v, want 0.8", got)
	}
}

func TestCommitTracksPrevious(t *testing.T) {
	s := EmotionState{Current: "neutral"}
	s.Commit("happy", 1.4, 3*time.Second)

	if s.Previous != "neutral" || s.Current != "happy" {
		t.Errorf("commit transition = %q -> %q, want neutral -> happy", s.Previous, s.Current)
	}
	if s.Intensity != 1 {
		t.Errorf("intensity = %v, want clamped 1", s.Intensity)
	}
	if s.Momentum != s.Intensity {
		t.Errorf("momentum = %v, want reset to intensity %v", s.Momentum, s.Intensity)
	}
	if s.ChangedAt != 3*time.Second {
		t.Errorf("changed at = %v, want 3s", s.ChangedAt)
	}
}

func TestConflictPairCanonical(t *testing.T) {
	if NewConflictPair("sad", "happy") != NewConflictPair("happy", "sad") {
		t.Error("conflict pairs are not canonical across argument order")
	}
}
