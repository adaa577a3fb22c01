package domain

import (
	"math"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	if got := ParseBlendMode("screen"); got != BlendOverride {
		t.Errorf("unknown blend mode = %s, want %s", got, BlendOverride)
	}
	if got := ParseRegion("tail"); got != RegionFull {
		t.Errorf("unknown region = %s, want %s", got, RegionFull)
	}
	if got := ParseRank("urgent"); got != RankGesture {
		t.Errorf("unknown rank = %s, want %s", got, RankGesture)
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, r := range []Rank{RankIdle, RankGesture, RankReaction, RankEmotion, RankOverride} {
		if got := ParseRank(r.String()); got != r {
			t.Errorf("ParseRank(%q) = %v, want %v", r.String(), got, r)
		}
	}
	for _, reg := range Regions() {
		if got := ParseRegion(string(reg)); got != reg {
			t.Errorf("ParseRegion(%q) = %s, want %s", reg, got, reg)
		}
	}
	for _, m := range []BlendMode{BlendOverride, BlendAdditive, BlendMultiply} {
		if got := ParseBlendMode(string(m)); got != m {
			t.Errorf("ParseBlendMode(%q) = %s, want %s", m, got, m)
		}
	}
}

func TestGuessRegion(t *testing.T) {
	tests := []struct {
		group string
		want  Region
	}{
		{"wave", RegionArms},
		{"zuoshou", RegionArms},
		{"youshou", RegionArms},
		{"nod_slow", RegionHead},
		{"HeadShake", RegionHead},
		{"blink", RegionFace},
		{"bow_deep", RegionTorso},
		{"side_step", RegionLegs},
		{"idle", RegionFull},
		{"", RegionFull},
	}
	for _, tc := range tests {
		if got := GuessRegion(tc.group); got != tc.want {
			t.Errorf("GuessRegion(%q) = %s, want %s", tc.group, got, tc.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tc := range tests {
		if got := Clamp01(tc.in); got != tc.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRankClamp(t *testing.T) {
	if got := Rank(-3).Clamp(); got != RankIdle {
		t.Errorf("Rank(-3).Clamp() = %v, want %v", got, RankIdle)
	}
	if got := Rank(99).Clamp(); got != RankOverride {
		t.Errorf("Rank(99).Clamp() = %v, want %v", got, RankOverride)
	}
}
