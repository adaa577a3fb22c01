package catalog

import (
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// Default returns the built-in catalog for the stock character model. It
// covers the common gesture set, a basic emotional palette with rebound
// routes, the incompatibility table and a handful of keyword reactions, so
// an engine is usable before any external catalog is loaded.
func Default() *Catalog {
	c := New()

	for _, m := range []MotionDef{
		{Group: "idle", Region: domain.RegionFull, Rank: domain.RankIdle, FadeIn: 500 * time.Millisecond, FadeOut: 500 * time.Millisecond},
		{Group: "breath", Region: domain.RegionTorso, Rank: domain.RankIdle, FadeIn: 400 * time.Millisecond, FadeOut: 400 * time.Millisecond},
		{Group: "wave", Region: domain.RegionArms, Rank: domain.RankGesture, FadeIn: 200 * time.Millisecond, FadeOut: 300 * time.Millisecond, Duration: 2 * time.Second},
		{Group: "zuoshou", Region: domain.RegionArms, Rank: domain.RankGesture, FadeIn: 200 * time.Millisecond, FadeOut: 300 * time.Millisecond, Duration: 1500 * time.Millisecond},
		{Group: "youshou", Region: domain.RegionArms, Rank: domain.RankGesture, FadeIn: 200 * time.Millisecond, FadeOut: 300 * time.Millisecond, Duration: 1500 * time.Millisecond},
		{Group: "point", Region: domain.RegionArms, Rank: domain.RankGesture, FadeIn: 150 * time.Millisecond, FadeOut: 250 * time.Millisecond, Duration: time.Second},
		{Group: "nod", Region: domain.RegionHead, Rank: domain.RankGesture, FadeIn: 100 * time.Millisecond, FadeOut: 200 * time.Millisecond, Duration: 800 * time.Millisecond},
		{Group: "headshake", Region: domain.RegionHead, Rank: domain.RankGesture, FadeIn: 100 * time.Millisecond, FadeOut: 200 * time.Millisecond, Duration: 900 * time.Millisecond},
		{Group: "tilt", Region: domain.RegionHead, Rank: domain.RankGesture, FadeIn: 150 * time.Millisecond, FadeOut: 250 * time.Millisecond, Duration: 1200 * time.Millisecond},
		{Group: "bow", Region: domain.RegionTorso, Rank: domain.RankReaction, FadeIn: 250 * time.Millisecond, FadeOut: 350 * time.Millisecond, Duration: 1800 * time.Millisecond},
		{Group: "jump", Region: domain.RegionFull, Rank: domain.RankReaction, FadeIn: 100 * time.Millisecond, FadeOut: 300 * time.Millisecond, Duration: 1200 * time.Millisecond},
		{Group: "shrink", Region: domain.RegionFull, Rank: domain.RankEmotion, FadeIn: 300 * time.Millisecond, FadeOut: 400 * time.Millisecond, Duration: 2 * time.Second},
	} {
		c.AddMotion(m)
	}

	for _, e := range []ExpressionDef{
		{Name: "neutral", Intensity: 0.1},
		{Name: "smile", Intensity: 0.3, Compatible: []string{"happy", "neutral"}},
		{Name: "happy", Intensity: 0.7, Rebound: "smile", Compatible: []string{"surprised", "shy"}},
		{Name: "excited", Intensity: 0.9, Rebound: "smile", Compatible: []string{"happy", "surprised"}},
		{Name: "sad", Intensity: 0.6, Rebound: "thoughtful", Compatible: []string{"thoughtful"}},
		{Name: "angry", Intensity: 0.8, Rebound: "annoyed"},
		{Name: "annoyed", Intensity: 0.4, Compatible: []string{"angry", "neutral"}},
		{Name: "surprised", Intensity: 0.75, Rebound: "blink", Compatible: []string{"happy", "scared"}},
		{Name: "scared", Intensity: 0.85, Rebound: "relief"},
		{Name: "relief", Intensity: 0.3, Compatible: []string{"neutral", "smile"}},
		{Name: "shy", Intensity: 0.5, Rebound: "smile", Compatible: []string{"happy", "smile"}},
		{Name: "thoughtful", Intensity: 0.3, Compatible: []string{"neutral", "sad"}},
		{Name: "blink", Intensity: 0.2, Compatible: []string{"neutral", "surprised"}},
	} {
		c.AddExpression(e)
	}

	for _, pair := range [][2]string{
		{"happy", "sad"},
		{"happy", "angry"},
		{"excited", "sad"},
		{"excited", "thoughtful"},
		{"sad", "angry"},
		{"scared", "smile"},
		{"angry", "shy"},
	} {
		c.AddConflict(pair[0], pair[1])
	}

	c.AddSequence(Sequence{
		Name: "greeting",
		Steps: []SequenceStep{
			{Expression: "happy", Weight: 0.8, Hold: 1200 * time.Millisecond},
			{Expression: "smile", Weight: 0.6, Hold: 800 * time.Millisecond},
		},
	})
	c.AddSequence(Sequence{
		Name: "delight",
		Steps: []SequenceStep{
			{Expression: "surprised", Weight: 0.7, Hold: 500 * time.Millisecond},
			{Expression: "excited", Weight: 0.9, PreDelay: 100 * time.Millisecond, Hold: 1500 * time.Millisecond, BlendWith: "happy", BlendRatio: 0.4},
		},
	})
	c.AddSequence(Sequence{
		Name: "sulk",
		Steps: []SequenceStep{
			{Expression: "sad", Weight: 0.7, Hold: 1600 * time.Millisecond},
			{Expression: "thoughtful", Weight: 0.5, PreDelay: 200 * time.Millisecond, Hold: 1000 * time.Millisecond},
		},
	})
	c.AddSequence(Sequence{
		Name: "panic",
		Steps: []SequenceStep{
			{Expression: "surprised", Weight: 0.9, Hold: 400 * time.Millisecond},
			{Expression: "scared", Weight: 0.85, Hold: 1200 * time.Millisecond, BlendWith: "surprised", BlendRatio: 0.3},
			{Expression: "relief", Weight: 0.4, PreDelay: 300 * time.Millisecond, Hold: 900 * time.Millisecond},
		},
	})
	c.AddSequence(Sequence{
		Name: "idle_sway",
		Loop: true,
		Steps: []SequenceStep{
			{Expression: "neutral", Weight: 0.3, Hold: 2 * time.Second},
			{Expression: "blink", Weight: 0.4, Hold: 300 * time.Millisecond},
		},
	})

	for _, r := range []ReactionRule{
		{Name: "praise", Keywords: []string{"thank", "great", "awesome", "love", "谢谢", "太棒"}, Sequence: "delight", Priority: 30},
		{Name: "greeting", Keywords: []string{"hello", "hi ", "hey", "你好", "早上好"}, Sequence: "greeting", Priority: 20},
		{Name: "alarm", Keywords: []string{"help", "emergency", "danger", "救命"}, Sequence: "panic", Priority: 40},
		{Name: "gloom", Keywords: []string{"sorry", "sad", "unfortunately", "难过", "抱歉"}, Sequence: "sulk", Priority: 10},
	} {
		c.AddReaction(r)
	}

	return c
}
