package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

func TestStatusMarkdown(t *testing.T) {
	st := avatar.Status{
		Name:  "miku",
		Now:   1500 * time.Millisecond,
		Ticks: 45,
		Emotion: domain.EmotionState{
			Current:   "happy",
			Intensity: 0.7,
		},
		Momentum:     0.42,
		Sequence:     "greeting",
		SequenceStep: 1,
		IdleGroup:    "idle",
		Selection: domain.Selection{
			Weights: []domain.ExpressionWeight{
				{Name: "happy", Weight: 0.8},
			},
			Dropped: []string{"sad"},
		},
		Blend: domain.BlendResult{Final: 0.8},
		Motions: []domain.Layer{
			{Group: "wave", Phase: domain.PhasePlaying, Weight: 1, Mode: domain.BlendOverride},
		},
	}

	md := statusMarkdown(st)

	for _, want := range []string{
		"# miku",
		"Virtual clock 1.5s after 45 ticks.",
		"**Emotion:** happy (intensity 0.70, momentum 0.42)",
		"**Sequence:** greeting (step 1)",
		"**Idle:** idle",
		"| wave | playing | 1.00 | 0 | override |",
		"| happy | 0.80 | 0 |",
		"Dropped by conflict or capacity: sad.",
		"Final weight 0.80 over 0 layers.",
	} {
		assert.Contains(t, md, want)
	}
}

func TestStatusMarkdownEmpty(t *testing.T) {
	md := statusMarkdown(avatar.Status{Name: "bare"})

	assert.Contains(t, md, "No motion layers.")
	assert.Contains(t, md, "Palette is empty.")
	assert.NotContains(t, md, "**Sequence:**")
	assert.True(t, strings.Contains(md, "(none)"), "empty emotion renders as (none)")
}
