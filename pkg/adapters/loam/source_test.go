package loam

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/testutils"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

var (
	_ ports.CatalogSource = (*Source)(nil)
	_ ports.Watchable     = (*Source)(nil)
)

func newTestSource(t *testing.T, docs map[string]string) *Source {
	t.Helper()
	dir, repo := testutils.SetupCatalogRepo(t)
	testutils.WriteDocs(t, dir, docs)
	return New(loam.NewTypedRepository[DefMetadata](repo))
}

func TestSource_Contract(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"motions/spin.md": `---
region: full
rank: gesture
duration: 2s
---
A quick twirl.`,
	})
	ports.RunCatalogSourceContract(t, src)
}

func TestSource_LoadAssemblesCatalog(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"motions/spin.md": `---
region: full
rank: gesture
weight: 0.9
fade_in: 150ms
duration: 2s
---
A full-body twirl used by the greeting flows.`,
		"expressions/wink.md": `---
intensity: 0.55
rebound: smile
conflicts:
  - sad
---
Quick one-eye wink.`,
		"sequences/wink_flash.md": `---
steps:
  - expression: wink
    weight: 0.8
    hold: 400ms
  - expression: smile
    weight: 0.5
    pre_delay: 100ms
    hold: 600ms
    blend_with: happy
    blend_ratio: 0.3
---
Wink, then settle into a soft smile.`,
		"reactions/tease.md": `---
keywords:
  - tease
  - wink at me
sequence: wink_flash
priority: 15
---`,
	})

	cat, err := src.Load(context.Background())
	require.NoError(t, err)

	motion, ok := cat.Motion("spin")
	require.True(t, ok, "spin should be loaded")
	assert.Equal(t, domain.RegionFull, motion.Region)
	assert.Equal(t, domain.RankGesture, motion.Rank)
	assert.Equal(t, 150*time.Millisecond, motion.FadeIn)
	assert.Equal(t, 2*time.Second, motion.Duration)

	expr, ok := cat.Expression("wink")
	require.True(t, ok, "wink should be loaded")
	assert.InDelta(t, 0.55, expr.Intensity, 1e-9)
	assert.Equal(t, "smile", expr.Rebound)
	assert.True(t, cat.InConflict("wink", "sad"))
	assert.True(t, cat.InConflict("sad", "wink"), "conflict table must be symmetric")

	seq, err := cat.Sequence("wink_flash")
	require.NoError(t, err)
	require.Len(t, seq.Steps, 2)
	assert.Equal(t, "wink", seq.Steps[0].Expression)
	assert.Equal(t, 400*time.Millisecond, seq.Steps[0].Hold)
	assert.Equal(t, "happy", seq.Steps[1].BlendWith)
	assert.InDelta(t, 0.3, seq.Steps[1].BlendRatio, 1e-9)

	rule, kw, ok := cat.ReactionFor("don't you tease me")
	require.True(t, ok)
	assert.Equal(t, "tease", rule.Name)
	assert.Equal(t, "tease", kw)
	assert.Equal(t, "wink_flash", rule.Sequence)

	// Documents merge over the built-in defaults.
	_, ok = cat.Motion("breath")
	assert.True(t, ok, "built-in motions should survive the merge")
}

func TestSource_ExplicitKindAtRoot(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"bounce.md": `---
kind: motion
region: torso
rank: reaction
duration: 800ms
---
Root-level file with an explicit kind.`,
	})

	cat, err := src.Load(context.Background())
	require.NoError(t, err)

	motion, ok := cat.Motion("bounce")
	require.True(t, ok)
	assert.Equal(t, domain.RegionTorso, motion.Region)
}

func TestSource_NameOverridesFileName(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"expressions/wink_v2.md": `---
name: wink
intensity: 0.6
---`,
	})

	cat, err := src.Load(context.Background())
	require.NoError(t, err)

	_, ok := cat.Expression("wink_v2")
	assert.False(t, ok, "file name should be shadowed by the declared name")
	expr, ok := cat.Expression("wink")
	require.True(t, ok)
	assert.InDelta(t, 0.6, expr.Intensity, 1e-9)
}

func TestSource_SequenceInclude(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"sequences/base.md": `---
steps:
  - expression: surprised
    weight: 0.7
    hold: 300ms
  - expression: smile
    weight: 0.5
    hold: 500ms
---`,
		"sequences/long.md": `---
steps:
  - base
  - expression: happy
    weight: 0.8
    hold: 1s
---`,
	})

	cat, err := src.Load(context.Background())
	require.NoError(t, err)

	seq, err := cat.Sequence("long")
	require.NoError(t, err)
	require.Len(t, seq.Steps, 3, "included steps should be inlined in order")
	assert.Equal(t, "surprised", seq.Steps[0].Expression)
	assert.Equal(t, "smile", seq.Steps[1].Expression)
	assert.Equal(t, "happy", seq.Steps[2].Expression)
}

func TestSource_IncludeCycleFails(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"sequences/a.md": `---
steps:
  - b
---`,
		"sequences/b.md": `---
steps:
  - a
---`,
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestSource_IncludeMustBeSequence(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"expressions/wink.md": `---
intensity: 0.5
---`,
		"sequences/broken.md": `---
steps:
  - expressions/wink
---`,
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a sequence")
}

func TestSource_CollisionDetected(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"expressions/wink.md": `---
intensity: 0.5
---`,
		"wink_alias.md": `---
kind: expression
name: wink
intensity: 0.9
---`,
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "wink")
}

func TestSource_UnknownKindFails(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"weird.md": `---
kind: potato
---`,
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestSource_RootFileNeedsKind(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"orphan.md": `---
intensity: 0.5
---`,
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot determine kind")
}

func TestSource_DanglingReferenceFails(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"sequences/haunted.md": `---
steps:
  - expression: ghost
    weight: 0.5
    hold: 200ms
---`,
	})

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog")
	assert.Contains(t, err.Error(), "ghost")
}
