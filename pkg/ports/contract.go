package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// RunCatalogSourceContract verifies that a CatalogSource yields a usable,
// internally consistent catalog, repeatably.
func RunCatalogSourceContract(t *testing.T, src CatalogSource) {
	ctx := context.Background()

	cat, err := src.Load(ctx)
	require.NoError(t, err, "Load should not return error")
	require.NotNil(t, cat)
	assert.NoError(t, cat.Validate(), "loaded catalog should validate")

	again, err := src.Load(ctx)
	require.NoError(t, err, "Load should be repeatable")
	require.NotNil(t, again)
}

// RunStateStoreContract runs a suite of tests verifying that a StateStore
// implementation adheres to the interface contract. Every store adapter
// calls it from its own test file.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	sample := func() *domain.Snapshot {
		return &domain.Snapshot{
			Emotion: domain.EmotionState{
				Current:   "happy",
				Previous:  "neutral",
				Intensity: 0.7,
				Momentum:  0.7,
				ChangedAt: 3 * time.Second,
			},
			Expressions: []domain.ExpressionWeight{
				{Name: "happy", Weight: 0.7, Priority: 2},
				{Name: "smile", Weight: 0.3},
			},
			IdleGroup: "idle",
			SavedAt:   time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := sample()
		require.NoError(t, store.Save(ctx, id, snap), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Emotion.Current, loaded.Emotion.Current)
		assert.Equal(t, snap.Emotion.ChangedAt, loaded.Emotion.ChangedAt)
		assert.InDelta(t, snap.Emotion.Intensity, loaded.Emotion.Intensity, 1e-9)
		assert.Equal(t, snap.Expressions, loaded.Expressions)
		assert.Equal(t, snap.IdleGroup, loaded.IdleGroup)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, sample()))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should report missing")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, sample())
		_ = store.Save(ctx, id2, sample())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
