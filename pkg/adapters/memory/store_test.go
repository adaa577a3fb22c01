package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/memory"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	snap := &domain.Snapshot{
		Emotion:     domain.EmotionState{Current: "happy", Intensity: 0.7},
		Expressions: []domain.ExpressionWeight{{Name: "happy", Weight: 0.7}},
		SavedAt:     time.Now().UTC(),
	}
	if err := store.Save(ctx, "iso", snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the saved pointer must not leak into the store.
	snap.Expressions[0].Name = "corrupted"

	loaded, err := store.Load(ctx, "iso")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Expressions[0].Name != "happy" {
		t.Errorf("store aliased caller memory: got %q", loaded.Expressions[0].Name)
	}

	// Mutating a loaded snapshot must not affect later loads.
	loaded.Expressions[0].Weight = 0
	again, err := store.Load(ctx, "iso")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if again.Expressions[0].Weight != 0.7 {
		t.Errorf("loaded snapshot aliased store memory: got %v", again.Expressions[0].Weight)
	}
}
