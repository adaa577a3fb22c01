package middleware_test

import (
	"context"
	"testing"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/persistence/middleware"
)

func TestFilterMiddleware_DropsMatchingTargets(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	// Drop auto-blink and any debug overlay before persisting
	mw := middleware.NewFilterMiddleware([]string{"^blink$", "^debug_"})
	filteredStore := mw(underlyingStore)

	ctx := context.Background()
	id := "filter-character"
	snap := &domain.Snapshot{
		Expressions: []domain.ExpressionWeight{
			{Name: "smile", Weight: 0.6},
			{Name: "blink", Weight: 1.0},
			{Name: "debug_wireframe", Weight: 0.3},
			{Name: "blink_slow", Weight: 0.5},
		},
	}

	// 1. Save
	if err := filteredStore.Save(ctx, id, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify the In-Memory snapshot is NOT MODIFIED (Immutability check)
	if len(snap.Expressions) != 4 {
		t.Error("Middleware modified original snapshot in memory!")
	}

	// 2. Load from Underlying Store (Should be filtered)
	stored, err := underlyingStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	var names []string
	for _, w := range stored.Expressions {
		names = append(names, w.Name)
	}
	want := []string{"smile", "blink_slow"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("Expected %v, got %v", want, names)
		}
	}
}

func TestFilterMiddleware_LoadPassesThrough(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewFilterMiddleware([]string{"blink"})
	filteredStore := mw(underlyingStore)

	ctx := context.Background()
	// A snapshot already in the store keeps whatever it has; filtering
	// applies on the way in, not the way out.
	stored := &domain.Snapshot{
		Expressions: []domain.ExpressionWeight{{Name: "blink", Weight: 1.0}},
	}
	if err := underlyingStore.Save(ctx, "pre-existing", stored); err != nil {
		t.Fatal(err)
	}

	loaded, err := filteredStore.Load(ctx, "pre-existing")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Expressions) != 1 || loaded.Expressions[0].Name != "blink" {
		t.Errorf("Expected blink to pass through on load, got %v", loaded.Expressions)
	}
}

func TestChain_FilterThenSeal(t *testing.T) {
	underlyingStore := NewMockStore()
	chain := middleware.Chain(
		middleware.NewFilterMiddleware([]string{"^blink$"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	store := chain(underlyingStore)

	ctx := context.Background()
	id := "chained-character"
	snap := &domain.Snapshot{
		Emotion: domain.EmotionState{Current: "happy"},
		Expressions: []domain.ExpressionWeight{
			{Name: "smile", Weight: 0.6},
			{Name: "blink", Weight: 1.0},
		},
	}
	if err := store.Save(ctx, id, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The envelope at rest is sealed, so the filter must have run before
	// encryption for blink to be gone from the ciphertext.
	stored, err := underlyingStore.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Sealed == "" {
		t.Fatal("Expected sealed envelope at rest")
	}

	loaded, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Emotion.Current != "happy" {
		t.Errorf("Expected 'happy', got %v", loaded.Emotion.Current)
	}
	if len(loaded.Expressions) != 1 || loaded.Expressions[0].Name != "smile" {
		t.Errorf("Expected only smile inside the envelope, got %v", loaded.Expressions)
	}
}
