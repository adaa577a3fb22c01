package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	id := "test-character"
	savedAt := time.Now().UTC()
	original := &domain.Snapshot{
		Emotion:     domain.EmotionState{Current: "happy", Intensity: 0.7},
		Expressions: []domain.ExpressionWeight{{Name: "smile", Weight: 0.4}},
		IdleGroup:   "breath",
		SavedAt:     savedAt,
	}

	// 1. Save
	if err := secureStore.Save(ctx, id, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Verify Underlying Store directly (Should be sealed)
	stored, err := underlyingStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Sealed == "" {
		t.Fatal("Expected sealed envelope in stored snapshot")
	}
	if stored.Emotion.Current != "" {
		t.Fatalf("Expected emotion to be hidden, found: %v", stored.Emotion.Current)
	}
	if len(stored.Expressions) != 0 {
		t.Fatalf("Expected expressions to be hidden, found: %v", stored.Expressions)
	}
	if stored.IdleGroup != "" {
		t.Fatalf("Expected idle group to be hidden, found: %v", stored.IdleGroup)
	}
	if !stored.SavedAt.Equal(savedAt) {
		t.Errorf("Expected SavedAt to stay in the clear, got %v", stored.SavedAt)
	}

	// 3. Load via Middleware (Should be unsealed)
	loaded, err := secureStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Emotion.Current != "happy" {
		t.Errorf("Expected 'happy', got %v", loaded.Emotion.Current)
	}
	if len(loaded.Expressions) != 1 || loaded.Expressions[0].Name != "smile" {
		t.Errorf("Expected smile target back, got %v", loaded.Expressions)
	}
	if loaded.IdleGroup != "breath" {
		t.Errorf("Expected 'breath', got %v", loaded.IdleGroup)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	// Create middleware with OLD key to save the initial snapshot
	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureStoreOld := mwOld(underlyingStore)

	ctx := context.Background()
	id := "rotation-character"
	original := &domain.Snapshot{Emotion: domain.EmotionState{Current: "sealed-with-old-key"}}

	// 1. Save with OLD key
	if err := secureStoreOld.Save(ctx, id, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Load with NEW key (Active) + OLD key (Fallback)
	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureStoreNew := mwNew(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Emotion.Current != "sealed-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	// 3. Save again (Should now seal with NEW key)
	loaded.Emotion.Current = "sealed-with-new-key"
	if err := secureStoreNew.Save(ctx, id, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	// 4. Verify we CANNOT load with just OLD key anymore
	_, err = secureStoreOld.Load(ctx, id)
	if err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsUnsealedSnapshot(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	// Plant a plaintext snapshot behind the middleware's back.
	plain := &domain.Snapshot{Emotion: domain.EmotionState{Current: "happy"}}
	if err := underlyingStore.Save(ctx, "legacy", plain); err != nil {
		t.Fatal(err)
	}

	if _, err := secureStore.Load(ctx, "legacy"); err == nil {
		t.Error("Expected fail-secure error for a snapshot without a sealed envelope")
	}
}

func TestEncryptionMiddleware_TamperedCiphertext(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	id := "tamper-character"
	if err := secureStore.Save(ctx, id, &domain.Snapshot{Emotion: domain.EmotionState{Current: "happy"}}); err != nil {
		t.Fatal(err)
	}

	// Flip a ciphertext byte so the GCM tag no longer matches.
	stored, err := underlyingStore.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(stored.Sealed)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xFF
	stored.Sealed = base64.StdEncoding.EncodeToString(raw)

	_, err = secureStore.Load(ctx, id)
	if err == nil {
		t.Fatal("Expected error for tampered ciphertext")
	}
	if !strings.Contains(err.Error(), "decrypt") {
		t.Errorf("Expected a decryption error, got: %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
