package host

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	return nil, domain.ErrSnapshotNotFound
}
func (m *MockStore) Delete(ctx context.Context, id string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)  { return nil, nil }

func TestHost_LockLifecycle(t *testing.T) {
	h := New(nil, WithStore(&MockStore{}))
	ctx := context.Background()
	count := 10000

	// Churn through many characters' snapshot deletes.
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("character-%d", i)
		_ = h.Delete(ctx, name)
	}

	// Every lock entry must be reclaimed once its holder releases it.
	lockCount := len(h.locks)
	t.Logf("Characters touched: %d, Locks leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("memory leak detected: %d locks remaining after Delete", lockCount)
	}
}

// countingLocker records lock and unlock calls.
type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.locks.Add(1)
	return func(ctx context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestHost_DistributedLockerWrapsEveryAccess(t *testing.T) {
	locker := &countingLocker{}
	h := New(nil, WithStore(&MockStore{}), WithLocker(locker), WithLockTTL(5*time.Second))
	ctx := context.Background()

	if err := h.Delete(ctx, "miko"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := h.WithLock(ctx, "miko", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("WithLock failed: %v", err)
	}

	if got := locker.locks.Load(); got != 2 {
		t.Errorf("locks = %d, want 2", got)
	}
	if got := locker.unlocks.Load(); got != 2 {
		t.Errorf("unlocks = %d, want 2", got)
	}
}

func TestHost_LockTTLDefaultApplies(t *testing.T) {
	h := New(nil)
	if h.lockTTL != defaultLockTTL {
		t.Errorf("lockTTL = %v, want %v", h.lockTTL, defaultLockTTL)
	}

	h2 := New(nil, WithLockTTL(-time.Second))
	if h2.lockTTL != defaultLockTTL {
		t.Errorf("negative TTL should keep the default, got %v", h2.lockTTL)
	}
}
