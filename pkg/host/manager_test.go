package host_test

import (
	"context"
	"sync"
	"testing"
	"time"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/memory"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is
// missing.
type SlowStore struct {
	data map[string]*domain.Snapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Snapshot)
	}
	s.data[id] = snap.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.data[id]; ok {
		return snap.Clone(), nil
	}
	return nil, domain.ErrSnapshotNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestHost_EngineCreatesOnce(t *testing.T) {
	var built int
	h := host.New(func(name string) *avatar.Engine {
		built++
		return avatar.New(avatar.WithName(name))
	})
	defer h.Close()

	a := h.Engine("miko")
	b := h.Engine("miko")
	assert.Same(t, a, b)
	assert.Equal(t, 1, built)

	h.Engine("rin")
	assert.Equal(t, []string{"miko", "rin"}, h.Names())
	assert.Equal(t, 2, h.Len())
}

func TestHost_LookupDoesNotCreate(t *testing.T) {
	h := host.New(nil)
	defer h.Close()

	_, ok := h.Lookup("nobody")
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
}

func TestHost_SaveRestoreRoundTrip(t *testing.T) {
	store := memory.NewStore()
	h := host.New(nil, host.WithStore(store))
	defer h.Close()
	ctx := context.Background()

	eng := h.Engine("miko")
	eng.SetEmotionSmart("happy")
	require.NoError(t, h.Save(ctx, "miko"))

	// Drop the live engine; Restore must rebuild it from the snapshot.
	h.Remove("miko")
	_, ok := h.Lookup("miko")
	require.False(t, ok)

	require.NoError(t, h.Restore(ctx, "miko"))
	restored, ok := h.Lookup("miko")
	require.True(t, ok)
	assert.Equal(t, "happy", restored.Status().Emotion.Current)
}

func TestHost_SaveUnknownCharacter(t *testing.T) {
	h := host.New(nil, host.WithStore(memory.NewStore()))
	defer h.Close()

	err := h.Save(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestHost_StorelessOperationsFail(t *testing.T) {
	h := host.New(nil)
	defer h.Close()
	ctx := context.Background()

	h.Engine("miko")
	assert.ErrorIs(t, h.Save(ctx, "miko"), host.ErrNoStore)
	assert.ErrorIs(t, h.Restore(ctx, "miko"), host.ErrNoStore)
	assert.ErrorIs(t, h.Delete(ctx, "miko"), host.ErrNoStore)
	_, err := h.List(ctx)
	assert.ErrorIs(t, err, host.ErrNoStore)
}

func TestHost_ConcurrentSaves(t *testing.T) {
	store := &SlowStore{}
	h := host.New(nil, host.WithStore(store))
	defer h.Close()
	ctx := context.Background()

	h.Engine("race")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Save(ctx, "race"))
		}()
	}
	wg.Wait()

	snap, err := store.Load(ctx, "race")
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestHost_SaveAllCollectsFailures(t *testing.T) {
	store := memory.NewStore()
	h := host.New(nil, host.WithStore(store))
	defer h.Close()
	ctx := context.Background()

	h.Engine("a")
	h.Engine("b").Destroy() // snapshotting a destroyed engine fails

	err := h.SaveAll(ctx)
	assert.ErrorContains(t, err, "b")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "a")
}

func TestHost_TickAllAdvancesEveryEngine(t *testing.T) {
	h := host.New(nil)
	defer h.Close()

	a := h.Engine("a")
	b := h.Engine("b")
	h.TickAll(250 * time.Millisecond)

	assert.Equal(t, 250*time.Millisecond, a.Now())
	assert.Equal(t, 250*time.Millisecond, b.Now())
}

func TestHost_RemoveDestroysEngine(t *testing.T) {
	h := host.New(nil)
	defer h.Close()

	eng := h.Engine("miko")
	h.Remove("miko")

	assert.True(t, eng.Destroyed())
	_, ok := h.Lookup("miko")
	assert.False(t, ok)
}
