package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

// defaultLockTTL bounds how long a crashed replica keeps a character's
// distributed lock.
const defaultLockTTL = 30 * time.Second

// ErrNoStore is returned by persistence operations when the host was
// built without a snapshot store.
var ErrNoStore = errors.New("no snapshot store configured")

// Factory builds the engine for a character the first time it is
// acquired.
type Factory func(name string) *avatar.Engine

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Host manages a registry of named character engines over one shared
// snapshot store. It uses reference counting to garbage collect unused
// per-character locks, and an optional distributed locker so several
// replicas can serve the same characters without clobbering snapshots.
type Host struct {
	factory Factory
	store   ports.StateStore

	mu      sync.Mutex
	engines map[string]*avatar.Engine
	locks   map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Host.
type Option func(*Host)

// WithStore enables snapshot persistence for the registry.
func WithStore(store ports.StateStore) Option {
	return func(h *Host) { h.store = store }
}

// WithLocker enables distributed locking around snapshot access.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(h *Host) { h.locker = locker }
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(h *Host) {
		if ttl > 0 {
			h.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Host.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Host. A nil factory builds plain engines named after the
// character.
func New(factory Factory, opts ...Option) *Host {
	if factory == nil {
		factory = func(name string) *avatar.Engine {
			return avatar.New(avatar.WithName(name))
		}
	}
	h := &Host{
		factory: factory,
		engines: make(map[string]*avatar.Engine),
		locks:   make(map[string]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(name) after
// unlocking.
func (h *Host) acquire(name string) *lockEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, exists := h.locks[name]
	if !exists {
		entry = &lockEntry{}
		h.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it
// reaches zero.
func (h *Host) release(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, exists := h.locks[name]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(h.locks, name)
	}
}

// Engine returns the registered engine for a character, creating it
// through the factory on first use.
func (h *Host) Engine(name string) *avatar.Engine {
	h.mu.Lock()
	defer h.mu.Unlock()

	eng, ok := h.engines[name]
	if !ok {
		eng = h.factory(name)
		h.engines[name] = eng
		h.logger.Info("character registered", "character", name)
	}
	return eng
}

// Lookup returns the engine for a character without creating one.
func (h *Host) Lookup(name string) (*avatar.Engine, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	eng, ok := h.engines[name]
	return eng, ok
}

// Names returns the registered character names in lexical order.
func (h *Host) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.engines))
	for name := range h.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered characters.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.engines)
}

// Remove destroys a character's engine and drops it from the registry.
// Its persisted snapshot is untouched.
func (h *Host) Remove(name string) {
	h.mu.Lock()
	eng, ok := h.engines[name]
	delete(h.engines, name)
	h.mu.Unlock()
	if ok {
		eng.Destroy()
		h.logger.Info("character removed", "character", name)
	}
}

// Close destroys every registered engine.
func (h *Host) Close() {
	h.mu.Lock()
	engines := make([]*avatar.Engine, 0, len(h.engines))
	for _, eng := range h.engines {
		engines = append(engines, eng)
	}
	h.engines = make(map[string]*avatar.Engine)
	h.mu.Unlock()
	for _, eng := range engines {
		eng.Destroy()
	}
}

// TickAll advances every registered engine by dt.
func (h *Host) TickAll(dt time.Duration) {
	h.mu.Lock()
	engines := make([]*avatar.Engine, 0, len(h.engines))
	for _, eng := range h.engines {
		engines = append(engines, eng)
	}
	h.mu.Unlock()
	for _, eng := range engines {
		eng.Tick(dt)
	}
}

// Save persists the character's current snapshot.
func (h *Host) Save(ctx context.Context, name string) error {
	if h.store == nil {
		return ErrNoStore
	}
	eng, ok := h.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown character: %s", name)
	}
	return h.WithLock(ctx, name, func(ctx context.Context) error {
		snap := eng.Snapshot()
		if snap == nil {
			return fmt.Errorf("character destroyed: %s", name)
		}
		return h.store.Save(ctx, name, snap)
	})
}

// SaveAll persists every registered character, collecting the failures.
func (h *Host) SaveAll(ctx context.Context) error {
	var errs []error
	for _, name := range h.Names() {
		if err := h.Save(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Restore loads the character's persisted snapshot into its engine,
// creating the engine if needed.
func (h *Host) Restore(ctx context.Context, name string) error {
	if h.store == nil {
		return ErrNoStore
	}
	return h.WithLock(ctx, name, func(ctx context.Context) error {
		snap, err := h.store.Load(ctx, name)
		if err != nil {
			return err
		}
		h.Engine(name).Restore(snap)
		return nil
	})
}

// Delete removes the character's persisted snapshot.
func (h *Host) Delete(ctx context.Context, name string) error {
	if h.store == nil {
		return ErrNoStore
	}
	return h.WithLock(ctx, name, func(ctx context.Context) error {
		return h.store.Delete(ctx, name)
	})
}

// List returns the character ids with persisted snapshots.
func (h *Host) List(ctx context.Context) ([]string, error) {
	if h.store == nil {
		return nil, ErrNoStore
	}
	return h.store.List(ctx)
}

// Store returns the underlying snapshot store, or nil.
func (h *Host) Store() ports.StateStore {
	return h.store
}

// WithLock executes fn while holding the character's lock, layering the
// distributed lock on top when one is configured.
func (h *Host) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := h.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		h.release(name)
	}()

	if h.locker != nil {
		unlock, err := h.locker.Lock(ctx, name, h.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				h.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"character", name,
					"error", err,
				)
			}
		}()
	}

	return fn(ctx)
}
