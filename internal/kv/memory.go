package kv

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data)), nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

func (m *MemoryStore) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

func (m *MemoryStore) restore(data map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// MemoryBackend is a single shared in-memory store. It has no named stores, so
// callers namespace their keys in the root store.
type MemoryBackend struct {
	mu   sync.Mutex
	root *MemoryStore
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{root: NewMemoryStore()}
}

func (b *MemoryBackend) Root() Store {
	return b.root
}

func (b *MemoryBackend) Named(string) (Store, bool) {
	return nil, false
}

// Atomically serialises fn against other Atomically calls and restores the
// previous contents if fn fails. Plain writes made concurrently from outside
// Atomically are not isolated.
func (b *MemoryBackend) Atomically(ctx context.Context, fn func(ctx context.Context, b Backend) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	saved := b.root.snapshot()
	if err := fn(ctx, memoryTx{b}); err != nil {
		b.root.restore(saved)
		return err
	}
	return nil
}

// memoryTx is the backend handed to Atomically callbacks; nested calls run
// inline instead of taking the lock again.
type memoryTx struct {
	b *MemoryBackend
}

func (t memoryTx) Root() Store                { return t.b.root }
func (t memoryTx) Named(string) (Store, bool) { return nil, false }

func (t memoryTx) Atomically(ctx context.Context, fn func(ctx context.Context, b Backend) error) error {
	return fn(ctx, t)
}
