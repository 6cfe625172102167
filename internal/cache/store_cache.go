package cache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/domain/store"
)

// StoreCache is a read-mostly in-process cache of store settings. Slot
// queries hit it on every request; invalidation happens when a StoreUpdated
// event arrives.
type StoreCache struct {
	mu    sync.RWMutex
	store map[uuid.UUID]*store.Store
}

// NewStoreCache creates an empty cache.
func NewStoreCache() *StoreCache {
	return &StoreCache{store: make(map[uuid.UUID]*store.Store)}
}

// Get returns the cached store, if present.
func (c *StoreCache) Get(id uuid.UUID) (*store.Store, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.store[id]
	return s, ok
}

// Set caches a store.
func (c *StoreCache) Set(s *store.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[s.ID()] = s
}

// Invalidate drops a store from the cache.
func (c *StoreCache) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, id)
}
