package cache

import (
	"sync"

	"raven/internal/scope"
)

type parentEntry struct {
	key    scope.ParentKey
	parent scope.Parent
}

// ParentCache remembers parent choices per child. An entry answers only
// for the key it was stored under.
type ParentCache struct {
	mu      sync.RWMutex
	entries map[string]parentEntry
}

func NewParentCache() *ParentCache {
	return &ParentCache{entries: make(map[string]parentEntry)}
}

func (c *ParentCache) Get(child string, key scope.ParentKey) (scope.Parent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[child]
	if !ok || e.key != key {
		return scope.Parent{}, false
	}
	return e.parent, true
}

func (c *ParentCache) Insert(child string, key scope.ParentKey, p scope.Parent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[child] = parentEntry{key: key, parent: p}
}

func (c *ParentCache) Invalidate(child string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, child)
}

func (c *ParentCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

var _ scope.ParentCache = (*ParentCache)(nil)
