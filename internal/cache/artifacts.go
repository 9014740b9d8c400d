package cache

import (
	"sync"

	"raven/internal/scope"
)

type artifactsEntry struct {
	fp     Fingerprint
	layers *scope.Layers
}

// ArtifactsCache maps URIs to their resolved artifacts: the file's own
// artifacts together with the environment its parent and includes give
// it, and the fingerprint that was computed under. The fingerprint only
// sees direct dependencies, so callers invalidate transitive dependents
// themselves when an interface changes.
type ArtifactsCache struct {
	mu      sync.RWMutex
	entries map[string]artifactsEntry
}

func NewArtifactsCache() *ArtifactsCache {
	return &ArtifactsCache{entries: make(map[string]artifactsEntry)}
}

// GetIfFresh returns the layers only if they were computed under fp.
func (c *ArtifactsCache) GetIfFresh(uri string, fp Fingerprint) (*scope.Layers, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[uri]
	if !ok || e.fp != fp {
		return nil, false
	}
	return e.layers, true
}

// Get returns whatever is cached for uri, fresh or not.
func (c *ArtifactsCache) Get(uri string) (*scope.Layers, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[uri]
	return e.layers, ok
}

func (c *ArtifactsCache) Insert(uri string, fp Fingerprint, l *scope.Layers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[uri] = artifactsEntry{fp: fp, layers: l}
}

func (c *ArtifactsCache) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

func (c *ArtifactsCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *ArtifactsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
