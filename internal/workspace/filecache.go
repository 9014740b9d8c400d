package workspace

import (
	"os"
	"sync"

	"raven/internal/pathres"
)

type cachedFile struct {
	snap FileSnapshot
	text string
}

// FileCache holds the content of closed files, refreshed when the file's
// mtime or size changes. Disk reads happen outside the cache lock.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]cachedFile
}

func NewFileCache() *FileCache {
	return &FileCache{entries: make(map[string]cachedFile)}
}

// Read returns the content of uri, reading the disk only when the cached
// copy is stale.
func (c *FileCache) Read(uri string) (string, FileSnapshot, error) {
	path := pathres.URIToPath(uri)
	info, err := os.Stat(path)
	if err != nil {
		c.Invalidate(uri)
		return "", FileSnapshot{}, err
	}
	cur := SnapshotOf(info, nil)

	c.mu.RLock()
	e, ok := c.entries[uri]
	c.mu.RUnlock()
	if ok && e.snap.SameStat(cur) {
		return e.text, e.snap, nil
	}

	// #nosec G304 -- uri comes from the workspace
	data, err := os.ReadFile(path)
	if err != nil {
		return "", FileSnapshot{}, err
	}
	snap := SnapshotOf(info, data)
	c.mu.Lock()
	c.entries[uri] = cachedFile{snap: snap, text: string(data)}
	c.mu.Unlock()
	return string(data), snap, nil
}

// Peek returns cached content without touching the disk.
func (c *FileCache) Peek(uri string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[uri]
	return e.text, ok
}

func (c *FileCache) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
