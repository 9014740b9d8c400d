package workspace

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"raven/internal/metadata"
	"raven/internal/scope"
)

// DefaultIndexCapacity bounds the number of closed files kept.
const DefaultIndexCapacity = 5000

// Entry is what the index knows about one closed file.
type Entry struct {
	Snapshot FileSnapshot
	Metadata *metadata.FileMetadata
	// Artifacts may be nil for entries restored from the store; they are
	// computed on first use.
	Artifacts *scope.Artifacts
	IndexedAt time.Time
}

// Index is the workspace index of closed files. Every mutation bumps a
// version that takes part in artifact fingerprints.
type Index struct {
	entries *lru.Cache[string, *Entry]
	version atomic.Uint64

	mu   sync.RWMutex
	open map[string]struct{}
}

// NewIndex returns an index with the given capacity; capacity <= 0
// selects DefaultIndexCapacity.
func NewIndex(capacity int) *Index {
	if capacity <= 0 {
		capacity = DefaultIndexCapacity
	}
	entries, err := lru.New[string, *Entry](capacity)
	if err != nil {
		panic(err)
	}
	return &Index{entries: entries, open: make(map[string]struct{})}
}

// Version is monotonically increasing.
func (ix *Index) Version() uint64 { return ix.version.Load() }

func (ix *Index) Get(uri string) (*Entry, bool) {
	return ix.entries.Get(uri)
}

// UpdateFromDisk stores an entry read from disk. It is ignored for
// documents open in the editor, whose buffer is authoritative.
func (ix *Index) UpdateFromDisk(uri string, e *Entry) bool {
	if ix.IsOpen(uri) {
		return false
	}
	if e.IndexedAt.IsZero() {
		e.IndexedAt = time.Now()
	}
	ix.entries.Add(uri, e)
	ix.version.Add(1)
	return true
}

func (ix *Index) Remove(uri string) {
	if ix.entries.Remove(uri) {
		ix.version.Add(1)
	}
}

// MarkOpen records that the editor owns uri and drops its disk entry.
func (ix *Index) MarkOpen(uri string) {
	ix.mu.Lock()
	ix.open[uri] = struct{}{}
	ix.mu.Unlock()
	ix.Remove(uri)
}

func (ix *Index) MarkClosed(uri string) {
	ix.mu.Lock()
	delete(ix.open, uri)
	ix.mu.Unlock()
}

func (ix *Index) IsOpen(uri string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.open[uri]
	return ok
}

// Resize changes the capacity; capacity <= 0 selects DefaultIndexCapacity.
// Evicting entries bumps the version.
func (ix *Index) Resize(capacity int) (evicted int) {
	if capacity <= 0 {
		capacity = DefaultIndexCapacity
	}
	evicted = ix.entries.Resize(capacity)
	if evicted > 0 {
		ix.version.Add(1)
	}
	return evicted
}

// URIs lists indexed files, least recently used first.
func (ix *Index) URIs() []string { return ix.entries.Keys() }

func (ix *Index) Len() int { return ix.entries.Len() }
