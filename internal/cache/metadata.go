package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"raven/internal/metadata"
)

// DefaultMetadataCapacity bounds the metadata cache.
const DefaultMetadataCapacity = 1000

// MetadataCache keeps the latest extraction per URI. Reads do not promote
// entries.
type MetadataCache struct {
	lru *lru.Cache[string, *metadata.FileMetadata]
}

// NewMetadataCache returns a cache holding at most size entries; size <= 0
// selects DefaultMetadataCapacity.
func NewMetadataCache(size int) *MetadataCache {
	if size <= 0 {
		size = DefaultMetadataCapacity
	}
	c, err := lru.New[string, *metadata.FileMetadata](size)
	if err != nil {
		// lru.New fails only for non-positive sizes
		panic(err)
	}
	return &MetadataCache{lru: c}
}

func (c *MetadataCache) Get(uri string) (*metadata.FileMetadata, bool) {
	return c.lru.Peek(uri)
}

func (c *MetadataCache) Insert(uri string, meta *metadata.FileMetadata) {
	c.lru.Add(uri, meta)
}

func (c *MetadataCache) Remove(uri string) {
	c.lru.Remove(uri)
}

// Resize changes the capacity, evicting least recently used entries when
// shrinking. size <= 0 selects DefaultMetadataCapacity.
func (c *MetadataCache) Resize(size int) (evicted int) {
	if size <= 0 {
		size = DefaultMetadataCapacity
	}
	return c.lru.Resize(size)
}

func (c *MetadataCache) Len() int {
	return c.lru.Len()
}

func (c *MetadataCache) Purge() {
	c.lru.Purge()
}
