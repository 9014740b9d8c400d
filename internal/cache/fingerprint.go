// Package cache holds the analysis caches: extracted metadata, resolved
// per-file artifacts keyed by fingerprint, and parent choices.
//
// Each cache has its own lock, so it can be filled on read paths without
// the primary state lock.
package cache

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Fingerprint identifies every input an artifact was computed from.
type Fingerprint uint64

// FingerprintOf combines the content hash of the file, the hash of its
// outgoing edges, the combined interface hash of what it includes and the
// workspace index version.
func FingerprintOf(self, edges, upstream, indexVersion uint64) Fingerprint {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], self)
	binary.LittleEndian.PutUint64(buf[8:], edges)
	binary.LittleEndian.PutUint64(buf[16:], upstream)
	binary.LittleEndian.PutUint64(buf[24:], indexVersion)
	return Fingerprint(xxh3.Hash(buf[:]))
}

// Combine folds a list of hashes in order; used for the upstream interface
// hash of a file's dependencies.
func Combine(hashes ...uint64) uint64 {
	h := xxh3.New()
	var buf [8]byte
	for _, v := range hashes {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
