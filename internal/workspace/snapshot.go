// Package workspace keeps what is known about files that are not open in
// the editor: their content, extracted metadata and artifacts, a
// persistent store for warm starts, and the background indexer.
package workspace

import (
	"io/fs"
	"time"

	"github.com/zeebo/xxh3"
)

// FileSnapshot identifies one on-disk state of a file.
type FileSnapshot struct {
	ModTime     time.Time `msgpack:"mtime"`
	Size        int64     `msgpack:"size"`
	ContentHash uint64    `msgpack:"hash"`
}

// SnapshotOf builds a snapshot from stat info and, when given, content.
func SnapshotOf(info fs.FileInfo, content []byte) FileSnapshot {
	s := FileSnapshot{ModTime: info.ModTime(), Size: info.Size()}
	if content != nil {
		s.ContentHash = xxh3.Hash(content)
	}
	return s
}

// SameStat reports whether both snapshots agree on modification time and
// size; the content hash is not compared.
func (s FileSnapshot) SameStat(o FileSnapshot) bool {
	return s.ModTime.Equal(o.ModTime) && s.Size == o.Size
}
