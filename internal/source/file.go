package source

import (
	"fmt"
	"os"
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/zeebo/xxh3"
)

// File is one normalized source text with a line index.
type File struct {
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    uint64
	Flags   FileFlags
}

// NewFile normalizes BOM and CRLF and indexes lines.
func NewFile(path string, content []byte, flags FileFlags) *File {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	return &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    xxh3.Hash(content),
		Flags:   flags,
	}
}

// FromString wraps in-memory editor text.
func FromString(path, text string) *File {
	return NewFile(path, []byte(text), FileVirtual)
}

// Load reads a file from disk.
func Load(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewFile(path, content, 0), nil
}

// Text returns the normalized content.
func (f *File) Text() string {
	return string(f.Content)
}

// LineCount returns the number of lines; an empty file has one.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

func (f *File) lineBounds(line uint32) (start, end uint32, ok bool) {
	n := uint32(len(f.LineIdx))
	if line > n {
		return 0, 0, false
	}
	if line > 0 {
		start = f.LineIdx[line-1] + 1
	}
	if line < n {
		end = f.LineIdx[line]
	} else {
		end = uint32(len(f.Content))
	}
	return start, end, true
}

// LineText returns the text of a zero-based line without its newline.
func (f *File) LineText(line uint32) string {
	start, end, ok := f.lineBounds(line)
	if !ok {
		return ""
	}
	return string(f.Content[start:end])
}

// PosOf converts a byte offset into a position with a UTF-16 column.
func (f *File) PosOf(off uint32) Pos {
	line := lineOf(f.LineIdx, off)
	start, _, _ := f.lineBounds(line)
	return Pos{Line: line, Col: utf16Units(f.Content[start:off])}
}

// OffsetOf converts a position back into a byte offset, clamping to the line end.
func (f *File) OffsetOf(p Pos) uint32 {
	start, end, ok := f.lineBounds(p.Line)
	if !ok {
		return uint32(len(f.Content))
	}
	var units uint32
	i := start
	for i < end && units < p.Col {
		r, size := utf8.DecodeRune(f.Content[i:end])
		need := uint32(1)
		if r > 0xFFFF {
			need = 2
		}
		if units+need > p.Col {
			break
		}
		units += need
		i += uint32(size)
	}
	return i
}

// UTF16Column converts a byte column within line text into UTF-16 units.
func UTF16Column(line string, byteCol int) uint32 {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	if byteCol < 0 {
		byteCol = 0
	}
	return utf16Units([]byte(line[:byteCol]))
}

// UTF16Len counts UTF-16 code units in s.
func UTF16Len(s string) uint32 {
	return utf16Units([]byte(s))
}

func utf16Units(b []byte) uint32 {
	var n uint32
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
		b = b[size:]
	}
	return n
}
