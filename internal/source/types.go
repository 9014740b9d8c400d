package source

import (
	"fmt"
	"math"
)

// FileFlags encodes how the content was normalized on load.
type FileFlags uint8

const (
	// FileVirtual indicates the content came from an editor buffer, not disk.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// MaxCol is the column sentinel meaning "end of line".
const MaxCol = math.MaxUint32

// Pos is a zero-based position. Columns count UTF-16 code units, as in LSP.
type Pos struct {
	Line uint32 `json:"line" yaml:"line" msgpack:"l"`
	Col  uint32 `json:"column" yaml:"column" msgpack:"c"`
}

// EOF sorts after every real position.
var EOF = Pos{Line: math.MaxUint32, Col: math.MaxUint32}

// Start sorts before every real position.
var Start = Pos{}

// LineEnd returns the end-of-line position for a line-only hint.
func LineEnd(line uint32) Pos {
	return Pos{Line: line, Col: MaxCol}
}

// Compare orders positions lexicographically by (line, column).
func (p Pos) Compare(o Pos) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Col < o.Col:
		return -1
	case p.Col > o.Col:
		return 1
	}
	return 0
}

// Before reports p < o.
func (p Pos) Before(o Pos) bool { return p.Compare(o) < 0 }

// AtOrBefore reports p <= o.
func (p Pos) AtOrBefore(o Pos) bool { return p.Compare(o) <= 0 }

// IsEOF reports whether p lies past the last line.
func (p Pos) IsEOF() bool {
	return p.Line == math.MaxUint32
}

func (p Pos) String() string {
	if p == EOF {
		return "EOF"
	}
	if p.Col == MaxCol {
		return fmt.Sprintf("%d:$", p.Line+1)
	}
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1)
}

// Range is a span of positions.
type Range struct {
	Start Pos `json:"start" yaml:"start"`
	End   Pos `json:"end" yaml:"end"`
}

// Contains reports whether p lies within r, inclusive of both ends.
func (r Range) Contains(p Pos) bool {
	return r.Start.AtOrBefore(p) && p.AtOrBefore(r.End)
}
