// Package scope computes what is visible at a position in an R file,
// following source() calls forward and backward directives up to the
// file's parent.
package scope

import (
	"raven/internal/metadata"
	"raven/internal/source"
)

// SymbolKind classifies a visible name.
type SymbolKind uint8

const (
	SymbolVariable SymbolKind = iota
	SymbolFunction
	SymbolParameter
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolParameter:
		return "parameter"
	default:
		return "variable"
	}
}

// Symbol is a name together with the file and position that defined it.
// Columns count UTF-16 code units.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	URI       string
	Pos       source.Pos
	Signature string
}

// EventKind tags a timeline entry.
type EventKind uint8

const (
	EventDef EventKind = iota
	EventSource
	EventWorkingDirectory
	EventFunctionScope
)

// Event is one step of a file's timeline, ordered by Pos.
type Event struct {
	Kind EventKind
	Pos  source.Pos
	// Func is the index into Artifacts.FunctionScopes of the function the
	// event lives in, -1 at top level. Used by Def and Source.
	Func int

	Symbol Symbol                 // EventDef
	Source metadata.ForwardSource // EventSource
	Path   string                 // EventWorkingDirectory
	Scope  int                    // EventFunctionScope
}

// FunctionScope is the extent of a function body and its parameters.
type FunctionScope struct {
	Start  source.Pos
	End    source.Pos
	Params []Symbol
	Parent int
}

// Contains reports whether p is inside the function, inclusive.
func (f FunctionScope) Contains(p source.Pos) bool {
	return f.Start.AtOrBefore(p) && p.AtOrBefore(f.End)
}

// Artifacts is the per-file summary the resolver works from. It depends
// only on the file's own content and metadata.
type Artifacts struct {
	URI string
	// Exported maps top-level names to their last definition.
	Exported       map[string]Symbol
	Timeline       []Event
	InterfaceHash  uint64
	FunctionScopes []FunctionScope
}

// Result is the scope at one position.
type Result struct {
	Symbols map[string]Symbol
	// Chain lists the files visited, the queried file first.
	Chain  []string
	Errors []Error
	// DepthExceeded holds the include sites where traversal stopped.
	DepthExceeded []CallSite
}

// CallSite is a position inside a given file.
type CallSite struct {
	URI string
	Pos source.Pos
}
