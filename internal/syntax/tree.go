// Package syntax produces a lightweight summary of an R file: the
// definitions, function scopes, include calls and identifier usages that the
// cross-file analysis needs. It is not a full R parser; unknown constructs are
// skipped token by token.
package syntax

import "raven/internal/source"

// DefKind classifies a definition.
type DefKind uint8

const (
	DefVariable DefKind = iota
	DefFunction
)

func (k DefKind) String() string {
	if k == DefFunction {
		return "function"
	}
	return "variable"
}

// Def is one binding introduced by the file.
type Def struct {
	Name string
	Kind DefKind
	Pos  source.Pos
	End  source.Pos
	// Func is the index of the innermost enclosing function, or -1 at top level.
	// Super-assignments (<<-, ->>) are recorded at top level.
	Func int
	// Value is the index into Tree.Funcs when the value is a function literal, else -1.
	Value     int
	Signature string
}

// Param is a formal argument of a function literal.
type Param struct {
	Name    string
	Pos     source.Pos
	Default string
}

// Func is a function literal and the extent of its parameter scope.
type Func struct {
	Start  source.Pos
	End    source.Pos
	Params []Param
	// ParamText is the source text of the parameter list including parens.
	ParamText string
	Parent    int
}

// Signature renders name(params) the way hover and completion show it.
func (f Func) Signature(name string) string {
	if f.ParamText == "" {
		return name + "()"
	}
	return name + f.ParamText
}

// Contains reports whether p lies within the function, inclusive.
func (f Func) Contains(p source.Pos) bool {
	return f.Start.AtOrBefore(p) && p.AtOrBefore(f.End)
}

// SourceCall is a detected source()/sys.source() with a literal path.
type SourceCall struct {
	Path string
	// Pos is the start of the call expression.
	Pos source.Pos
	End source.Pos
	// PathRange covers the string literal.
	PathRange source.Range
	Local     bool
	Chdir     bool
	IsSys     bool
	GlobalEnv bool
	Func      int
}

// Usage is an identifier read.
type Usage struct {
	Name string
	Pos  source.Pos
	End  source.Pos
	// Call marks the head of a call expression, f in f(x).
	Call bool
	// InArgs marks identifiers inside call or index arguments, where
	// non-standard evaluation is common.
	InArgs bool
	// InFormula marks identifiers to the right of '~'.
	InFormula bool
	Func      int
}

// Library records library()/require()/loadNamespace() with a literal name.
type Library struct {
	Name string
	Pos  source.Pos
}

// CallSite is any call with a plain name head; used for signature help.
type CallSite struct {
	Name   string
	Pos    source.Pos
	LParen source.Pos
	End    source.Pos
	// Commas are the positions of the top-level argument separators.
	Commas []source.Pos
}

// Block is a brace-delimited region.
type Block struct {
	Start source.Pos
	End   source.Pos
}

// Tree is the parse summary of one file.
type Tree struct {
	File      *source.File
	Defs      []Def
	Funcs     []Func
	Sources   []SourceCall
	Usages    []Usage
	Libraries []Library
	Calls     []CallSite
	Blocks    []Block
	// Errors counts tokens the parser had to skip.
	Errors int
}

// FuncAt returns the innermost function containing p, or -1.
func (t *Tree) FuncAt(p source.Pos) int {
	best := -1
	for i, f := range t.Funcs {
		if !f.Contains(p) {
			continue
		}
		if best < 0 || t.Funcs[best].Start.Before(f.Start) {
			best = i
		}
	}
	return best
}

// UsageAt returns the usage whose identifier covers p.
func (t *Tree) UsageAt(p source.Pos) (Usage, bool) {
	for _, u := range t.Usages {
		if u.Pos.AtOrBefore(p) && p.AtOrBefore(u.End) {
			return u, true
		}
	}
	return Usage{}, false
}

// DefAt returns the definition whose name covers p.
func (t *Tree) DefAt(p source.Pos) (Def, bool) {
	for _, d := range t.Defs {
		if d.Pos.AtOrBefore(p) && p.AtOrBefore(d.End) {
			return d, true
		}
	}
	return Def{}, false
}

// EnclosingCall returns the innermost call whose parentheses contain p,
// with the zero-based index of the active argument.
func (t *Tree) EnclosingCall(p source.Pos) (CallSite, int, bool) {
	var best CallSite
	found := false
	for _, c := range t.Calls {
		if !c.LParen.Before(p) || !p.AtOrBefore(c.End) {
			continue
		}
		if !found || best.LParen.Before(c.LParen) {
			best, found = c, true
		}
	}
	if !found {
		return CallSite{}, 0, false
	}
	active := 0
	for _, comma := range best.Commas {
		if comma.Before(p) {
			active++
		}
	}
	return best, active, true
}
