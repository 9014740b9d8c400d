// Package depgraph keeps the include graph between R files.
//
// Рёбра всегда направлены от включающего файла к включаемому. Обратные
// директивы (@lsp-sourced-by) хранятся как улики для выбора родителя и
// превращаются в прямое ребро parent -> child, только если сам родитель
// ещё не подключает ребёнка.
package depgraph

import (
	"fmt"

	"raven/internal/source"
)

// Edge is one include relationship, From sources To.
type Edge struct {
	From           string
	To             string
	CallSiteLine   *uint32
	CallSiteColumn *uint32
	Local          bool
	Chdir          bool
	IsSysSource    bool
	// SysSourceGlobalEnv is only meaningful with IsSysSource.
	SysSourceGlobalEnv bool
	IsDirective        bool
}

// edgeKey is the identity of an edge among the outgoing edges of one file.
// Provenance (IsDirective) is not part of it.
type edgeKey struct {
	to          string
	line, col   uint32
	positioned  bool
	local       bool
	chdir       bool
	isSysSource bool
}

func (e Edge) key() edgeKey {
	k := edgeKey{to: e.To, local: e.Local, chdir: e.Chdir, isSysSource: e.IsSysSource}
	if p, ok := e.CallSite(); ok {
		k.line, k.col, k.positioned = p.Line, p.Col, true
	}
	return k
}

// CallSite returns the include position when it is known. A line without
// a column means the end of that line.
func (e Edge) CallSite() (source.Pos, bool) {
	if e.CallSiteLine == nil {
		return source.Pos{}, false
	}
	p := source.LineEnd(*e.CallSiteLine)
	if e.CallSiteColumn != nil {
		p.Col = *e.CallSiteColumn
	}
	return p, true
}

// InheritsSymbols reports whether definitions of To become visible in From.
func (e Edge) InheritsSymbols() bool {
	if e.Local {
		return false
	}
	return !e.IsSysSource || e.SysSourceGlobalEnv
}

func (e Edge) String() string {
	at := "?"
	if p, ok := e.CallSite(); ok {
		at = p.String()
	}
	return fmt.Sprintf("%s -> %s @%s", e.From, e.To, at)
}

func ptr(v uint32) *uint32 { return &v }
