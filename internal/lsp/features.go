package lsp

import (
	"raven/internal/analysis"
	"raven/internal/pathres"
	"raven/internal/source"
	"raven/internal/syntax"
)

// target is the open document a positional request is about.
type target struct {
	uri  string
	doc  *analysis.Document
	pos  source.Pos
	line string
}

// resolveTarget canonicalises the request URI and claims any deferred
// revalidation for it.
func (s *Server) resolveTarget(uri string, p position) (*analysis.State, target, bool) {
	st := s.analysis()
	if st == nil {
		return nil, target{}, false
	}
	uri = pathres.Canonical(uri)
	s.touch(uri)
	doc, ok := st.Document(uri)
	if !ok || doc.Tree == nil {
		return st, target{}, false
	}
	pos := toPos(p)
	return st, target{uri: uri, doc: doc, pos: pos, line: doc.File.LineText(pos.Line)}, true
}

// sourceCallAt returns the source() call whose path literal covers p.
func sourceCallAt(tree *syntax.Tree, p source.Pos) (syntax.SourceCall, bool) {
	for _, sc := range tree.Sources {
		if sc.PathRange.Start.AtOrBefore(p) && p.AtOrBefore(sc.PathRange.End) {
			return sc, true
		}
	}
	return syntax.SourceCall{}, false
}

// identAt returns the name under p, either a usage or a definition.
func identAt(tree *syntax.Tree, p source.Pos) (string, source.Pos, bool) {
	if u, ok := tree.UsageAt(p); ok {
		return u.Name, u.Pos, true
	}
	if d, ok := tree.DefAt(p); ok {
		return d.Name, d.Pos, true
	}
	return "", source.Pos{}, false
}
