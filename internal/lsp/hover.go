package lsp

import (
	"fmt"
	"strings"

	"raven/internal/analysis"
	"raven/internal/pathres"
	"raven/internal/scope"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st, t, ok := s.resolveTarget(params.TextDocument.URI, params.Position)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildHover(st, t))
}

func buildHover(st *analysis.State, t target) *hover {
	tree := t.doc.Tree
	if sc, ok := sourceCallAt(tree, t.pos); ok {
		resolved, ok := st.Resolve(t.uri, sc.Path)
		if !ok {
			return nil
		}
		rng := fromRange(sc.PathRange)
		return &hover{
			Contents: markupContent{Kind: "markdown", Value: "`" + pathres.URIToPath(resolved) + "`"},
			Range:    &rng,
		}
	}

	name, at, ok := identAt(tree, t.pos)
	if !ok {
		return nil
	}
	var sym scope.Symbol
	if d, isDef := tree.DefAt(t.pos); isDef {
		sym = scope.Symbol{Name: d.Name, URI: t.uri, Pos: d.Pos, Signature: d.Signature}
		if d.Value >= 0 {
			sym.Kind = scope.SymbolFunction
		}
	} else if sym, ok = st.Lookup(t.uri, name, at.Line, at.Col); !ok {
		return nil
	}
	rng := nameRange(at, name)
	return &hover{
		Contents: markupContent{Kind: "markdown", Value: hoverText(sym, t.uri)},
		Range:    &rng,
	}
}

func hoverText(sym scope.Symbol, from string) string {
	var b strings.Builder
	label := sym.Signature
	if label == "" {
		label = sym.Name
	}
	b.WriteString("```r\n")
	b.WriteString(label)
	b.WriteString("\n```\n\n")
	where := "this file"
	if sym.URI != from {
		where = "`" + pathres.Base(sym.URI) + "`"
	}
	fmt.Fprintf(&b, "%s defined in %s, line %d", sym.Kind, where, sym.Pos.Line+1)
	return b.String()
}
