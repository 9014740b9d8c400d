package lsp

import (
	"raven/internal/pathres"
	"raven/internal/source"
	"raven/internal/syntax"
)

func (s *Server) handleDocumentSymbol(msg *rpcMessage) error {
	var params documentSymbolParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st := s.analysis()
	if st == nil {
		return s.sendResponse(msg.ID, []documentSymbol{})
	}
	doc, ok := st.Document(pathres.Canonical(params.TextDocument.URI))
	if !ok || doc.Tree == nil {
		return s.sendResponse(msg.ID, []documentSymbol{})
	}
	return s.sendResponse(msg.ID, buildDocumentSymbols(doc.Tree))
}

// buildDocumentSymbols lists the definitions made at top level, with the
// definitions local to each function nested beneath it.
func buildDocumentSymbols(tree *syntax.Tree) []documentSymbol {
	return symbolsIn(tree, -1)
}

func symbolsIn(tree *syntax.Tree, fn int) []documentSymbol {
	out := []documentSymbol{}
	for _, d := range tree.Defs {
		if d.Func != fn {
			continue
		}
		sym := documentSymbol{
			Name:           d.Name,
			Kind:           symbolKindVariable,
			Range:          fromRange(source.Range{Start: d.Pos, End: d.End}),
			SelectionRange: nameRange(d.Pos, d.Name),
		}
		if d.Value >= 0 && d.Value < len(tree.Funcs) {
			f := tree.Funcs[d.Value]
			sym.Kind = symbolKindFunction
			sym.Detail = f.ParamText
			if d.Pos.Before(f.End) {
				sym.Range = fromRange(source.Range{Start: d.Pos, End: f.End})
			}
			if children := symbolsIn(tree, d.Value); len(children) > 0 {
				sym.Children = children
			}
		}
		out = append(out, sym)
	}
	return out
}
