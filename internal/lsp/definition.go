package lsp

import (
	"raven/internal/analysis"
	"raven/internal/scope"
)

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params definitionParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st, t, ok := s.resolveTarget(params.TextDocument.URI, params.Position)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	return s.sendResponse(msg.ID, buildDefinition(st, t))
}

func buildDefinition(st *analysis.State, t target) []location {
	tree := t.doc.Tree
	if sc, ok := sourceCallAt(tree, t.pos); ok {
		resolved, ok := st.Resolve(t.uri, sc.Path)
		if !ok || !st.Known(resolved) {
			return []location{}
		}
		return []location{{URI: resolved}}
	}
	name, at, ok := identAt(tree, t.pos)
	if !ok {
		return []location{}
	}
	var sym scope.Symbol
	if d, isDef := tree.DefAt(t.pos); isDef {
		sym = scope.Symbol{Name: d.Name, URI: t.uri, Pos: d.Pos}
	} else if sym, ok = st.Lookup(t.uri, name, at.Line, at.Col); !ok {
		return []location{}
	}
	return []location{{URI: sym.URI, Range: nameRange(sym.Pos, sym.Name)}}
}
