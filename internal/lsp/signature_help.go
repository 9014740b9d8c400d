package lsp

import (
	"strings"

	"raven/internal/analysis"
	"raven/internal/pathres"
	"raven/internal/scope"
	"raven/internal/source"
)

func (s *Server) handleSignatureHelp(msg *rpcMessage) error {
	var params signatureHelpParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st, t, ok := s.resolveTarget(params.TextDocument.URI, params.Position)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildSignatureHelp(st, t))
}

func buildSignatureHelp(st *analysis.State, t target) *signatureHelp {
	call, active, ok := t.doc.Tree.EnclosingCall(t.pos)
	if !ok {
		return nil
	}
	sym, ok := st.Lookup(t.uri, call.Name, call.Pos.Line, call.Pos.Col)
	if !ok || sym.Kind != scope.SymbolFunction || sym.Signature == "" {
		return nil
	}
	params := parameterRanges(sym.Signature)
	if len(params) == 0 {
		active = 0
	} else if active >= len(params) {
		// extra arguments land in ... when there is one
		active = len(params) - 1
	}
	info := signatureInformation{Label: sym.Signature, Parameters: params}
	if sym.URI != t.uri {
		info.Documentation = "Defined in " + pathres.Base(sym.URI)
	}
	return &signatureHelp{
		Signatures:      []signatureInformation{info},
		ActiveParameter: active,
	}
}

// parameterRanges splits the parameter list of a rendered signature such
// as "f(x, y = c(1, 2))" into UTF-16 offsets of each parameter.
func parameterRanges(sig string) []parameterInformation {
	open := strings.IndexByte(sig, '(')
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return nil
	}
	inner := sig[open+1 : len(sig)-1]
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	var out []parameterInformation
	add := func(from, to int) {
		part := inner[from:to]
		lead := len(part) - len(strings.TrimLeft(part, " \t"))
		part = strings.TrimSpace(part)
		if part == "" {
			return
		}
		start := int(source.UTF16Len(sig[:open+1+from+lead]))
		out = append(out, parameterInformation{Label: [2]int{start, start + int(source.UTF16Len(part))}})
	}
	depth, from := 0, 0
	var quote byte
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			add(from, i)
			from = i + 1
		}
	}
	add(from, len(inner))
	return out
}
