package lsp

import (
	"maps"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode/utf16"

	"raven/internal/analysis"
	"raven/internal/pathres"
	"raven/internal/scope"
	"raven/internal/workspace"
)

// sourcePathPrefix matches an unterminated path literal in source() or
// sys.source() up to the cursor.
var sourcePathPrefix = regexp.MustCompile(`(?:sys\.)?source\(\s*(?:file\s*=\s*)?["']([^"']*)$`)

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st, t, ok := s.resolveTarget(params.TextDocument.URI, params.Position)
	if !ok {
		return s.sendResponse(msg.ID, completionList{Items: []completionItem{}})
	}
	return s.sendResponse(msg.ID, buildCompletion(st, t))
}

func buildCompletion(st *analysis.State, t target) completionList {
	before := prefixUTF16(t.line, t.pos.Col)
	if m := sourcePathPrefix.FindStringSubmatch(before); m != nil {
		return completionList{Items: pathCompletions(st, t.uri, m[1])}
	}
	word := identPrefix(before)
	res := st.ScopeAt(t.uri, t.pos.Line, t.pos.Col)
	items := make([]completionItem, 0, len(res.Symbols))
	for _, name := range slices.Sorted(maps.Keys(res.Symbols)) {
		if !strings.HasPrefix(name, word) {
			continue
		}
		items = append(items, symbolCompletion(res.Symbols[name], t.uri))
	}
	return completionList{Items: items}
}

func symbolCompletion(sym scope.Symbol, from string) completionItem {
	item := completionItem{Label: sym.Name, Kind: completionKindVariable}
	if sym.Kind == scope.SymbolFunction {
		item.Kind = completionKindFunction
		item.Detail = sym.Signature
	}
	if sym.URI != from {
		if item.Detail != "" {
			item.Detail += " "
		}
		item.Detail += "(" + pathres.Base(sym.URI) + ")"
	}
	return item
}

// pathCompletions lists R files and directories next to the partially
// typed path, resolved the same way the source() call would be.
func pathCompletions(st *analysis.State, uri, typed string) []completionItem {
	dir, _ := path.Split(typed)
	ref := dir
	if ref == "" {
		ref = "."
	}
	resolved, ok := st.Resolve(uri, ref)
	if !ok {
		return []completionItem{}
	}
	entries, err := os.ReadDir(pathres.URIToPath(resolved))
	if err != nil {
		return []completionItem{}
	}
	self := pathres.Base(uri)
	items := make([]completionItem, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case e.IsDir():
			items = append(items, completionItem{Label: name + "/", Kind: completionKindFile})
		case workspace.IsRFile(name) && !(dir == "" && name == self):
			items = append(items, completionItem{Label: name, Kind: completionKindFile})
		}
	}
	return items
}

// prefixUTF16 returns the part of line before a UTF-16 column.
func prefixUTF16(line string, col uint32) string {
	var units uint32
	for i, r := range line {
		if units >= col {
			return line[:i]
		}
		units += safeUint32(utf16.RuneLen(r))
	}
	return line
}

func identPrefix(s string) string {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c == '.' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			i--
			continue
		}
		break
	}
	return s[i:]
}
