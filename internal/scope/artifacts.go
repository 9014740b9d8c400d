package scope

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/zeebo/xxh3"

	"raven/internal/metadata"
	"raven/internal/source"
	"raven/internal/syntax"
)

// ComputeArtifacts summarises one file. It reads nothing but its arguments.
func ComputeArtifacts(uri string, meta *metadata.FileMetadata, tree *syntax.Tree) *Artifacts {
	a := &Artifacts{
		URI:      uri,
		Exported: make(map[string]Symbol),
	}
	if tree == nil {
		tree = &syntax.Tree{}
	}

	for i, f := range tree.Funcs {
		fs := FunctionScope{Start: f.Start, End: f.End, Parent: f.Parent}
		for _, p := range f.Params {
			fs.Params = append(fs.Params, Symbol{Name: p.Name, Kind: SymbolParameter, URI: uri, Pos: p.Pos})
		}
		a.FunctionScopes = append(a.FunctionScopes, fs)
		a.Timeline = append(a.Timeline, Event{Kind: EventFunctionScope, Pos: f.Start, Func: f.Parent, Scope: i})
	}

	for _, d := range tree.Defs {
		sym := Symbol{Name: d.Name, Kind: SymbolVariable, URI: uri, Pos: d.Pos}
		if d.Kind == syntax.DefFunction {
			sym.Kind = SymbolFunction
			sym.Signature = d.Signature
		}
		a.Timeline = append(a.Timeline, Event{Kind: EventDef, Pos: d.Pos, Func: d.Func, Symbol: sym})
	}

	if meta != nil {
		if wd := meta.WorkDir(); wd != "" {
			a.Timeline = append(a.Timeline, Event{Kind: EventWorkingDirectory, Pos: source.Start, Func: -1, Path: wd})
		}
		for _, src := range meta.Sources {
			fn := -1
			if !src.IsDirective {
				fn = callFunc(tree, src.Pos())
			}
			a.Timeline = append(a.Timeline, Event{Kind: EventSource, Pos: src.Pos(), Func: fn, Source: src})
		}
	}

	slices.SortStableFunc(a.Timeline, func(x, y Event) int {
		if c := x.Pos.Compare(y.Pos); c != 0 {
			return c
		}
		return int(order(x.Kind)) - int(order(y.Kind))
	})

	for _, ev := range a.Timeline {
		if ev.Kind == EventDef && ev.Func < 0 {
			a.Exported[ev.Symbol.Name] = ev.Symbol
		}
	}
	a.InterfaceHash = interfaceHash(a.Exported)
	return a
}

// при равных позициях: каталог, затем области функций, затем определения
func order(k EventKind) uint8 {
	switch k {
	case EventWorkingDirectory:
		return 0
	case EventFunctionScope:
		return 1
	case EventDef:
		return 2
	default:
		return 3
	}
}

func callFunc(tree *syntax.Tree, p source.Pos) int {
	for _, c := range tree.Sources {
		if c.Pos == p {
			return c.Func
		}
	}
	return tree.FuncAt(p)
}

// interfaceHash covers name, kind and signature of exported symbols in
// name order. Positions are left out: moving a definition does not change
// what dependents can see.
func interfaceHash(exported map[string]Symbol) uint64 {
	h := xxh3.New()
	var buf [4]byte
	str := func(s string) {
		binary.LittleEndian.PutUint32(buf[:], uint32(len(s))) // #nosec G115 -- length prefix only separates fields
		_, _ = h.Write(buf[:])
		_, _ = h.WriteString(s)
	}
	for _, name := range slices.Sorted(maps.Keys(exported)) {
		sym := exported[name]
		str(name)
		_, _ = h.Write([]byte{byte(sym.Kind)})
		str(sym.Signature)
	}
	return h.Sum64()
}

// SymbolsAt returns the file's own definitions visible at p, ignoring
// includes and parents.
func (a *Artifacts) SymbolsAt(p source.Pos) map[string]Symbol {
	out := make(map[string]Symbol)
	for _, ev := range a.Timeline {
		if p.Before(ev.Pos) {
			break
		}
		switch ev.Kind {
		case EventDef:
			if a.inFunc(ev.Func, p) {
				out[ev.Symbol.Name] = ev.Symbol
			}
		case EventFunctionScope:
			if a.FunctionScopes[ev.Scope].Contains(p) {
				for _, param := range a.FunctionScopes[ev.Scope].Params {
					out[param.Name] = param
				}
			}
		}
	}
	return out
}

// inFunc reports whether an event owned by function fn applies at p.
func (a *Artifacts) inFunc(fn int, p source.Pos) bool {
	if fn < 0 {
		return true
	}
	if fn >= len(a.FunctionScopes) {
		return false
	}
	return a.FunctionScopes[fn].Contains(p)
}
