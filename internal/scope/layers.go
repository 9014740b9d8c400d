package scope

import (
	"raven/internal/source"
)

// Include is what one inheriting source() of a file contributes.
type Include struct {
	Pos    source.Pos
	Func   int
	Target string
	// Symbols is the target's scope at its end; nil when it could not be
	// resolved.
	Symbols map[string]Symbol
}

// Layers splits the environment of a whole file by origin, so that many
// positions can be checked against one traversal.
type Layers struct {
	URI       string
	Artifacts *Artifacts
	// Base is the parent's scope at its call site.
	Base     map[string]Symbol
	Includes []Include
	// Result carries the chain and errors of the traversal; Symbols is the
	// scope at end of file.
	Result Result
}

// LayersOf resolves the parent and every inheriting include of uri once.
func (r *Resolver) LayersOf(uri string) *Layers {
	art, ok := r.Files.Artifacts(uri)
	if !ok {
		return &Layers{URI: uri}
	}
	w := newWalk(r)
	w.visit(uri)
	l := &Layers{URI: uri, Artifacts: art}

	ctx := r.Paths.ForBackward(uri)
	l.Base, ctx = w.parentScope(uri, ctx, 0)

	w.stack = append(w.stack, uri)
	for _, ev := range art.Timeline {
		switch ev.Kind {
		case EventWorkingDirectory:
			ctx = ctx.WithWorkingDirectory(ev.Path)
		case EventSource:
			if !ev.Source.InheritsSymbols() {
				continue
			}
			target, _ := ctx.Resolve(ev.Source.Path)
			l.Includes = append(l.Includes, Include{
				Pos:     ev.Pos,
				Func:    ev.Func,
				Target:  target,
				Symbols: w.include(uri, ev, ctx, 0),
			})
		}
	}
	w.stack = w.stack[:0]

	w.res.Symbols = l.At(source.EOF)
	l.Result = w.res
	return l
}

// At assembles the scope at p from the layers; it matches ScopeAt.
func (l *Layers) At(p source.Pos) map[string]Symbol {
	out := make(map[string]Symbol, len(l.Base))
	for name, sym := range l.Base {
		out[name] = sym
	}
	if l.Artifacts == nil {
		return out
	}
	inherited := make(map[string]Symbol)
	for _, inc := range l.Includes {
		if !inc.Pos.Before(p) || !l.Artifacts.inFunc(inc.Func, p) {
			continue
		}
		for name, sym := range inc.Symbols {
			if _, taken := inherited[name]; !taken {
				inherited[name] = sym
			}
		}
	}
	for name, sym := range inherited {
		out[name] = sym
	}
	for name, sym := range l.Artifacts.SymbolsAt(p) {
		out[name] = sym
	}
	return out
}

// Lookup finds name at p. local is Artifacts.SymbolsAt(p), passed in so
// callers checking many names at one position compute it once.
func (l *Layers) Lookup(local map[string]Symbol, name string, p source.Pos) (Symbol, bool) {
	if sym, ok := local[name]; ok {
		return sym, true
	}
	if l.Artifacts != nil {
		for _, inc := range l.Includes {
			if !inc.Pos.Before(p) || !l.Artifacts.inFunc(inc.Func, p) {
				continue
			}
			if sym, ok := inc.Symbols[name]; ok {
				return sym, true
			}
		}
	}
	sym, ok := l.Base[name]
	return sym, ok
}

// Later returns the first include at or after p that would provide name.
func (l *Layers) Later(name string, p source.Pos) (Include, bool) {
	for _, inc := range l.Includes {
		if inc.Pos.Before(p) {
			continue
		}
		if _, ok := inc.Symbols[name]; ok {
			return inc, true
		}
	}
	return Include{}, false
}

// Anywhere reports whether name is defined at top level of the file or by
// any of its includes or its parent, regardless of position.
func (l *Layers) Anywhere(name string) bool {
	if _, ok := l.Base[name]; ok {
		return true
	}
	if l.Artifacts != nil {
		if _, ok := l.Artifacts.Exported[name]; ok {
			return true
		}
	}
	for _, inc := range l.Includes {
		if _, ok := inc.Symbols[name]; ok {
			return true
		}
	}
	return false
}
