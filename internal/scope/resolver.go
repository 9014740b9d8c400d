package scope

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"raven/internal/depgraph"
	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/source"
)

// Provider hands out per-file inputs. Implementations may compute and
// cache on demand; a false result means the file is unknown.
type Provider interface {
	Artifacts(uri string) (*Artifacts, bool)
	Metadata(uri string) (*metadata.FileMetadata, bool)
}

// Settings bound the traversal.
type Settings struct {
	MaxChainDepth    int
	MaxForwardDepth  int
	MaxBackwardDepth int
	AssumeCallSite   CallSiteDefault
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxChainDepth:    20,
		MaxForwardDepth:  10,
		MaxBackwardDepth: 10,
		AssumeCallSite:   AssumeEnd,
	}
}

// Resolver answers scope queries over a dependency graph.
type Resolver struct {
	Files    Provider
	Graph    *depgraph.Graph
	Paths    pathres.Resolver
	Parents  ParentCache
	Settings Settings
}

// Parent returns the selected includer of child, cached per metadata
// fingerprint and incoming edges.
func (r *Resolver) Parent(child string) Parent {
	var key ParentKey
	if meta, ok := r.Files.Metadata(child); ok {
		key.Metadata = meta.Fingerprint()
	}
	key.ReverseEdges = r.Graph.ReverseEdgesHash(child)
	if r.Parents != nil {
		if p, ok := r.Parents.Get(child, key); ok {
			return p
		}
	}
	p := ResolveParent(child, r.Graph, r.Settings.AssumeCallSite)
	if r.Parents != nil {
		r.Parents.Insert(child, key, p)
	}
	return p
}

// ScopeAt resolves the symbols visible at pos in uri.
func (r *Resolver) ScopeAt(uri string, pos source.Pos) Result {
	w := newWalk(r)
	syms := w.resolve(uri, pos, r.Paths.ForBackward(uri), 0, 0, true)
	w.res.Symbols = syms
	return w.res
}

// walk is the state of one traversal.
type walk struct {
	r       *Resolver
	res     Result
	stack   []string // прямой обход: файлы, которые сейчас раскрываются
	up      []string // обратный обход: дети, для которых ищем родителя
	// exports memoizes included scopes by exportKey.
	exports map[string]map[string]Symbol
	errSeen map[string]struct{}
	visited map[string]struct{}
}

func newWalk(r *Resolver) *walk {
	return &walk{
		r:       r,
		exports: make(map[string]map[string]Symbol),
		errSeen: make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

func (w *walk) visit(uri string) {
	if _, seen := w.visited[uri]; !seen {
		w.visited[uri] = struct{}{}
		w.res.Chain = append(w.res.Chain, uri)
	}
}

func (w *walk) fail(e Error) {
	site := e.Site()
	key := e.Error() + "|" + site.URI + "|" + site.Pos.String()
	if c, ok := e.(CircularDependency); ok {
		// один и тот же цикл, найденный прямым и обратным обходом
		key = "cycle|" + strings.Join(c.Cycle, "|")
	}
	if _, dup := w.errSeen[key]; dup {
		return
	}
	w.errSeen[key] = struct{}{}
	w.res.Errors = append(w.res.Errors, e)
	if d, ok := e.(MaxDepthExceeded); ok {
		w.res.DepthExceeded = append(w.res.DepthExceeded, d.Site())
	}
}

func (w *walk) resolve(uri string, pos source.Pos, ctx pathres.Context, fwd, back int, withParent bool) map[string]Symbol {
	art, ok := w.r.Files.Artifacts(uri)
	if !ok {
		return map[string]Symbol{}
	}
	w.visit(uri)

	var base map[string]Symbol
	if withParent {
		base, ctx = w.parentScope(uri, ctx, back)
	}

	w.stack = append(w.stack, uri)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	local := make(map[string]Symbol)
	inherited := make(map[string]Symbol)
	for _, ev := range art.Timeline {
		if pos.Before(ev.Pos) {
			break
		}
		switch ev.Kind {
		case EventWorkingDirectory:
			ctx = ctx.WithWorkingDirectory(ev.Path)
		case EventDef:
			if art.inFunc(ev.Func, pos) {
				local[ev.Symbol.Name] = ev.Symbol
			}
		case EventFunctionScope:
			fs := art.FunctionScopes[ev.Scope]
			if fs.Contains(pos) {
				for _, p := range fs.Params {
					local[p.Name] = p
				}
			}
		case EventSource:
			if !ev.Pos.Before(pos) || !ev.Source.InheritsSymbols() || !art.inFunc(ev.Func, pos) {
				continue
			}
			for name, sym := range w.include(uri, ev, ctx, fwd) {
				if _, taken := inherited[name]; !taken {
					inherited[name] = sym
				}
			}
		}
	}

	out := make(map[string]Symbol, len(base)+len(inherited)+len(local))
	maps.Copy(out, base)
	maps.Copy(out, inherited)
	maps.Copy(out, local)
	return out
}

// include resolves the file named by a Source event at its end.
func (w *walk) include(uri string, ev Event, ctx pathres.Context, fwd int) map[string]Symbol {
	target, ok := ctx.Resolve(ev.Source.Path)
	if !ok {
		w.fail(MissingFile{URI: uri, Pos: ev.Pos, Path: ev.Source.Path})
		return nil
	}
	if i := slices.Index(w.stack, target); i >= 0 {
		cycle := append(slices.Clone(w.stack[i:]), target)
		w.fail(CircularDependency{URI: uri, Pos: ev.Pos, Cycle: cycle})
		return nil
	}
	s := w.r.Settings
	if fwd+1 > s.MaxForwardDepth || len(w.stack)+len(w.up) >= s.MaxChainDepth {
		limit := s.MaxForwardDepth
		if len(w.stack)+len(w.up) >= s.MaxChainDepth {
			limit = s.MaxChainDepth
		}
		w.fail(MaxDepthExceeded{URI: uri, Pos: ev.Pos, Depth: limit})
		return nil
	}
	if _, ok := w.r.Files.Artifacts(target); !ok {
		w.fail(MissingFile{URI: uri, Pos: ev.Pos, Path: ev.Source.Path})
		return nil
	}
	child := ctx.Child(pathres.URIToPath(target), ev.Source.Chdir)
	key := w.exportKey(target, child, fwd)
	if memo, ok := w.exports[key]; ok {
		return memo
	}
	syms := w.resolve(target, source.EOF, child, fwd+1, 0, false)
	w.exports[key] = syms
	return syms
}

// exportKey identifies everything an included scope depends on besides
// the files themselves: the directory relative paths resolve against, the
// remaining depth budget and the files already being expanded.
func (w *walk) exportKey(target string, child pathres.Context, fwd int) string {
	var b strings.Builder
	b.WriteString(target)
	b.WriteByte(0)
	b.WriteString(child.Effective())
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(fwd))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(len(w.up)))
	for _, u := range w.stack {
		b.WriteByte(0)
		b.WriteString(u)
	}
	return b.String()
}

// parentScope resolves the scope the parent of uri has at its call site,
// and the path context uri inherits from it.
func (w *walk) parentScope(uri string, ctx pathres.Context, back int) (map[string]Symbol, pathres.Context) {
	p := w.r.Parent(uri)
	if p.Kind == ParentNone {
		return nil, ctx
	}
	if p.Kind == ParentAmbiguous {
		w.fail(AmbiguousParents{URI: uri, Selected: p.URI, Alternatives: p.Alternatives})
	}
	if p.Edge.From != "" && !p.Edge.InheritsSymbols() {
		return nil, ctx
	}

	up := append(slices.Clone(w.up), uri)
	if i := slices.Index(up, p.URI); i >= 0 {
		cycle := append(slices.Clone(up[i:]), p.URI)
		slices.Reverse(cycle)
		w.fail(CircularDependency{URI: uri, Cycle: cycle})
		return nil, ctx
	}
	if back+1 > w.r.Settings.MaxBackwardDepth {
		w.fail(MaxDepthExceeded{URI: uri, Depth: w.r.Settings.MaxBackwardDepth})
		return nil, ctx
	}

	meta, _ := w.r.Files.Metadata(p.URI)
	parentCtx := w.r.Paths.ForMetadata(p.URI, meta)

	saved := w.up
	w.up = up
	scope := w.resolve(p.URI, p.CallSite, parentCtx, 0, back+1, true)
	w.up = saved

	return scope, parentCtx.Child(pathres.URIToPath(uri), p.Edge.Chdir)
}
