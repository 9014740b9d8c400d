package depgraph

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"

	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/source"
)

// Conflict describes a detected source() call dropped in favour of an
// @lsp-source directive that targets the same file.
type Conflict struct {
	URI     string
	Line    uint32
	Column  uint32
	To      string
	Message string
}

// UpdateResult reports what UpdateFile did.
type UpdateResult struct {
	// Changed is set when the outgoing edges of the file or the edges
	// materialised from its backward directives differ from before.
	Changed   bool
	Conflicts []Conflict
}

// Graph is safe for concurrent use: many readers, one writer.
type Graph struct {
	mu sync.RWMutex

	own      map[string][]Edge              // рёбра из прямых ссылок файла
	backed   map[string][]Edge              // child -> рёбра из его обратных директив
	byParent map[string]map[string]struct{} // parent -> дети с обратными директивами на него
	evidence map[string][]BackwardEvidence

	forward map[string][]Edge              // итоговые исходящие рёбра
	reverse map[string]map[string]struct{} // to -> from
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		own:      make(map[string][]Edge),
		backed:   make(map[string][]Edge),
		byParent: make(map[string]map[string]struct{}),
		evidence: make(map[string][]BackwardEvidence),
		forward:  make(map[string][]Edge),
		reverse:  make(map[string]map[string]struct{}),
	}
}

// UpdateFile replaces everything uri contributes to the graph with what
// meta declares. content is consulted for match= hints and call-site
// inference of backward directives; it may be nil.
func (g *Graph) UpdateFile(uri string, meta *metadata.FileMetadata, res pathres.Resolver, content ContentFunc) UpdateResult {
	var result UpdateResult
	if meta == nil {
		meta = &metadata.FileMetadata{}
	}
	own, conflicts := buildOwnEdges(uri, meta, res)
	result.Conflicts = conflicts
	backed, evidence := buildBackedEdges(uri, meta, res, content)

	g.mu.Lock()
	defer g.mu.Unlock()

	before := g.edgesHashLocked(uri)
	beforeBacked := hashEdges(g.backed[uri])

	affected := map[string]struct{}{uri: {}}
	for _, e := range g.backed[uri] {
		affected[e.From] = struct{}{}
		g.unlinkParent(e.From, uri)
	}
	setOrDelete(g.own, uri, own)
	setOrDelete(g.backed, uri, backed)
	setOrDelete(g.evidence, uri, evidence)
	for _, e := range backed {
		affected[e.From] = struct{}{}
		children := g.byParent[e.From]
		if children == nil {
			children = make(map[string]struct{})
			g.byParent[e.From] = children
		}
		children[uri] = struct{}{}
	}
	for _, from := range slices.Sorted(maps.Keys(affected)) {
		g.rebuild(from)
	}

	result.Changed = before != g.edgesHashLocked(uri) || beforeBacked != hashEdges(backed)
	return result
}

func buildOwnEdges(uri string, meta *metadata.FileMetadata, res pathres.Resolver) ([]Edge, []Conflict) {
	ctx := res.ForMetadata(uri, meta)

	var directives, detected []Edge
	for _, src := range meta.Sources {
		to, ok := ctx.Resolve(src.Path)
		if !ok {
			continue
		}
		e := Edge{
			From:               uri,
			To:                 to,
			CallSiteLine:       ptr(src.Line),
			CallSiteColumn:     ptr(src.Column),
			Local:              src.Local,
			Chdir:              src.Chdir,
			IsSysSource:        src.IsSysSource,
			SysSourceGlobalEnv: src.SysSourceGlobalEnv,
			IsDirective:        src.IsDirective,
		}
		if src.IsDirective {
			directives = append(directives, e)
		} else {
			detected = append(detected, e)
		}
	}

	byTarget := make(map[string][]edgeKey, len(directives))
	for _, d := range directives {
		byTarget[d.To] = append(byTarget[d.To], d.key())
	}

	var conflicts []Conflict
	edges := directives
	for _, e := range detected {
		keys, declared := byTarget[e.To]
		if !declared {
			edges = append(edges, e)
			continue
		}
		if slices.Contains(keys, e.key()) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			URI:    uri,
			Line:   *e.CallSiteLine,
			Column: *e.CallSiteColumn,
			To:     e.To,
			Message: fmt.Sprintf("source() call to '%s' at line %d is overridden by an @lsp-source directive",
				pathres.Base(e.To), *e.CallSiteLine+1),
		})
	}
	return dedup(edges), conflicts
}

func buildBackedEdges(uri string, meta *metadata.FileMetadata, res pathres.Resolver, content ContentFunc) ([]Edge, []BackwardEvidence) {
	if len(meta.SourcedBy) == 0 {
		return nil, nil
	}
	ctx := res.ForBackward(uri)
	childName := pathres.Base(uri)

	var edges []Edge
	var evidence []BackwardEvidence
	seen := make(map[string]struct{}, len(meta.SourcedBy))
	for _, d := range meta.SourcedBy {
		parent, ok := ctx.Resolve(d.Path)
		if !ok || parent == uri {
			continue
		}
		ev := BackwardEvidence{Child: uri, Parent: parent, CallSite: d.CallSite, DirectiveLine: d.DirectiveLine}
		switch {
		case d.CallSite.Line != nil:
			p := source.LineEnd(*d.CallSite.Line)
			ev.Resolved = &p
		case content != nil:
			if text, ok := content(parent); ok {
				var p source.Pos
				var found bool
				if d.CallSite.Match != "" {
					p, found = resolveMatch(text, d.CallSite.Match)
				} else {
					p, found = inferCallSite(text, childName)
				}
				if found {
					ev.Resolved = &p
				}
			}
		}
		evidence = append(evidence, ev)

		if _, dup := seen[parent]; dup {
			continue
		}
		seen[parent] = struct{}{}
		e := Edge{From: parent, To: uri, IsDirective: true}
		if ev.Resolved != nil {
			e.CallSiteLine = ptr(ev.Resolved.Line)
			e.CallSiteColumn = ptr(ev.Resolved.Col)
		}
		edges = append(edges, e)
	}
	return edges, evidence
}

func dedup(edges []Edge) []Edge {
	if len(edges) == 0 {
		return nil
	}
	seen := make(map[edgeKey]struct{}, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := e.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// rebuild recomputes the effective outgoing edges of from and keeps the
// reverse index in step.
func (g *Graph) rebuild(from string) {
	for _, e := range g.forward[from] {
		if froms := g.reverse[e.To]; froms != nil {
			delete(froms, from)
			if len(froms) == 0 {
				delete(g.reverse, e.To)
			}
		}
	}

	own := g.own[from]
	edges := slices.Clone(own)
	for _, child := range slices.Sorted(maps.Keys(g.byParent[from])) {
		if slices.ContainsFunc(own, func(e Edge) bool { return e.To == child }) {
			// родитель сам подключает ребёнка
			continue
		}
		for _, e := range g.backed[child] {
			if e.From == from {
				edges = append(edges, e)
			}
		}
	}
	slices.SortStableFunc(edges, compareEdges)
	setOrDelete(g.forward, from, edges)

	for _, e := range edges {
		froms := g.reverse[e.To]
		if froms == nil {
			froms = make(map[string]struct{})
			g.reverse[e.To] = froms
		}
		froms[from] = struct{}{}
	}
}

func (g *Graph) unlinkParent(parent, child string) {
	if children := g.byParent[parent]; children != nil {
		delete(children, child)
		if len(children) == 0 {
			delete(g.byParent, parent)
		}
	}
}

// RemoveFile drops every edge with uri as either endpoint, together with
// the backward evidence uri declared.
func (g *Graph) RemoveFile(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	affected := make(map[string]struct{})
	for _, e := range g.backed[uri] {
		g.unlinkParent(e.From, uri)
		affected[e.From] = struct{}{}
	}
	delete(g.backed, uri)
	delete(g.evidence, uri)
	delete(g.own, uri)

	for child := range g.byParent[uri] {
		g.backed[child] = slices.DeleteFunc(g.backed[child], func(e Edge) bool { return e.From == uri })
		if len(g.backed[child]) == 0 {
			delete(g.backed, child)
		}
	}
	delete(g.byParent, uri)

	for from := range g.reverse[uri] {
		g.own[from] = slices.DeleteFunc(g.own[from], func(e Edge) bool { return e.To == uri })
		if len(g.own[from]) == 0 {
			delete(g.own, from)
		}
		affected[from] = struct{}{}
	}
	affected[uri] = struct{}{}
	for _, from := range slices.Sorted(maps.Keys(affected)) {
		g.rebuild(from)
	}
}

// Dependencies returns the edges where uri is the includer.
func (g *Graph) Dependencies(uri string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.forward[uri])
}

// Dependents returns the edges where uri is included.
func (g *Graph) Dependents(uri string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dependentsLocked(uri)
}

func (g *Graph) dependentsLocked(uri string) []Edge {
	var out []Edge
	for _, from := range slices.Sorted(maps.Keys(g.reverse[uri])) {
		for _, e := range g.forward[from] {
			if e.To == uri {
				out = append(out, e)
			}
		}
	}
	return out
}

// Evidence returns the backward directives declared by child.
func (g *Graph) Evidence(child string) []BackwardEvidence {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.evidence[child])
}

// Files lists every URI that appears in the graph, sorted.
func (g *Graph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set := make(map[string]struct{}, len(g.forward)+len(g.reverse))
	for from := range g.forward {
		set[from] = struct{}{}
	}
	for to := range g.reverse {
		set[to] = struct{}{}
	}
	for child := range g.evidence {
		set[child] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Edges returns all effective edges ordered by includer.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Edge
	for _, from := range slices.Sorted(maps.Keys(g.forward)) {
		out = append(out, g.forward[from]...)
	}
	return out
}

func compareEdges(a, b Edge) int {
	pa, oka := a.CallSite()
	pb, okb := b.CallSite()
	switch {
	case oka && !okb:
		return -1
	case !oka && okb:
		return 1
	case oka && okb:
		if c := pa.Compare(pb); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.To, b.To)
}

func setOrDelete[V any](m map[string][]V, key string, v []V) {
	if len(v) == 0 {
		delete(m, key)
		return
	}
	m[key] = v
}
