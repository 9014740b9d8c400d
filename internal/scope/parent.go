package scope

import (
	"cmp"
	"slices"

	"raven/internal/depgraph"
	"raven/internal/source"
)

// CallSiteDefault is where a parent is assumed to include a child when
// nothing tells the exact position.
type CallSiteDefault uint8

const (
	AssumeEnd CallSiteDefault = iota
	AssumeStart
)

func (d CallSiteDefault) String() string {
	if d == AssumeStart {
		return "start"
	}
	return "end"
}

// ParseCallSiteDefault maps "start" to AssumeStart; anything else is AssumeEnd.
func ParseCallSiteDefault(s string) CallSiteDefault {
	if s == "start" {
		return AssumeStart
	}
	return AssumeEnd
}

func (d CallSiteDefault) pos() source.Pos {
	if d == AssumeStart {
		return source.Start
	}
	return source.EOF
}

// ParentKind tags a parent resolution.
type ParentKind uint8

const (
	ParentNone ParentKind = iota
	ParentSingle
	ParentAmbiguous
)

// Parent is the selected includer of a file.
type Parent struct {
	Kind     ParentKind
	URI      string
	CallSite source.Pos
	// Edge describes how the parent includes the child; zero when the
	// relationship is known only from a directive.
	Edge depgraph.Edge
	// Alternatives are the other candidates tied with URI at its rank.
	Alternatives []string
}

// ParentKey identifies the inputs a parent choice was made from.
type ParentKey struct {
	Metadata     uint64
	ReverseEdges uint64
}

// ParentCache stores parent choices between requests.
type ParentCache interface {
	Get(child string, key ParentKey) (Parent, bool)
	Insert(child string, key ParentKey, p Parent)
}

// ранги кандидатов: меньше - важнее
const (
	rankLineDirective = iota
	rankMatchDirective
	rankPositionedEdge
	rankUnpositioned
)

type candidate struct {
	uri  string
	pos  source.Pos
	rank int
	edge depgraph.Edge
}

// ResolveParent picks the includer of child from backward directive
// evidence and incoming edges. Precedence: line= directive, match=
// directive, an edge with a known call site, anything else at the assumed
// default position; ties go to the lexicographically smaller URI.
func ResolveParent(child string, g *depgraph.Graph, assume CallSiteDefault) Parent {
	byURI := make(map[string]candidate)
	offer := func(c candidate) {
		cur, ok := byURI[c.uri]
		if !ok {
			byURI[c.uri] = c
			return
		}
		if c.rank < cur.rank {
			cur.pos, cur.rank = c.pos, c.rank
		}
		if cur.edge.From == "" {
			cur.edge = c.edge
		}
		byURI[c.uri] = cur
	}

	for _, ev := range g.Evidence(child) {
		c := candidate{uri: ev.Parent, pos: assume.pos(), rank: rankUnpositioned}
		switch {
		case ev.CallSite.Line != nil:
			c.pos, c.rank = source.LineEnd(*ev.CallSite.Line), rankLineDirective
		case ev.CallSite.Match != "" && ev.Resolved != nil:
			c.pos, c.rank = *ev.Resolved, rankMatchDirective
		case ev.Resolved != nil:
			c.pos, c.rank = *ev.Resolved, rankPositionedEdge
		}
		offer(c)
	}
	for _, e := range g.Dependents(child) {
		c := candidate{uri: e.From, pos: assume.pos(), rank: rankUnpositioned, edge: e}
		if p, ok := e.CallSite(); ok {
			c.pos, c.rank = p, rankPositionedEdge
		}
		offer(c)
	}
	if len(byURI) == 0 {
		return Parent{Kind: ParentNone}
	}

	cands := make([]candidate, 0, len(byURI))
	for _, c := range byURI {
		cands = append(cands, c)
	}
	slices.SortFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.uri, b.uri)
	})

	best := cands[0]
	p := Parent{Kind: ParentSingle, URI: best.uri, CallSite: best.pos, Edge: best.edge}
	if len(cands) > 1 && cands[1].rank == best.rank {
		p.Kind = ParentAmbiguous
		for _, c := range cands[1:] {
			if c.rank != best.rank {
				break
			}
			p.Alternatives = append(p.Alternatives, c.uri)
		}
	}
	return p
}
