package depgraph

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/source"
)

var ws = pathres.NewWorkspace("/project")

func uri(name string) string { return pathres.PathToURI("/project/" + name) }

func sources(refs ...metadata.ForwardSource) *metadata.FileMetadata {
	return &metadata.FileMetadata{Sources: refs}
}

func call(path string, line, col uint32) metadata.ForwardSource {
	return metadata.ForwardSource{Path: path, Line: line, Column: col}
}

func targets(edges []Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}

func TestTransitiveChain(t *testing.T) {
	g := New()
	g.UpdateFile(uri("a.R"), sources(call("b.R", 0, 0)), ws, nil)
	g.UpdateFile(uri("b.R"), sources(call("c.R", 0, 0)), ws, nil)

	assert.Equal(t, []string{uri("b.R"), uri("c.R")}, g.TransitiveDependencies(uri("a.R"), 10))
	assert.Equal(t, []string{uri("b.R"), uri("a.R")}, g.TransitiveDependents(uri("c.R"), 10))
	assert.Equal(t, []string{uri("b.R")}, g.TransitiveDependents(uri("c.R"), 1))
	assert.Empty(t, g.TransitiveDependents(uri("c.R"), 0))
}

func TestIdenticalEdgesCollapse(t *testing.T) {
	g := New()
	detected := call("b.R", 2, 0)
	declared := detected
	declared.IsDirective = true
	g.UpdateFile(uri("a.R"), sources(declared, detected, detected), ws, nil)

	deps := g.Dependencies(uri("a.R"))
	require.Len(t, deps, 1)
	assert.True(t, deps[0].IsDirective)
	assert.Len(t, g.Dependents(uri("b.R")), 1)
}

func TestDistinctFlagsAreDistinctEdges(t *testing.T) {
	g := New()
	plain := call("b.R", 2, 0)
	local := call("b.R", 4, 0)
	local.Local = true
	g.UpdateFile(uri("a.R"), sources(plain, local), ws, nil)
	assert.Len(t, g.Dependencies(uri("a.R")), 2)
}

func TestDirectiveOverridesDetectedCall(t *testing.T) {
	g := New()
	declared := metadata.ForwardSource{Path: "b.R", Line: 5, IsDirective: true}
	res := g.UpdateFile(uri("a.R"), sources(call("b.R", 1, 0), declared, call("c.R", 7, 0)), ws, nil)

	deps := g.Dependencies(uri("a.R"))
	assert.Equal(t, []string{uri("b.R"), uri("c.R")}, targets(deps))
	assert.Equal(t, uint32(5), *deps[0].CallSiteLine)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, uint32(1), res.Conflicts[0].Line)
	assert.Contains(t, res.Conflicts[0].Message, "'b.R' at line 2")
}

func TestUpdateReplacesOutgoingEdges(t *testing.T) {
	g := New()
	res := g.UpdateFile(uri("a.R"), sources(call("b.R", 0, 0)), ws, nil)
	assert.True(t, res.Changed)

	res = g.UpdateFile(uri("a.R"), sources(call("b.R", 0, 0)), ws, nil)
	assert.False(t, res.Changed)

	res = g.UpdateFile(uri("a.R"), sources(call("c.R", 0, 0)), ws, nil)
	assert.True(t, res.Changed)
	assert.Empty(t, g.Dependents(uri("b.R")))
	assert.Equal(t, []string{uri("c.R")}, targets(g.Dependencies(uri("a.R"))))
}

func TestBackwardDirectiveMaterialisesForwardEdge(t *testing.T) {
	g := New()
	meta := &metadata.FileMetadata{SourcedBy: []metadata.BackwardDirective{
		{Path: "main.R", CallSite: metadata.LineHint(3)},
	}}
	g.UpdateFile(uri("util.R"), meta, ws, nil)

	deps := g.Dependencies(uri("main.R"))
	require.Len(t, deps, 1)
	e := deps[0]
	assert.Equal(t, uri("util.R"), e.To)
	assert.True(t, e.IsDirective)
	p, ok := e.CallSite()
	require.True(t, ok)
	assert.Equal(t, source.LineEnd(3), p)

	ev := g.Evidence(uri("util.R"))
	require.Len(t, ev, 1)
	assert.Equal(t, uri("main.R"), ev[0].Parent)
}

func TestBackwardDirectiveYieldsToParentCall(t *testing.T) {
	g := New()
	meta := &metadata.FileMetadata{SourcedBy: []metadata.BackwardDirective{{Path: "main.R"}}}
	g.UpdateFile(uri("util.R"), meta, ws, nil)
	g.UpdateFile(uri("main.R"), sources(call("util.R", 4, 2)), ws, nil)

	deps := g.Dependencies(uri("main.R"))
	require.Len(t, deps, 1)
	assert.False(t, deps[0].IsDirective)
	assert.Equal(t, uint32(4), *deps[0].CallSiteLine)

	g.UpdateFile(uri("main.R"), sources(), ws, nil)
	deps = g.Dependencies(uri("main.R"))
	require.Len(t, deps, 1)
	assert.True(t, deps[0].IsDirective)
	assert.Nil(t, deps[0].CallSiteLine)
}

func TestBackwardDirectiveCallSiteFromContent(t *testing.T) {
	parent := "x <- 1\n# source('util.R')\n  source(\"lib/util.R\")\nrun_query()\n"
	content := func(u string) (string, bool) {
		if u == uri("main.R") {
			return parent, true
		}
		return "", false
	}
	g := New()
	meta := &metadata.FileMetadata{SourcedBy: []metadata.BackwardDirective{{Path: "../main.R"}}}
	g.UpdateFile(uri("lib/util.R"), meta, ws, content)
	deps := g.Dependencies(uri("main.R"))
	require.Len(t, deps, 1)
	p, ok := deps[0].CallSite()
	require.True(t, ok)
	assert.Equal(t, source.Pos{Line: 2, Col: 2}, p)

	meta = &metadata.FileMetadata{SourcedBy: []metadata.BackwardDirective{
		{Path: "../main.R", CallSite: metadata.MatchHint("run_query")},
	}}
	g.UpdateFile(uri("lib/util.R"), meta, ws, content)
	p, _ = g.Dependencies(uri("main.R"))[0].CallSite()
	assert.Equal(t, source.Pos{Line: 3, Col: 0}, p)
}

func TestRemoveFileDropsBothDirections(t *testing.T) {
	g := New()
	g.UpdateFile(uri("a.R"), sources(call("b.R", 0, 0)), ws, nil)
	g.UpdateFile(uri("b.R"), sources(call("c.R", 0, 0)), ws, nil)
	g.RemoveFile(uri("b.R"))

	assert.Empty(t, g.Dependencies(uri("a.R")))
	assert.Empty(t, g.Dependents(uri("c.R")))
	assert.Empty(t, g.Files())
}

func TestDetectCycle(t *testing.T) {
	g := New()
	g.UpdateFile(uri("a.R"), sources(call("x.R", 0, 0), call("b.R", 1, 0)), ws, nil)
	g.UpdateFile(uri("b.R"), sources(call("a.R", 3, 0)), ws, nil)

	e, path, ok := g.DetectCycle(uri("a.R"))
	require.True(t, ok)
	assert.Equal(t, uri("b.R"), e.To)
	assert.Equal(t, []string{uri("a.R"), uri("b.R"), uri("a.R")}, path)

	_, _, ok = g.DetectCycle(uri("x.R"))
	assert.False(t, ok)

	g.UpdateFile(uri("s.R"), sources(call("s.R", 0, 0)), ws, nil)
	_, path, ok = g.DetectCycle(uri("s.R"))
	require.True(t, ok)
	assert.Equal(t, []string{uri("s.R"), uri("s.R")}, path)
}

func TestEdgeHashesTrackChanges(t *testing.T) {
	g := New()
	g.UpdateFile(uri("a.R"), sources(call("b.R", 0, 0)), ws, nil)
	h1, r1 := g.EdgesHash(uri("a.R")), g.ReverseEdgesHash(uri("b.R"))

	g.UpdateFile(uri("a.R"), sources(call("b.R", 0, 0)), ws, nil)
	assert.Equal(t, h1, g.EdgesHash(uri("a.R")))

	g.UpdateFile(uri("a.R"), sources(call("b.R", 1, 0)), ws, nil)
	assert.NotEqual(t, h1, g.EdgesHash(uri("a.R")))
	assert.NotEqual(t, r1, g.ReverseEdgesHash(uri("b.R")))
}

func TestEdgeInheritance(t *testing.T) {
	assert.True(t, Edge{}.InheritsSymbols())
	assert.False(t, Edge{Local: true}.InheritsSymbols())
	assert.False(t, Edge{IsSysSource: true}.InheritsSymbols())
	assert.True(t, Edge{IsSysSource: true, SysSourceGlobalEnv: true}.InheritsSymbols())

	line := uint32(2)
	p, ok := Edge{CallSiteLine: &line}.CallSite()
	require.True(t, ok)
	assert.Equal(t, uint32(math.MaxUint32), p.Col)
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				if i == 0 {
					g.UpdateFile(uri("a.R"), sources(call("b.R", uint32(j), 0)), ws, nil) // #nosec G115
					continue
				}
				_ = g.TransitiveDependents(uri("b.R"), 10)
				_ = g.EdgesHash(uri("a.R"))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, g.Dependencies(uri("a.R")), 1)
}
