package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/source"
)

func TestSymbolsVisibleOnlyAfterSourceCall(t *testing.T) {
	f := newFixture(t, map[string]string{
		"lib.r":  "add_one <- function(x) x + 1\n",
		"main.r": "x <- 1\n\nsource(\"lib.r\")\nadd_one(1)\n",
	})

	res := f.at("main.r", 3, 0)
	require.Contains(t, res.Symbols, "add_one")
	sym := res.Symbols["add_one"]
	assert.Equal(t, uri("lib.r"), sym.URI)
	assert.Equal(t, SymbolFunction, sym.Kind)
	assert.Equal(t, "add_one(x)", sym.Signature)
	assert.Equal(t, []string{uri("main.r"), uri("lib.r")}, res.Chain)

	assert.NotContains(t, f.at("main.r", 1, 0).Symbols, "add_one")
	assert.NotContains(t, f.at("main.r", 2, 0).Symbols, "add_one")
	assert.Contains(t, f.at("main.r", 2, 10).Symbols, "add_one")
	assert.Empty(t, res.Errors)
}

func TestLocalDefinitionShadowsIncluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"lib.R":  "helper <- 1\nshared <- 2\n",
		"main.R": "helper <- function() 0\nsource('lib.R')\nz <- helper\n",
	})
	res := f.at("main.R", 2, 0)
	assert.Equal(t, uri("main.R"), res.Symbols["helper"].URI)
	assert.Equal(t, uri("lib.R"), res.Symbols["shared"].URI)
}

func TestEarliestIncludeWins(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.R":     "v <- 'a'\n",
		"b.R":     "v <- 'b'\n",
		"twice.R": "x <- 0\nsource('a.R')\ny <- 1\nsource('a.R')\n",
		"main.R":  "source('a.R')\nsource('b.R')\nprint(v)\n",
	})
	assert.Equal(t, uri("a.R"), f.at("main.R", 2, 0).Symbols["v"].URI)

	assert.NotContains(t, f.at("twice.R", 1, 0).Symbols, "v")
	assert.Contains(t, f.at("twice.R", 2, 0).Symbols, "v")
	assert.Contains(t, f.at("twice.R", 4, 0).Symbols, "v")
}

func TestMutualIncludeReportsCycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.r": "a_val <- 1\nsource('b.r')\n",
		"b.r": "b_val <- 2\nsource('a.r')\n",
	})
	res := f.ScopeAt(uri("a.r"), source.EOF)
	cycles := errorsOf[CircularDependency](res)
	require.NotEmpty(t, cycles)
	found := false
	for _, c := range cycles {
		if assert.ObjectsAreEqual([]string{uri("a.r"), uri("b.r"), uri("a.r")}, c.Cycle) {
			found = true
		}
	}
	assert.True(t, found, "cycles: %v", cycles)
	assert.Contains(t, res.Symbols, "a_val")
	assert.Contains(t, res.Symbols, "b_val")
}

func TestForwardDepthLimit(t *testing.T) {
	f := newFixture(t, map[string]string{
		"f0.R": "source('f1.R')\n",
		"f1.R": "source('f2.R')\nv1 <- 1\n",
		"f2.R": "source('f3.R')\nv2 <- 1\n",
		"f3.R": "v3 <- 1\n",
	})
	f.Settings.MaxForwardDepth = 2
	res := f.ScopeAt(uri("f0.R"), source.EOF)
	assert.Contains(t, res.Symbols, "v1")
	assert.Contains(t, res.Symbols, "v2")
	assert.NotContains(t, res.Symbols, "v3")

	hits := errorsOf[MaxDepthExceeded](res)
	require.Len(t, hits, 1)
	assert.Equal(t, uri("f2.R"), hits[0].URI)
	assert.Equal(t, 2, hits[0].Depth)
	assert.Equal(t, []CallSite{{URI: uri("f2.R"), Pos: source.Pos{}}}, res.DepthExceeded)
}

func TestMissingFileKeepsGoing(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R": "source('nope.R')\nsource(\"lib.R\")\nx <- 1\n",
		"lib.R":  "y <- 1\n",
	})
	res := f.at("main.R", 2, 5)
	missing := errorsOf[MissingFile](res)
	require.Len(t, missing, 1)
	assert.Equal(t, "nope.R", missing[0].Path)
	assert.Equal(t, "File not found: 'nope.R'", missing[0].Error())
	assert.Contains(t, res.Symbols, "y")
}

func TestNonInheritingIncludes(t *testing.T) {
	f := newFixture(t, map[string]string{
		"lib.R":  "hidden <- 1\n",
		"main.R": "source('lib.R', local = TRUE)\n" +
			"sys.source('lib.R', envir = new.env())\n" +
			"x <- 1\n",
		"glob.R": "sys.source('lib.R', envir = globalenv())\nx <- 1\n",
	})
	assert.NotContains(t, f.at("main.R", 2, 0).Symbols, "hidden")
	assert.Contains(t, f.at("glob.R", 1, 0).Symbols, "hidden")
}

func TestFunctionScopes(t *testing.T) {
	text := "f <- function(a, b = 2) {\n" +
		"  inner <- a\n" +
		"  source('lib.R')\n" +
		"  inner\n" +
		"}\n" +
		"g <<- 1\n" +
		"after <- 3\n"
	f := newFixture(t, map[string]string{"main.R": text, "lib.R": "libsym <- 1\n"})

	in := f.at("main.R", 3, 2).Symbols
	for _, name := range []string{"a", "b", "inner", "f", "libsym"} {
		assert.Contains(t, in, name)
	}
	assert.Equal(t, SymbolParameter, in["a"].Kind)

	out := f.at("main.R", 6, 0).Symbols
	assert.NotContains(t, out, "a")
	assert.NotContains(t, out, "inner")
	assert.NotContains(t, out, "libsym")
	assert.Contains(t, out, "f")
	assert.Contains(t, out, "g")
}

func TestParentScopeAtCallSite(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R":      "early <- 1\nsource('sub/child.R')\nlate <- 2\n",
		"sub/child.R": "# @lsp-sourced-by ../main.R\nuse(early)\n",
	})
	res := f.at("sub/child.R", 1, 0)
	assert.Contains(t, res.Symbols, "early")
	assert.NotContains(t, res.Symbols, "late")
	assert.Equal(t, []string{uri("sub/child.R"), uri("main.R")}, res.Chain)
}

func TestParentLineHintIsEndOfLine(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R":  "a <- 1\nb <- 2; c <- 3\nd <- 4\n",
		"child.R": "# @lsp-sourced-by main.R line=2\n",
	})
	syms := f.at("child.R", 0, 0).Symbols
	assert.Contains(t, syms, "a")
	assert.Contains(t, syms, "b")
	assert.Contains(t, syms, "c")
	assert.NotContains(t, syms, "d")
}

func TestChdirChangesChildPathContext(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R":     "source('sub/a.R', chdir = TRUE)\nsource('sub/b.R')\nx <- 1\n",
		"sub/a.R":    "source('near.R')\n",
		"sub/b.R":    "source('top.R')\n",
		"sub/near.R": "near <- 1\n",
		"top.R":      "top <- 1\n",
	})
	syms := f.at("main.R", 2, 0).Symbols
	assert.Contains(t, syms, "near")
	assert.Contains(t, syms, "top")
}

func TestWorkingDirectoryDirective(t *testing.T) {
	f := newFixture(t, map[string]string{
		"scripts/run.R": "# @lsp-cd ../data\nsource('load.R')\nx <- 1\n",
		"data/load.R":   "loaded <- TRUE\n",
	})
	assert.Contains(t, f.at("scripts/run.R", 2, 0).Symbols, "loaded")
}

func TestAmbiguousParentsReported(t *testing.T) {
	f := newFixture(t, map[string]string{
		"one.R":    "source('shared.R')\n",
		"two.R":    "source('shared.R')\n",
		"shared.R": "x <- 1\n",
	})
	res := f.at("shared.R", 0, 0)
	amb := errorsOf[AmbiguousParents](res)
	require.Len(t, amb, 1)
	assert.Equal(t, uri("one.R"), amb[0].Selected)
	assert.Equal(t, []string{uri("two.R")}, amb[0].Alternatives)
}

func TestShallowIncludeNotCutByDeeperPath(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R": "source('a.R')\nsource('c.R')\nx <- 1\n",
		"a.R":    "source('c.R')\n",
		"c.R":    "source('d.R')\n",
		"d.R":    "dv <- 1\n",
	})
	f.Settings.MaxForwardDepth = 2
	res := f.at("main.R", 2, 0)
	assert.Contains(t, res.Symbols, "dv")

	// обрезана только цепочка main -> a -> c -> d
	hits := errorsOf[MaxDepthExceeded](res)
	require.Len(t, hits, 1)
	assert.Equal(t, uri("c.R"), hits[0].URI)
}

func TestSameFileIncludedWithAndWithoutChdir(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R":     "source('sub/a.R')\nsource('sub/a.R', chdir = TRUE)\nx <- 1\n",
		"sub/a.R":    "source('near.R')\n",
		"sub/near.R": "near <- 1\n",
	})
	res := f.at("main.R", 2, 0)
	assert.Contains(t, res.Symbols, "near")

	missing := errorsOf[MissingFile](res)
	require.Len(t, missing, 1, "only the include without chdir misses near.R")
	assert.Equal(t, uri("sub/a.R"), missing[0].URI)
}

func TestCycleFoundTwiceIsReportedOnce(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.r": "a_val <- 1\nsource('b.r')\n",
		"b.r": "b_val <- 2\nsource('a.r')\n",
	})
	res := f.ScopeAt(uri("b.r"), source.EOF)
	cycles := errorsOf[CircularDependency](res)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{uri("b.r"), uri("a.r"), uri("b.r")}, cycles[0].Cycle)
	assert.Contains(t, res.Symbols, "a_val")
	assert.Contains(t, res.Symbols, "b_val")
}
