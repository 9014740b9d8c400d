package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/source"
)

func TestLayersMatchScopeAt(t *testing.T) {
	f := newFixture(t, map[string]string{
		"lib.r":  "add_one <- function(x) x + 1\n",
		"util.r": "helper <- 2\n",
		"main.r": "x <- 1\nadd_one(1)\nsource(\"lib.r\")\nsource('util.r')\ny <- add_one(x)\n",
	})
	l := f.LayersOf(uri("main.r"))
	require.Len(t, l.Includes, 2)
	assert.Equal(t, uri("lib.r"), l.Includes[0].Target)

	for line := uint32(0); line < 5; line++ {
		p := source.Pos{Line: line}
		assert.Equal(t, f.ScopeAt(uri("main.r"), p).Symbols, l.At(p), "line %d", line)
	}

	use := source.Pos{Line: 1}
	_, ok := l.Lookup(l.Artifacts.SymbolsAt(use), "add_one", use)
	assert.False(t, ok)
	inc, ok := l.Later("add_one", use)
	require.True(t, ok)
	assert.Equal(t, uint32(2), inc.Pos.Line)
	assert.True(t, l.Anywhere("helper"))
	assert.False(t, l.Anywhere("nothing"))

	late := source.Pos{Line: 4, Col: 5}
	sym, ok := l.Lookup(l.Artifacts.SymbolsAt(late), "add_one", late)
	require.True(t, ok)
	assert.Equal(t, uri("lib.r"), sym.URI)
	assert.Contains(t, l.Result.Symbols, "helper")
	assert.Equal(t, []string{uri("main.r"), uri("lib.r"), uri("util.r")}, l.Result.Chain)
}

func TestLayersCarryParentBase(t *testing.T) {
	f := newFixture(t, map[string]string{
		"main.R":  "cfg <- list()\nsource('child.R')\nlater <- 1\n",
		"child.R": "print(cfg)\n",
	})
	l := f.LayersOf(uri("child.R"))
	assert.Contains(t, l.Base, "cfg")
	assert.NotContains(t, l.Base, "later")
	assert.True(t, l.Anywhere("cfg"))

	missing := f.LayersOf(uri("nope.R"))
	assert.Nil(t, missing.Artifacts)
	assert.Empty(t, missing.At(source.EOF))
}
