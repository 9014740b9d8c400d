package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/metadata"
	"raven/internal/source"
)

func TestExtractMergesAndSorts(t *testing.T) {
	text := `# @lsp-sourced-by ../main.R line=3
x <- 1
source("b.R"); source("a.R", local = TRUE)
# @lsp-source gen.R
sys.source("c.R", envir = globalenv())
`
	meta := NewR(nil).Extract(source.FromString("dir/child.R", text), nil)

	require.Len(t, meta.SourcedBy, 1)
	assert.Equal(t, metadata.LineHint(2), meta.SourcedBy[0].CallSite)

	paths := make([]string, 0, len(meta.Sources))
	for _, s := range meta.Sources {
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{"b.R", "a.R", "gen.R", "c.R"}, paths)
	assert.Equal(t, uint32(15), meta.Sources[1].Column)
	assert.True(t, meta.Sources[1].Local)
	assert.True(t, meta.Sources[2].IsDirective)
	assert.True(t, meta.Sources[3].IsSysSource)
	assert.True(t, meta.Sources[3].SysSourceGlobalEnv)
}

func TestDirectiveOnSameLineWins(t *testing.T) {
	text := `source("utils.R") # @lsp-source other.R` + "\n"
	meta := NewR(nil).Extract(source.FromString("m.R", text), nil)
	require.Len(t, meta.Sources, 1)
	assert.Equal(t, "other.R", meta.Sources[0].Path)
	assert.True(t, meta.Sources[0].IsDirective)
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "source('a.R')\n# @lsp-ignore-next\nfoo()\n"
	x := NewR(nil)
	a := x.Extract(source.FromString("m.R", text), nil)
	b := x.Extract(source.FromString("m.R", text), nil)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.True(t, a.IsLineIgnored(2))
}
