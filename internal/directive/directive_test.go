package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/metadata"
)

func TestBackwardDirectiveForms(t *testing.T) {
	cases := []struct {
		line string
		path string
		cs   metadata.CallSite
	}{
		{"# @lsp-sourced-by ../main.R", "../main.R", metadata.CallSite{}},
		{"# @lsp-sourced-by: ../main.R", "../main.R", metadata.CallSite{}},
		{`# @lsp-sourced-by "../my main.R"`, "../my main.R", metadata.CallSite{}},
		{"# @lsp-run-by '../main.R'", "../main.R", metadata.CallSite{}},
		{"#@lsp-included-by main.R line=12", "main.R", metadata.LineHint(11)},
		{"# @lsp-sourced-by main.R line=0", "main.R", metadata.LineHint(0)},
		{`# @lsp-sourced-by main.R match="source('child.R')"`, "main.R", metadata.MatchHint("source(")},
		{`# @lsp-sourced-by main.R match="run_child()"`, "main.R", metadata.MatchHint("run_child()")},
	}
	for _, tc := range cases {
		meta := Parse(tc.line, nil)
		require.Len(t, meta.SourcedBy, 1, tc.line)
		assert.Equal(t, tc.path, meta.SourcedBy[0].Path, tc.line)
		assert.Equal(t, tc.cs, meta.SourcedBy[0].CallSite, tc.line)
	}
}

func TestForwardAndWorkingDirectory(t *testing.T) {
	text := "x <- 1\n# @lsp-source helpers/io.R\n# @lsp-cd: \"../data dir\"\n"
	meta := Parse(text, nil)
	require.Len(t, meta.Sources, 1)
	src := meta.Sources[0]
	assert.Equal(t, "helpers/io.R", src.Path)
	assert.Equal(t, uint32(1), src.Line)
	assert.Zero(t, src.Column)
	assert.True(t, src.IsDirective)
	assert.True(t, src.InheritsSymbols())
	assert.Equal(t, "../data dir", meta.WorkDir())

	for _, alias := range []string{"wd", "working-directory", "working-dir", "current-directory", "current-dir"} {
		meta := Parse("# @lsp-"+alias+" /scripts", nil)
		assert.Equal(t, "/scripts", meta.WorkDir(), alias)
	}
}

func TestSourcedByIsNotForward(t *testing.T) {
	meta := Parse("# @lsp-sourced-by main.R", nil)
	assert.Empty(t, meta.Sources)
	assert.Len(t, meta.SourcedBy, 1)
}

func TestIgnoreDirectives(t *testing.T) {
	text := "a\n# @lsp-ignore\nb\n# @lsp-ignore-next\nc\nd # @lsp-ignore:\n"
	meta := Parse(text, nil)
	assert.Equal(t, metadata.Lines{1, 5}, meta.IgnoredLines)
	assert.Equal(t, metadata.Lines{4}, meta.IgnoredNextLines)
	assert.True(t, IsLineIgnored(meta, 4))
	assert.True(t, IsLineIgnored(meta, 5))
	assert.False(t, IsLineIgnored(meta, 2))
}

func TestMalformedDirectivesAreSkipped(t *testing.T) {
	meta := Parse("# @lsp-sourced-by\n# @lsp-unknown thing\n# @lsp-ignore extra\n", nil)
	assert.Empty(t, meta.SourcedBy)
	assert.Empty(t, meta.Sources)
	assert.Empty(t, meta.IgnoredLines)
	assert.Nil(t, meta.WorkingDirectory)
}

func TestLintAndWorkDirLine(t *testing.T) {
	text := "# @lsp-cd ../a\nx <- 1\n# @lsp-unknown thing\n# @lsp-wd: \"../data\"\n# @lsp-source b.R\n"
	problems := Lint(text)
	assert.Equal(t, []Problem{{Line: 2, Text: "# @lsp-unknown thing"}}, problems)

	line, ok := WorkDirLine(text)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), line)

	_, ok = WorkDirLine("x <- 1\n")
	assert.False(t, ok)
}
