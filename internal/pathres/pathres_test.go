package pathres

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/metadata"
)

func ctx(file string) Context {
	return New(file, "/project")
}

func TestResolveRelativeAndParent(t *testing.T) {
	got, ok := ctx("/project/src/main.R").ResolvePath("utils.R")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/project/src/utils.R"), got)

	got, ok = ctx("/project/src/main.R").ResolvePath("../data/./input.R")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/project/data/input.R"), got)
}

func TestResolveWorkspaceRootRelative(t *testing.T) {
	got, ok := ctx("/project/src/main.R").ResolvePath("/data/input.R")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/project/data/input.R"), got)

	_, ok = New("/project/src/main.R", "").ResolvePath("/data/input.R")
	assert.False(t, ok)

	_, ok = ctx("/project/src/main.R").ResolvePath("")
	assert.False(t, ok)
}

func TestEffectiveWorkingDirectoryPrecedence(t *testing.T) {
	c := ctx("/project/src/main.R")
	assert.Equal(t, filepath.FromSlash("/project/src"), c.Effective())

	c.InheritedWorkingDirectory = "/project/scripts"
	assert.Equal(t, "/project/scripts", c.Effective())

	c.WorkingDirectory = "/project/data"
	assert.Equal(t, "/project/data", c.Effective())
}

func TestChildContexts(t *testing.T) {
	parent := ctx("/project/src/main.R")

	withChdir := parent.Child("/project/data/utils.R", true)
	assert.Equal(t, filepath.FromSlash("/project/data"), withChdir.Effective())

	without := parent.Child("/project/data/utils.R", false)
	assert.Equal(t, filepath.FromSlash("/project/src"), without.Effective())

	got, ok := without.ResolvePath("helpers.R")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/project/src/helpers.R"), got)
}

func TestWorkingDirectoryDirective(t *testing.T) {
	c := ctx("/project/src/main.R")
	dir, ok := c.ResolveWorkingDirectory("../data")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/project/data"), dir)

	dir, ok = c.ResolveWorkingDirectory("/data/scripts")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/project/data/scripts"), dir)

	moved := c.WithWorkingDirectory("../data")
	got, _ := moved.ResolvePath("x.R")
	assert.Equal(t, filepath.FromSlash("/project/data/x.R"), got)
}

func TestWorkspaceResolver(t *testing.T) {
	w := NewWorkspace("/project")
	wd := "../data"
	meta := &metadata.FileMetadata{WorkingDirectory: &wd}
	uri := PathToURI("/project/src/main.R")

	fwd := w.ForMetadata(uri, meta)
	got, ok := fwd.Resolve("x.R")
	require.True(t, ok)
	assert.Equal(t, PathToURI("/project/data/x.R"), got)

	back := w.ForBackward(uri)
	got, ok = back.Resolve("../main.R")
	require.True(t, ok)
	assert.Equal(t, PathToURI("/project/main.R"), got)

	var _ Resolver = w
}

func TestURIRoundTripAndNFC(t *testing.T) {
	decomposed := "/project/cafe\u0301.R"
	composed := "/project/caf\u00e9.R"
	assert.Equal(t, PathToURI(composed), PathToURI(decomposed))

	uri := PathToURI("/project/my dir/a.R")
	assert.Equal(t, "file:///project/my%20dir/a.R", uri)
	assert.Equal(t, filepath.FromSlash("/project/my dir/a.R"), URIToPath(uri))
	assert.Equal(t, uri, Canonical("file:///project/my%20dir/./a.R"))
	assert.Equal(t, "", URIToPath("untitled:Untitled-1"))
	assert.Equal(t, "a.R", Base(uri))
}
