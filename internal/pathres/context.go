// Package pathres resolves paths written in source() calls and directives to
// canonical file URIs.
//
// Relative paths resolve against the effective working directory: an explicit
// @lsp-cd override, else the directory inherited from a parent that sourced
// this file with chdir semantics, else the file's own directory. A leading
// "/" means relative to the workspace root, not the filesystem root.
package pathres

import (
	"path/filepath"
	"strings"

	"raven/internal/metadata"
)

// Context carries everything needed to resolve a path written in one file.
type Context struct {
	File                      string
	WorkspaceRoot             string
	WorkingDirectory          string
	InheritedWorkingDirectory string
}

// Resolver builds path contexts for files.
type Resolver interface {
	// ForMetadata honours the file's @lsp-cd override.
	ForMetadata(uri string, meta *metadata.FileMetadata) Context
	// ForBackward ignores @lsp-cd: backward directives are always relative
	// to the file's own directory.
	ForBackward(uri string) Context
}

// Workspace is the Resolver for one workspace root.
type Workspace struct {
	Root string
}

// NewWorkspace returns a resolver rooted at root, which may be "".
func NewWorkspace(root string) *Workspace {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Workspace{Root: root}
}

// New returns a context for a file with no overrides.
func New(filePath, workspaceRoot string) Context {
	return Context{File: filePath, WorkspaceRoot: workspaceRoot}
}

func (w *Workspace) ForMetadata(uri string, meta *metadata.FileMetadata) Context {
	ctx := New(URIToPath(uri), w.Root)
	if wd := meta.WorkDir(); wd != "" {
		if dir, ok := ctx.ResolveWorkingDirectory(wd); ok {
			ctx.WorkingDirectory = dir
		}
	}
	return ctx
}

func (w *Workspace) ForBackward(uri string) Context {
	return New(URIToPath(uri), w.Root)
}

// Effective returns the directory relative paths resolve against.
func (c Context) Effective() string {
	switch {
	case c.WorkingDirectory != "":
		return c.WorkingDirectory
	case c.InheritedWorkingDirectory != "":
		return c.InheritedWorkingDirectory
	default:
		return filepath.Dir(c.File)
	}
}

// Child returns the context for a file sourced from c. With chdir the child
// runs in its own directory; otherwise it inherits c's effective directory.
func (c Context) Child(childPath string, chdir bool) Context {
	child := Context{File: childPath, WorkspaceRoot: c.WorkspaceRoot}
	if chdir {
		child.InheritedWorkingDirectory = filepath.Dir(childPath)
	} else {
		child.InheritedWorkingDirectory = c.Effective()
	}
	return child
}

// WithWorkingDirectory applies an @lsp-cd value met while walking the file.
func (c Context) WithWorkingDirectory(path string) Context {
	if dir, ok := c.ResolveWorkingDirectory(path); ok {
		c.WorkingDirectory = dir
	}
	return c
}

// Resolve maps a referenced path to a canonical URI.
func (c Context) Resolve(path string) (string, bool) {
	p, ok := c.ResolvePath(path)
	if !ok {
		return "", false
	}
	return PathToURI(p), true
}

// ResolvePath maps a referenced path to a normalised OS path.
func (c Context) ResolvePath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	var joined string
	if rel, ok := strings.CutPrefix(path, "/"); ok {
		if c.WorkspaceRoot == "" {
			return "", false
		}
		joined = filepath.Join(c.WorkspaceRoot, filepath.FromSlash(rel))
	} else if filepath.IsAbs(path) {
		joined = path
	} else {
		joined = filepath.Join(c.Effective(), filepath.FromSlash(path))
	}
	return normalize(joined)
}

// ResolveWorkingDirectory resolves an @lsp-cd value. Relative values are
// taken from the file's own directory, never from another override.
func (c Context) ResolveWorkingDirectory(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if rel, ok := strings.CutPrefix(path, "/"); ok {
		if c.WorkspaceRoot == "" {
			return "", false
		}
		return normalize(filepath.Join(c.WorkspaceRoot, filepath.FromSlash(rel)))
	}
	return normalize(filepath.Join(filepath.Dir(c.File), filepath.FromSlash(path)))
}

// normalize resolves "." and ".." lexically; ".." above the root is dropped.
func normalize(p string) (string, bool) {
	clean := filepath.Clean(p)
	if clean == "." || clean == "" {
		return "", false
	}
	return clean, true
}
