package scope

import (
	"fmt"
	"strings"

	"raven/internal/pathres"
	"raven/internal/source"
)

// Error is a partial failure met while resolving a scope. The scope that
// comes with it is still usable.
type Error interface {
	error
	// Site is the file and position the problem is reported at.
	Site() CallSite
}

// MissingFile: an include target that is not known to the workspace.
type MissingFile struct {
	URI  string
	Pos  source.Pos
	Path string
}

func (e MissingFile) Error() string {
	return fmt.Sprintf("File not found: '%s'", e.Path)
}

func (e MissingFile) Site() CallSite { return CallSite{URI: e.URI, Pos: e.Pos} }

// CircularDependency: following an include led back to a file already on
// the stack. Cycle starts and ends at the first file that repeats; when the
// queried file is on the loop, that is the queried file. A loop found both
// through includes and through parents is reported once.
type CircularDependency struct {
	URI   string
	Pos   source.Pos
	Cycle []string
}

func (e CircularDependency) Error() string {
	names := make([]string, len(e.Cycle))
	for i, u := range e.Cycle {
		names[i] = pathres.Base(u)
	}
	return fmt.Sprintf("circular dependency: %s", strings.Join(names, " -> "))
}

func (e CircularDependency) Site() CallSite { return CallSite{URI: e.URI, Pos: e.Pos} }

// MaxDepthExceeded: the include chain grew past the configured limit.
type MaxDepthExceeded struct {
	URI   string
	Pos   source.Pos
	Depth int
}

func (e MaxDepthExceeded) Error() string {
	return fmt.Sprintf("Maximum source chain depth (%d) exceeded; some symbols may not be resolved", e.Depth)
}

func (e MaxDepthExceeded) Site() CallSite { return CallSite{URI: e.URI, Pos: e.Pos} }

// AmbiguousParents: more than one file could be the includer and none is
// preferred by a directive.
type AmbiguousParents struct {
	URI          string
	Selected     string
	Alternatives []string
}

func (e AmbiguousParents) Error() string {
	alts := make([]string, len(e.Alternatives))
	for i, u := range e.Alternatives {
		alts[i] = pathres.Base(u)
	}
	return fmt.Sprintf("File has multiple possible parents; using '%s' (also: %s). Add @lsp-sourced-by with line= or match= to choose one",
		pathres.Base(e.Selected), strings.Join(alts, ", "))
}

func (e AmbiguousParents) Site() CallSite { return CallSite{URI: e.URI} }
