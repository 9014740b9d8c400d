// Package extract turns file content into metadata.FileMetadata, the single
// contract between parsing and the cross-file core.
package extract

import (
	"log/slog"
	"slices"

	"raven/internal/directive"
	"raven/internal/metadata"
	"raven/internal/source"
	"raven/internal/syntax"
)

// Extractor produces metadata for one file. Implementations must be pure:
// equal content yields equal metadata.
type Extractor interface {
	Extract(file *source.File, tree *syntax.Tree) *metadata.FileMetadata
}

// R is the extractor for R sources: directives plus detected source() calls.
type R struct {
	Log *slog.Logger
}

// NewR returns an R extractor logging malformed directives at debug level.
func NewR(log *slog.Logger) *R {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &R{Log: log}
}

// Extract merges directive facts with detected calls. A detected call on a
// line that already carries an @lsp-source directive is dropped; the result
// is sorted by (line, column).
func (x *R) Extract(file *source.File, tree *syntax.Tree) *metadata.FileMetadata {
	meta := directive.Parse(file.Text(), x.Log)
	if tree == nil {
		tree = syntax.Parse(file)
	}

	directiveLines := make(map[uint32]struct{}, len(meta.Sources))
	for _, s := range meta.Sources {
		directiveLines[s.Line] = struct{}{}
	}
	for _, call := range tree.Sources {
		if _, dup := directiveLines[call.Pos.Line]; dup {
			continue
		}
		meta.Sources = append(meta.Sources, metadata.ForwardSource{
			Path:               call.Path,
			Line:               call.Pos.Line,
			Column:             call.Pos.Col,
			Local:              call.Local,
			Chdir:              call.Chdir,
			IsSysSource:        call.IsSys,
			SysSourceGlobalEnv: call.GlobalEnv,
		})
	}
	slices.SortStableFunc(meta.Sources, func(a, b metadata.ForwardSource) int {
		return a.Pos().Compare(b.Pos())
	})
	return meta
}
