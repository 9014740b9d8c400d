// Package diagfmt renders cross-file diagnostics for the command line:
// a readable form with source context, JSON and SARIF.
package diagfmt

import (
	"raven/internal/diag"
	"raven/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to the base directory when they
	// are inside it.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeBasename
)

// Sources returns the content a diagnostic points into, or nil.
type Sources func(uri string) *source.File

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	Base      string
	ShowNotes bool
	Sources   Sources
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	Base         string
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
	Base           string
}

func limit(items []diag.Diagnostic, max int) []diag.Diagnostic {
	if max > 0 && max < len(items) {
		return items[:max]
	}
	return items
}
