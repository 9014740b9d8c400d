// Package metadata defines the per-file record that connects parsing to the
// cross-file core. A FileMetadata is an immutable snapshot of one extraction.
package metadata

import (
	"slices"

	"raven/internal/source"
)

// CallSite is the optional position hint of a backward directive.
// At most one of Line and Match is set; neither means "use the configured default".
type CallSite struct {
	// Line is zero-based; the directive syntax `line=N` is one-based.
	Line  *uint32 `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
	Match string  `json:"match,omitempty" yaml:"match,omitempty" msgpack:"match,omitempty"`
}

// IsDefault reports whether the directive carried no hint.
func (c CallSite) IsDefault() bool { return c.Line == nil && c.Match == "" }

// LineHint returns a CallSite pointing at a zero-based line.
func LineHint(line uint32) CallSite { return CallSite{Line: &line} }

// MatchHint returns a CallSite resolved by searching the parent for pattern.
func MatchHint(pattern string) CallSite { return CallSite{Match: pattern} }

// BackwardDirective declares that this file is sourced by another.
type BackwardDirective struct {
	Path          string   `json:"path" yaml:"path" msgpack:"path"`
	CallSite      CallSite `json:"callSite" yaml:"callSite" msgpack:"cs"`
	DirectiveLine uint32   `json:"directiveLine" yaml:"directiveLine" msgpack:"dl"`
}

// ForwardSource is an include, from a source() call or an @lsp-source directive.
type ForwardSource struct {
	Path string `json:"path" yaml:"path" msgpack:"path"`
	Line uint32 `json:"line" yaml:"line" msgpack:"l"`
	// Column counts UTF-16 code units.
	Column             uint32 `json:"column" yaml:"column" msgpack:"c"`
	IsDirective        bool   `json:"isDirective,omitempty" yaml:"isDirective,omitempty" msgpack:"d,omitempty"`
	Local              bool   `json:"local,omitempty" yaml:"local,omitempty" msgpack:"lo,omitempty"`
	Chdir              bool   `json:"chdir,omitempty" yaml:"chdir,omitempty" msgpack:"cd,omitempty"`
	IsSysSource        bool   `json:"isSysSource,omitempty" yaml:"isSysSource,omitempty" msgpack:"sys,omitempty"`
	SysSourceGlobalEnv bool   `json:"sysSourceGlobalEnv,omitempty" yaml:"sysSourceGlobalEnv,omitempty" msgpack:"ge,omitempty"`
}

// Pos returns the call site position.
func (s ForwardSource) Pos() source.Pos { return source.Pos{Line: s.Line, Col: s.Column} }

// InheritsSymbols reports whether definitions of the included file become
// visible to the includer: not for local=TRUE, not for sys.source into a
// non-global environment.
func (s ForwardSource) InheritsSymbols() bool {
	if s.Local {
		return false
	}
	if s.IsSysSource && !s.SysSourceGlobalEnv {
		return false
	}
	return true
}

// Lines is a sorted set of zero-based line numbers.
type Lines []uint32

// Contains reports whether line is in the set.
func (l Lines) Contains(line uint32) bool {
	_, ok := slices.BinarySearch(l, line)
	return ok
}

// With returns the set extended by line.
func (l Lines) With(line uint32) Lines {
	i, ok := slices.BinarySearch(l, line)
	if ok {
		return l
	}
	return slices.Insert(l, i, line)
}

// FileMetadata is everything the core knows about one file's cross-file facts.
type FileMetadata struct {
	SourcedBy        []BackwardDirective `json:"sourcedBy,omitempty" yaml:"sourcedBy,omitempty" msgpack:"sb,omitempty"`
	Sources          []ForwardSource     `json:"sources,omitempty" yaml:"sources,omitempty" msgpack:"src,omitempty"`
	WorkingDirectory *string             `json:"workingDirectory,omitempty" yaml:"workingDirectory,omitempty" msgpack:"wd,omitempty"`
	IgnoredLines     Lines               `json:"ignoredLines,omitempty" yaml:"ignoredLines,omitempty" msgpack:"il,omitempty"`
	IgnoredNextLines Lines               `json:"ignoredNextLines,omitempty" yaml:"ignoredNextLines,omitempty" msgpack:"inl,omitempty"`
}

// IsLineIgnored reports whether diagnostics on line are suppressed.
func (m *FileMetadata) IsLineIgnored(line uint32) bool {
	if m == nil {
		return false
	}
	return m.IgnoredLines.Contains(line) || m.IgnoredNextLines.Contains(line)
}

// WorkDir returns the working-directory override or "".
func (m *FileMetadata) WorkDir() string {
	if m == nil || m.WorkingDirectory == nil {
		return ""
	}
	return *m.WorkingDirectory
}
