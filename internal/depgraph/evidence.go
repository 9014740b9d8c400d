package depgraph

import (
	"path"
	"regexp"
	"strings"

	"raven/internal/metadata"
	"raven/internal/source"
)

// BackwardEvidence records that Child declared Parent as its includer.
type BackwardEvidence struct {
	Child         string
	Parent        string
	CallSite      metadata.CallSite
	DirectiveLine uint32
	// Resolved is the call site found in the parent's content for match=
	// hints and for inference; nil when it could not be determined.
	Resolved *source.Pos
}

// ContentFunc returns the current text of a file, if it is available
// without blocking (open document or cached closed file).
type ContentFunc func(uri string) (string, bool)

var sourceCallRe = regexp.MustCompile(`\b(?:sys\.)?source\s*\(\s*(?:file\s*=\s*)?["']([^"']+)["']`)

// resolveMatch finds the first line of content containing pattern and
// returns the position of the match start.
func resolveMatch(content, pattern string) (source.Pos, bool) {
	if pattern == "" {
		return source.Pos{}, false
	}
	for i, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, pattern); idx >= 0 {
			return source.Pos{Line: uint32(i), Col: source.UTF16Column(line, idx)}, true // #nosec G115 -- line count fits in uint32
		}
	}
	return source.Pos{}, false
}

// inferCallSite scans a parent's content for a source() call whose path
// names the child file.
func inferCallSite(content, childName string) (source.Pos, bool) {
	if childName == "" {
		return source.Pos{}, false
	}
	for i, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, m := range sourceCallRe.FindAllStringSubmatchIndex(line, -1) {
			if path.Base(line[m[2]:m[3]]) == childName {
				return source.Pos{Line: uint32(i), Col: source.UTF16Column(line, m[0])}, true // #nosec G115
			}
		}
	}
	return source.Pos{}, false
}
