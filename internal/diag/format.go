package diag

import (
	"fmt"
	"path/filepath"
	"strings"

	"raven/internal/pathres"
	"raven/internal/source"
)

// FormatShort renders diagnostics one per line as
// "severity ID path:line:col message", with paths relative to base when
// possible. Columns are one-based UTF-16 offsets. Notes follow their
// diagnostic as "note" lines.
func FormatShort(diags []Diagnostic, base string) string {
	var sb strings.Builder
	for i, d := range diags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeLine(&sb, d.Severity.String(), d.Code, d.URI, d.Range, d.Message, base)
		for _, n := range d.Notes {
			sb.WriteByte('\n')
			writeLine(&sb, "note", d.Code, n.URI, n.Range, n.Msg, base)
		}
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, label string, code Code, uri string, rng source.Range, msg, base string) {
	msg = strings.ReplaceAll(msg, "\n", " ")
	fmt.Fprintf(sb, "%s %s %s:%d:%d %s", label, code.ID(), DisplayPath(uri, base), rng.Start.Line+1, rng.Start.Col+1, msg)
}

// DisplayPath shows uri relative to base, falling back to the URI itself.
func DisplayPath(uri, base string) string {
	p := pathres.URIToPath(uri)
	if p == "" {
		return uri
	}
	if base != "" {
		if rel, ok := relTo(base, p); ok {
			return rel
		}
	}
	return p
}

func relTo(base, p string) (string, bool) {
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
