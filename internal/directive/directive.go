// Package directive parses `# @lsp-...` comment directives.
//
//	# @lsp-sourced-by ../main.R line=12      (also run-by, included-by; match="...")
//	# @lsp-source helpers/io.R
//	# @lsp-cd ../data                        (also wd, working-directory, ...)
//	# @lsp-ignore
//	# @lsp-ignore-next
//
// The colon after the directive name is optional; paths may be double quoted,
// single quoted or bare.
package directive

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"raven/internal/metadata"
)

const (
	sep         = `(?:\s*:\s*|\s+)`
	pathPattern = `(?:"([^"]+)"|'([^']+)'|(\S+))`
)

var (
	backwardRe = regexp.MustCompile(`#\s*@lsp-(?:sourced-by|run-by|included-by)` + sep + pathPattern +
		`(?:\s+line\s*=\s*(\d+))?(?:\s+match\s*=\s*["']([^"']+)["'])?`)
	forwardRe    = regexp.MustCompile(`#\s*@lsp-source` + sep + pathPattern)
	workdirRe    = regexp.MustCompile(`#\s*@lsp-(?:working-directory|working-dir|current-directory|current-dir|cd|wd)` + sep + pathPattern)
	ignoreRe     = regexp.MustCompile(`#\s*@lsp-ignore\s*:?\s*$`)
	ignoreNextRe = regexp.MustCompile(`#\s*@lsp-ignore-next\s*:?\s*$`)
)

// capturePath picks the first non-empty of the quoted/bare groups starting at base.
func capturePath(m []string, base int) string {
	for i := base; i < base+3 && i < len(m); i++ {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}

// Parse scans text line by line. Only directive-derived facts are filled in;
// detected source() calls are merged by the extractor.
func Parse(text string, log *slog.Logger) *metadata.FileMetadata {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	meta := &metadata.FileMetadata{}
	for i, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "@lsp-") {
			continue
		}
		n := uint32(i) // #nosec G115 -- line count bounded by file size check

		if m := backwardRe.FindStringSubmatch(line); m != nil {
			d := metadata.BackwardDirective{Path: capturePath(m, 1), DirectiveLine: n}
			switch {
			case m[4] != "":
				v, err := strconv.ParseUint(m[4], 10, 32)
				if err != nil {
					log.Debug("directive: bad line hint", "line", n+1, "value", m[4])
					v = 1
				}
				if v > 0 {
					v--
				}
				d.CallSite = metadata.LineHint(uint32(v))
			case m[5] != "":
				d.CallSite = metadata.MatchHint(m[5])
			}
			meta.SourcedBy = append(meta.SourcedBy, d)
			continue
		}

		if m := forwardRe.FindStringSubmatch(line); m != nil {
			meta.Sources = append(meta.Sources, metadata.ForwardSource{
				Path:               capturePath(m, 1),
				Line:               n,
				IsDirective:        true,
				SysSourceGlobalEnv: true,
			})
			continue
		}

		if m := workdirRe.FindStringSubmatch(line); m != nil {
			wd := capturePath(m, 1)
			meta.WorkingDirectory = &wd
			continue
		}

		if ignoreRe.MatchString(line) {
			meta.IgnoredLines = meta.IgnoredLines.With(n)
			continue
		}

		if ignoreNextRe.MatchString(line) {
			meta.IgnoredNextLines = meta.IgnoredNextLines.With(n + 1)
			continue
		}

		log.Debug("directive: unrecognised", "line", n+1, "text", strings.TrimSpace(line))
	}
	return meta
}

// IsLineIgnored reports whether diagnostics on a zero-based line are suppressed.
func IsLineIgnored(meta *metadata.FileMetadata, line uint32) bool {
	return meta.IsLineIgnored(line)
}
