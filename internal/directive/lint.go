package directive

import "strings"

// Problem is a line that mentions @lsp- but holds no recognised directive.
type Problem struct {
	Line uint32
	Text string
}

func known(line string) bool {
	return backwardRe.MatchString(line) ||
		forwardRe.MatchString(line) ||
		workdirRe.MatchString(line) ||
		ignoreRe.MatchString(line) ||
		ignoreNextRe.MatchString(line)
}

// Lint returns the lines Parse skipped as unrecognised.
func Lint(text string) []Problem {
	var out []Problem
	for i, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "@lsp-") || known(line) {
			continue
		}
		out = append(out, Problem{Line: uint32(i), Text: strings.TrimSpace(line)}) // #nosec G115 -- line count bounded by file size check
	}
	return out
}

// WorkDirLine returns the line of the working-directory directive that
// Parse keeps, the last one in the file.
func WorkDirLine(text string) (uint32, bool) {
	var (
		line  uint32
		found bool
	)
	for i, l := range strings.Split(text, "\n") {
		if !strings.Contains(l, "@lsp-") || backwardRe.MatchString(l) || forwardRe.MatchString(l) {
			continue
		}
		if workdirRe.MatchString(l) {
			line, found = uint32(i), true // #nosec G115 -- line count bounded by file size check
		}
	}
	return line, found
}
