package diagfmt

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"raven/internal/diag"
	"raven/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
	hintColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgGreen)
	gutterColor  = color.New(color.FgBlue)
)

// Pretty writes each diagnostic as
//
//	<path>:<line>:<col>: <severity> <ID>: <message>
//
// followed by the source line with the range underlined and, when asked,
// its notes. Items are expected to be sorted.
func Pretty(w io.Writer, items []diag.Diagnostic, opts PrettyOpts) error {
	for i, d := range items {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var b strings.Builder
		sev := paint(opts.Color, severityColor(d.Severity), d.Severity.String())
		fmt.Fprintf(&b, "%s:%d:%d: %s %s: %s\n",
			displayPath(d.URI, opts.PathMode, opts.Base),
			d.Range.Start.Line+1, d.Range.Start.Col+1,
			sev, d.Code.ID(), d.Message)
		if opts.Sources != nil {
			if file := opts.Sources(d.URI); file != nil {
				writeContext(&b, file, d.Range, opts.Color)
			}
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&b, "  %s %s:%d: %s\n",
					paint(opts.Color, noteColor, "note:"),
					displayPath(n.URI, opts.PathMode, opts.Base),
					n.Range.Start.Line+1, n.Msg)
			}
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeContext(b *strings.Builder, file *source.File, rng source.Range, useColor bool) {
	line := file.LineText(rng.Start.Line)
	if strings.TrimSpace(line) == "" {
		return
	}
	num := fmt.Sprintf("%d", rng.Start.Line+1)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(b, "%s %s\n", pad, paint(useColor, gutterColor, "|"))
	fmt.Fprintf(b, "%s %s %s\n", paint(useColor, gutterColor, num), paint(useColor, gutterColor, "|"), line)

	before := prefixByUTF16(line, rng.Start.Col)
	end := rng.End.Col
	if rng.End.Line != rng.Start.Line {
		end = ^uint32(0)
	}
	covered := strings.TrimPrefix(prefixByUTF16(line, end), before)
	marks := max(runewidth.StringWidth(covered), 1)
	indent := make([]byte, 0, len(before))
	for _, r := range before {
		if r == '\t' {
			indent = append(indent, '\t')
			continue
		}
		indent = append(indent, strings.Repeat(" ", runewidth.RuneWidth(r))...)
	}
	caret := "^" + strings.Repeat("~", marks-1)
	fmt.Fprintf(b, "%s %s %s%s\n", pad, paint(useColor, gutterColor, "|"), indent, paint(useColor, errorColor, caret))
}

// prefixByUTF16 cuts line after col UTF-16 code units.
func prefixByUTF16(line string, col uint32) string {
	var units uint32
	for i, r := range line {
		if units >= col {
			return line[:i]
		}
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		units += uint32(n)
	}
	return line
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	case diag.SevInfo:
		return infoColor
	default:
		return hintColor
	}
}

func paint(enabled bool, c *color.Color, s string) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}
