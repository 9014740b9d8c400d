package diag

import (
	"raven/internal/source"
)

// Note points at a related location.
type Note struct {
	URI   string
	Range source.Range
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	URI      string
	Range    source.Range
	Notes    []Note
}

func New(sev Severity, code Code, uri string, rng source.Range, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		URI:      uri,
		Range:    rng,
		Message:  msg,
	}
}

func (d Diagnostic) WithNote(uri string, rng source.Range, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{URI: uri, Range: rng, Msg: msg})
	return d
}

// Line is the zero-based start line.
func (d Diagnostic) Line() uint32 { return d.Range.Start.Line }
