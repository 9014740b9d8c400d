package diag

import (
	"errors"
	"testing"

	"raven/internal/pathres"
	"raven/internal/source"
)

func rng(line, col uint32) source.Range {
	return source.Range{Start: source.Pos{Line: line, Col: col}, End: source.Pos{Line: line, Col: col + 1}}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"error":       SevError,
		"Warning":     SevWarning,
		"information": SevInfo,
		"info":        SevInfo,
		"hint":        SevHint,
		"off":         SevOff,
	}
	for in, want := range cases {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Fatalf("ParseSeverity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSeverity("loud"); !errors.Is(err, ErrInvalidSeverity) {
		t.Fatalf("expected ErrInvalidSeverity, got %v", err)
	}
	if SevError.LSP() != 1 || SevHint.LSP() != 4 || SevOff.LSP() != 0 {
		t.Fatalf("unexpected LSP mapping")
	}
}

func TestBagSortDedupAndOff(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevWarning, ScopeUndefined, "file:///p/a.R", rng(3, 0), "Undefined variable: x"))
	b.Add(New(SevError, XFileCircular, "file:///p/a.R", rng(1, 0), "cycle"))
	b.Add(New(SevWarning, ScopeUndefined, "file:///p/a.R", rng(3, 0), "Undefined variable: x"))
	if b.Add(New(SevOff, XFileMissing, "file:///p/a.R", rng(0, 0), "hidden")) {
		t.Fatalf("SevOff diagnostics must be dropped")
	}
	b.Sort()
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("want 2 diagnostics, got %d", b.Len())
	}
	if b.Items()[0].Code != XFileCircular {
		t.Fatalf("want circular first, got %v", b.Items()[0].Code)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}

	b.DropLines(func(line uint32) bool { return line == 1 })
	if b.Len() != 1 || b.HasErrors() {
		t.Fatalf("ignored line not dropped: %+v", b.Items())
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(1)
	if !b.Add(New(SevInfo, XFileInfo, "u", rng(0, 0), "a")) {
		t.Fatalf("first add rejected")
	}
	if b.Add(New(SevInfo, XFileInfo, "u", rng(1, 0), "b")) {
		t.Fatalf("limit ignored")
	}
	other := NewBag(0)
	other.Add(New(SevInfo, XFileInfo, "u", rng(2, 0), "c"))
	b.Merge(other)
	if b.Len() != 2 {
		t.Fatalf("merge lost items: %d", b.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		NewReportBuilder(r, SevWarning, XFileMissing, "file:///p/a.R", rng(0, 7), "File not found: 'b.R'").
			WithNote("file:///p/a.R", rng(0, 0), "sourced here").
			Emit()
	}
	if bag.Len() != 1 {
		t.Fatalf("want 1 diagnostic, got %d", bag.Len())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("note lost")
	}
}

func TestFormatShort(t *testing.T) {
	uri := pathres.PathToURI("/workspace/R/main.R")
	diags := []Diagnostic{
		New(SevError, XFileCircular, uri, rng(0, 0), "first line\nsecond").
			WithNote(uri, rng(4, 2), "note line"),
		New(SevWarning, ScopeOutOfScope, uri, rng(1, 3), "another"),
	}
	want := "error XF1002 R/main.R:1:1 first line second\n" +
		"note XF1002 R/main.R:5:3 note line\n" +
		"warning SCP2001 R/main.R:2:4 another"
	if got := FormatShort(diags, "/workspace"); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
	if got := Code(2002).String(); got != "undefined-variable" {
		t.Fatalf("code name: %s", got)
	}
}
