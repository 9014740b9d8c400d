package source

import "testing"

func TestNewFileNormalizesCRLFAndBOM(t *testing.T) {
	f := NewFile("dir/../main.R", []byte("\xEF\xBB\xBFx <- 1\r\ny <- 2\r\n"), 0)
	if f.Path != "main.R" {
		t.Fatalf("unexpected path %q", f.Path)
	}
	if f.Text() != "x <- 1\ny <- 2\n" {
		t.Fatalf("unexpected content %q", f.Text())
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
	if f.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d", f.LineCount())
	}
	if got := f.LineText(1); got != "y <- 2" {
		t.Fatalf("line 1 = %q", got)
	}
	if got := f.LineText(7); got != "" {
		t.Fatalf("out of range line = %q", got)
	}
}

func TestPosOfCountsUTF16Units(t *testing.T) {
	// "é" is 2 bytes / 1 unit, "😀" is 4 bytes / 2 units.
	f := FromString("u.R", "a\né😀 <- 1\n")
	off := uint32(len("a\né😀 "))
	got := f.PosOf(off)
	if got != (Pos{Line: 1, Col: 4}) {
		t.Fatalf("PosOf = %+v", got)
	}
	if back := f.OffsetOf(got); back != off {
		t.Fatalf("OffsetOf = %d, want %d", back, off)
	}
	if back := f.OffsetOf(Pos{Line: 1, Col: MaxCol}); back != uint32(len("a\né😀 <- 1")) {
		t.Fatalf("OffsetOf(end of line) = %d", back)
	}
}

func TestPosOrdering(t *testing.T) {
	a := Pos{Line: 2, Col: 5}
	b := Pos{Line: 2, Col: 6}
	if !a.Before(b) || b.Before(a) || !a.AtOrBefore(a) {
		t.Fatalf("ordering broken for %v %v", a, b)
	}
	if !b.Before(LineEnd(2)) {
		t.Fatalf("line end must sort after any column on the line")
	}
	if !LineEnd(2).Before(Pos{Line: 3}) {
		t.Fatalf("line end must sort before the next line")
	}
	if !EOF.IsEOF() || LineEnd(2).IsEOF() {
		t.Fatalf("EOF detection broken")
	}
	if got := (Pos{Line: 0, Col: 0}).String(); got != "1:1" {
		t.Fatalf("String = %q", got)
	}
}

func TestUTF16Column(t *testing.T) {
	line := "x😀y"
	if got := UTF16Column(line, len("x😀")); got != 3 {
		t.Fatalf("UTF16Column = %d", got)
	}
	if got := UTF16Column(line, 100); got != 4 {
		t.Fatalf("UTF16Column clamp = %d", got)
	}
	if got := UTF16Len("é"); got != 1 {
		t.Fatalf("UTF16Len = %d", got)
	}
}
