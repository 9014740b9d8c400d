package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := map[string]Kind{
		"function": KwFunction,
		"TRUE":     KwTrue,
		"NULL":     KwNull,
		"NA_real_": KwNA,
	}
	for text, want := range cases {
		got, ok := LookupKeyword(text)
		if !ok || got != want {
			t.Fatalf("LookupKeyword(%q) = %v, %v", text, got, ok)
		}
	}
	for _, text := range []string{"T", "F", "true", "Function", "source"} {
		if _, ok := LookupKeyword(text); ok {
			t.Fatalf("%q must not be a keyword", text)
		}
	}
}

func TestStringValue(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{`"utils.R"`, "utils.R"},
		{`'a\'b'`, "a'b"},
		{`"a\\b"`, `a\b`},
		{`"x\ny"`, "x\ny"},
		{`r"(C:\path)"`, `C:\path`},
		{`R'[raw]'`, "raw"},
		{`r"--{a)"b}--"`, `a)"b`},
	}
	for _, tc := range cases {
		got, ok := Token{Kind: StringLit, Text: tc.text}.StringValue()
		if !ok || got != tc.want {
			t.Fatalf("StringValue(%s) = %q, %v; want %q", tc.text, got, ok, tc.want)
		}
	}
	if _, ok := (Token{Kind: StringLit, Text: `r"(unterminated`}).StringValue(); ok {
		t.Fatalf("unterminated raw string must not decode")
	}
}

func TestNameStripsBackticks(t *testing.T) {
	tok := Token{Kind: Ident, Text: "`my var`"}
	if tok.Name() != "my var" {
		t.Fatalf("Name = %q", tok.Name())
	}
	if (Token{Kind: Ident, Text: ".hidden"}).Name() != ".hidden" {
		t.Fatalf("plain identifier changed")
	}
}

func TestKindClassification(t *testing.T) {
	if !LeftAssign.IsAssign() || !RightSuperAssign.IsAssign() || EqEq.IsAssign() {
		t.Fatalf("IsAssign broken")
	}
	if !PipeGt.IsBinaryOp() || RParen.IsBinaryOp() {
		t.Fatalf("IsBinaryOp broken")
	}
	if !(Token{Kind: KwNaN}).IsKeyword() || (Token{Kind: Ident}).IsKeyword() {
		t.Fatalf("IsKeyword broken")
	}
	if LeftAssign.String() != "<-" || Kind(250).String() != "Kind(?)" {
		t.Fatalf("String broken")
	}
}
