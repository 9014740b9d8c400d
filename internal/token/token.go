package token

import (
	"strings"

	"raven/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a number, string, or constant keyword.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case NumberLit, StringLit, KwTrue, KwFalse, KwNull, KwNA, KwInf, KwNaN:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFunction && t.Kind <= KwNaN
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// Name returns the identifier text without surrounding backticks.
func (t Token) Name() string {
	if t.Kind != Ident {
		return t.Text
	}
	if len(t.Text) >= 2 && t.Text[0] == '`' && t.Text[len(t.Text)-1] == '`' {
		return t.Text[1 : len(t.Text)-1]
	}
	return t.Text
}

// StringValue returns the unquoted content of a string literal.
// Escapes are decoded for the common cases; raw strings are returned verbatim.
func (t Token) StringValue() (string, bool) {
	if t.Kind != StringLit || len(t.Text) < 2 {
		return "", false
	}
	s := t.Text
	if s[0] == 'r' || s[0] == 'R' {
		return rawStringBody(s[1:])
	}
	q := s[0]
	if s[len(s)-1] != q {
		return "", false
	}
	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, true
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), true
}

// rawStringBody strips `"(` ... `)"` with optional dashes and any of (), [], {}.
func rawStringBody(s string) (string, bool) {
	if len(s) < 4 {
		return "", false
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return "", false
	}
	i := 1
	for i < len(s) && s[i] == '-' {
		i++
	}
	dashes := i - 1
	if i >= len(s) {
		return "", false
	}
	var closer byte
	switch s[i] {
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return "", false
	}
	tail := string(closer) + strings.Repeat("-", dashes) + string(q)
	if !strings.HasSuffix(s, tail) || len(s) < i+1+len(tail) {
		return "", false
	}
	return s[i+1 : len(s)-len(tail)], true
}
