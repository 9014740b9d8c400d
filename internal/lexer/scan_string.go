package lexer

import (
	"bytes"
	"fmt"

	"raven/internal/token"

	"fortio.org/safecast"
)

// scanString reads "..." or '...'. Strings may span lines; escapes skip one byte.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	q := lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		if b == '\\' {
			lx.cursor.Bump()
			continue
		}
		if b == q {
			return lx.emit(token.StringLit, start)
		}
	}
	tok := lx.emit(token.Invalid, start)
	lx.report("UnterminatedString", tok.Span, "unterminated string literal")
	return tok
}

// isRawStringStart matches r"(, r'[, R"---{ and friends.
func (lx *Lexer) isRawStringStart() bool {
	q := lx.cursor.PeekAt(1)
	if q != '"' && q != '\'' {
		return false
	}
	n := uint32(2)
	for lx.cursor.PeekAt(n) == '-' {
		n++
	}
	switch lx.cursor.PeekAt(n) {
	case '(', '[', '{':
		return true
	}
	return false
}

func (lx *Lexer) scanRawString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // r
	q := lx.cursor.Bump()
	dashes := 0
	for lx.cursor.Peek() == '-' {
		lx.cursor.Bump()
		dashes++
	}
	var closer byte
	switch lx.cursor.Bump() {
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	default:
		closer = '}'
	}
	tail := append([]byte{closer}, bytes.Repeat([]byte{'-'}, dashes)...)
	tail = append(tail, q)

	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	if i := bytes.Index(rest, tail); i >= 0 {
		adv, err := safecast.Conv[uint32](i + len(tail))
		if err != nil {
			panic(fmt.Errorf("raw string overflow: %w", err))
		}
		lx.cursor.Off += adv
		return lx.emit(token.StringLit, start)
	}
	lx.cursor.Off = lx.cursor.Limit
	tok := lx.emit(token.Invalid, start)
	lx.report("UnterminatedString", tok.Span, "unterminated raw string literal")
	return tok
}
