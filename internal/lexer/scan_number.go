package lexer

import (
	"raven/internal/token"
)

// Поддержка: 1, 1.5, .5, 1., 1e-3, 0x1F, 0x1p3, суффиксы L и i.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '0' && (lx.cursor.PeekAt(1) == 'x' || lx.cursor.PeekAt(1) == 'X') {
		lx.cursor.Bump()
		lx.cursor.Bump()
		if !isHex(lx.cursor.Peek()) {
			tok := lx.emit(token.Invalid, start)
			lx.report("BadNumber", tok.Span, "expected hex digit after 0x")
			return tok
		}
		for isHex(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		if b := lx.cursor.Peek(); b == 'p' || b == 'P' {
			lx.scanExponent()
		}
		lx.scanSuffix()
		return lx.emit(token.NumberLit, start)
	}

	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		lx.scanExponent()
	}
	lx.scanSuffix()
	return lx.emit(token.NumberLit, start)
}

// scanExponent consumes [eEpP][+-]?digits; it backs off if no digits follow.
func (lx *Lexer) scanExponent() {
	m := lx.cursor.Mark()
	lx.cursor.Bump()
	if b := lx.cursor.Peek(); b == '+' || b == '-' {
		lx.cursor.Bump()
	}
	if !isDec(lx.cursor.Peek()) {
		lx.cursor.Reset(m)
		return
	}
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) scanSuffix() {
	if b := lx.cursor.Peek(); b == 'L' || b == 'i' {
		if !isIdentContinueByte(lx.cursor.PeekAt(1)) {
			lx.cursor.Bump()
		}
	}
}
