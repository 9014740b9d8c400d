package lexer

import (
	"raven/internal/token"
)

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token { return lx.emit(k, start) }

	switch {
	case lx.try3('<', '<', '-'):
		return emit(token.SuperAssign)
	case lx.try3('-', '>', '>'):
		return emit(token.RightSuperAssign)
	case lx.try3(':', ':', ':'):
		return emit(token.NsGetInt)
	case lx.try2('<', '-'):
		return emit(token.LeftAssign)
	case lx.try2('-', '>'):
		return emit(token.RightAssign)
	case lx.try2(':', ':'):
		return emit(token.NsGet)
	case lx.try2(':', '='):
		return emit(token.ColonEq)
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('!', '='):
		return emit(token.BangEq)
	case lx.try2('<', '='):
		return emit(token.LtEq)
	case lx.try2('>', '='):
		return emit(token.GtEq)
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('|', '|'):
		return emit(token.OrOr)
	case lx.try2('|', '>'):
		return emit(token.PipeGt)
	case lx.try2('*', '*'):
		return emit(token.Caret)
	case lx.try2('[', '['):
		return emit(token.LDoubleBracket)
	}

	ch := lx.cursor.Bump()
	switch ch {
	case '%':
		return lx.scanSpecial(start)
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '^':
		return emit(token.Caret)
	case '=':
		return emit(token.EqAssign)
	case '!':
		return emit(token.Bang)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '&':
		return emit(token.Amp)
	case '|':
		return emit(token.Pipe)
	case '~':
		return emit(token.Tilde)
	case '?':
		return emit(token.Question)
	case ':':
		return emit(token.Colon)
	case '$':
		return emit(token.Dollar)
	case '@':
		return emit(token.At)
	case '\\':
		return emit(token.Backslash)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	case ',':
		return emit(token.Comma)
	case ';':
		return emit(token.Semicolon)
	}

	tok := emit(token.Invalid)
	lx.report("UnknownChar", tok.Span, "unexpected character")
	return tok
}

// scanSpecial reads %op% after the opening '%' was consumed.
func (lx *Lexer) scanSpecial(start Mark) token.Token {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\n' {
			break
		}
		lx.cursor.Bump()
		if b == '%' {
			return lx.emit(token.Special, start)
		}
	}
	tok := lx.emit(token.Invalid, start)
	lx.report("UnterminatedOperator", tok.Span, "unterminated %op% operator")
	return tok
}

func (lx *Lexer) try2(a, b byte) bool {
	if lx.cursor.Peek() == a && lx.cursor.PeekAt(1) == b {
		lx.cursor.Off += 2
		return true
	}
	return false
}

func (lx *Lexer) try3(a, b, c byte) bool {
	if lx.cursor.Peek() == a && lx.cursor.PeekAt(1) == b && lx.cursor.PeekAt(2) == c {
		lx.cursor.Off += 3
		return true
	}
	return false
}
