package lexer

import (
	"bytes"

	"raven/internal/token"
)

var directivePrefix = []byte("@lsp-")

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
//   - ' ', '\t', '\r', '\f' коалесцируются в один TriviaSpace
//   - '#...' до '\n' -> TriviaComment или TriviaDirective
//   - '\n' внутри () или [] -> TriviaContinuation
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case isSpace(b):
			for isSpace(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)

		case b == '#':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			kind := token.TriviaComment
			sp := lx.cursor.SpanFrom(start)
			if bytes.HasPrefix(bytes.TrimLeft(lx.file.Content[sp.Start+1:sp.End], " \t"), directivePrefix) {
				kind = token.TriviaDirective
			}
			lx.pushTrivia(kind, start)

		case b == '\n' && lx.insideParens():
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaContinuation, start)

		default:
			return
		}
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\f'
}
