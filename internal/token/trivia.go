package token

import "raven/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	// TriviaComment is a '#' comment up to (not including) the newline.
	TriviaComment
	// TriviaDirective is a comment starting with '# @lsp-'.
	TriviaDirective
	// TriviaContinuation is a newline swallowed inside parentheses or brackets.
	TriviaContinuation
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
