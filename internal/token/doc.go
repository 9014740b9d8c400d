// Package token defines lexical token kinds and trivia for R sources.
// Invariants:
//   - Token.Text is exactly the source text covered by Token.Span.
//   - Comments and horizontal whitespace are leading Trivia and never appear
//     in the main token stream.
//   - Newlines are real tokens (Kind Newline): they terminate R statements.
//     Consecutive newlines are coalesced into one token.
//   - `TRUE`, `FALSE`, `NULL`, `NA`, `Inf`, `NaN` are keywords; `T` and `F`
//     are plain identifiers.
package token
