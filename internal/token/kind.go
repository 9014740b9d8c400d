package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline terminates a statement unless inside parentheses or brackets.
	Newline

	// Ident represents an identifier token, including backtick-quoted names.
	Ident
	// NumberLit represents a numeric literal (1, 1L, 0x1F, 1e-3, 2i).
	NumberLit
	// StringLit represents a quoted or raw string literal.
	StringLit

	// KwFunction represents the 'function' keyword.
	KwFunction
	// KwIf represents the 'if' keyword.
	KwIf
	// KwElse represents the 'else' keyword.
	KwElse
	// KwFor represents the 'for' keyword.
	KwFor
	// KwIn represents the 'in' keyword.
	KwIn
	// KwWhile represents the 'while' keyword.
	KwWhile
	// KwRepeat represents the 'repeat' keyword.
	KwRepeat
	// KwBreak represents the 'break' keyword.
	KwBreak
	// KwNext represents the 'next' keyword.
	KwNext
	KwTrue
	KwFalse
	KwNull
	KwNA
	KwInf
	KwNaN

	// LeftAssign is '<-'.
	LeftAssign
	// SuperAssign is '<<-'.
	SuperAssign
	// RightAssign is '->'.
	RightAssign
	// RightSuperAssign is '->>'.
	RightSuperAssign
	// EqAssign is '='. Statement-level only counts as a definition.
	EqAssign
	// ColonEq is ':=' (data.table and rlang).
	ColonEq

	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Bang
	Amp
	AndAnd
	Pipe
	OrOr
	Plus
	Minus
	Star
	Slash
	Caret
	Tilde
	Question
	Colon
	// NsGet is '::'.
	NsGet
	// NsGetInt is ':::'.
	NsGetInt
	Dollar
	At
	// PipeGt is the native pipe '|>'.
	PipeGt
	// Special is a user infix operator '%op%' (including %>% and %in%).
	Special
	// Backslash is the lambda shorthand '\(x)'.
	Backslash

	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	// LDoubleBracket is '[['. Closed by two RBracket tokens.
	LDoubleBracket
	Comma
	Semicolon
)

var kindNames = [...]string{
	Invalid:          "Invalid",
	EOF:              "EOF",
	Newline:          "Newline",
	Ident:            "Ident",
	NumberLit:        "NumberLit",
	StringLit:        "StringLit",
	KwFunction:       "function",
	KwIf:             "if",
	KwElse:           "else",
	KwFor:            "for",
	KwIn:             "in",
	KwWhile:          "while",
	KwRepeat:         "repeat",
	KwBreak:          "break",
	KwNext:           "next",
	KwTrue:           "TRUE",
	KwFalse:          "FALSE",
	KwNull:           "NULL",
	KwNA:             "NA",
	KwInf:            "Inf",
	KwNaN:            "NaN",
	LeftAssign:       "<-",
	SuperAssign:      "<<-",
	RightAssign:      "->",
	RightSuperAssign: "->>",
	EqAssign:         "=",
	ColonEq:          ":=",
	EqEq:             "==",
	BangEq:           "!=",
	Lt:               "<",
	LtEq:             "<=",
	Gt:               ">",
	GtEq:             ">=",
	Bang:             "!",
	Amp:              "&",
	AndAnd:           "&&",
	Pipe:             "|",
	OrOr:             "||",
	Plus:             "+",
	Minus:            "-",
	Star:             "*",
	Slash:            "/",
	Caret:            "^",
	Tilde:            "~",
	Question:         "?",
	Colon:            ":",
	NsGet:            "::",
	NsGetInt:         ":::",
	Dollar:           "$",
	At:               "@",
	PipeGt:           "|>",
	Special:          "%op%",
	Backslash:        `\`,
	LParen:           "(",
	RParen:           ")",
	LBrace:           "{",
	RBrace:           "}",
	LBracket:         "[",
	RBracket:         "]",
	LDoubleBracket:   "[[",
	Comma:            ",",
	Semicolon:        ";",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsAssign reports whether k is one of the assignment operators.
func (k Kind) IsAssign() bool {
	switch k {
	case LeftAssign, SuperAssign, RightAssign, RightSuperAssign, EqAssign, ColonEq:
		return true
	default:
		return false
	}
}

// IsBinaryOp reports whether a statement cannot end right after k.
func (k Kind) IsBinaryOp() bool {
	switch k {
	case LeftAssign, SuperAssign, RightAssign, RightSuperAssign, EqAssign, ColonEq,
		EqEq, BangEq, Lt, LtEq, Gt, GtEq, Amp, AndAnd, Pipe, OrOr, Plus, Minus, Star,
		Slash, Caret, Tilde, Question, Colon, NsGet, NsGetInt, Dollar, At, PipeGt,
		Special, Bang:
		return true
	default:
		return false
	}
}
