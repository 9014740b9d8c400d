package token

var keywords = map[string]Kind{
	"function": KwFunction,
	"if":       KwIf,
	"else":     KwElse,
	"for":      KwFor,
	"in":       KwIn,
	"while":    KwWhile,
	"repeat":   KwRepeat,
	"break":    KwBreak,
	"next":     KwNext,
	"TRUE":     KwTrue,
	"FALSE":    KwFalse,
	"NULL":     KwNull,
	"NA":       KwNA,
	"Inf":      KwInf,
	"NaN":      KwNaN,
	// typed NA constants behave like NA
	"NA_integer_":   KwNA,
	"NA_real_":      KwNA,
	"NA_character_": KwNA,
	"NA_complex_":   KwNA,
}

// LookupKeyword reports whether ident is a reserved word. Case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
