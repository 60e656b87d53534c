package token

var keywords = map[string]Kind{
	"package":  KwPackage,
	"import":   KwImport,
	"as":       KwAs,
	"fun":      KwFun,
	"val":      KwVal,
	"var":      KwVar,
	"class":    KwClass,
	"if":       KwIf,
	"else":     KwElse,
	"when":     KwWhen,
	"while":    KwWhile,
	"do":       KwDo,
	"for":      KwFor,
	"in":       KwIn,
	"is":       KwIs,
	"return":   KwReturn,
	"break":    KwBreak,
	"continue": KwContinue,
	"throw":    KwThrow,
	"this":     KwThis,
	"super":    KwSuper,
	"null":     KwNull,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LookupKeyword returns the keyword kind for ident, or Ident.
func LookupKeyword(ident string) (Kind, bool) {
	if k, ok := keywords[ident]; ok {
		return k, true
	}
	return Ident, false
}

// IsKeyword reports whether s is reserved and must be escaped as an identifier.
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}
