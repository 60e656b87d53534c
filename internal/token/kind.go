package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit is an integer literal (decimal, hex, binary, optional L suffix).
	IntLit
	// FloatLit is a floating point literal.
	FloatLit
	// CharLit is a character literal 'c'.
	CharLit
	// StringLit is a "..." string with its template entries.
	StringLit
	// RawStringLit is a """...""" string with its template entries.
	RawStringLit

	KwPackage  // package
	KwImport   // import
	KwAs       // as
	KwFun      // fun
	KwVal      // val
	KwVar      // var
	KwClass    // class
	KwIf       // if
	KwElse     // else
	KwWhen     // when
	KwWhile    // while
	KwDo       // do
	KwFor      // for
	KwIn       // in
	KwIs       // is
	KwReturn   // return
	KwBreak    // break
	KwContinue // continue
	KwThrow    // throw
	KwThis     // this
	KwSuper    // super
	KwNull     // null
	KwTrue     // true
	KwFalse    // false

	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	PlusPlus      // ++
	MinusMinus    // --
	EqEq          // ==
	BangEq        // !=
	EqEqEq        // ===
	BangEqEq      // !==
	Lt            // <
	Gt            // >
	LtEq          // <=
	GtEq          // >=
	AndAnd        // &&
	OrOr          // ||
	Bang          // !
	BangBang      // !!
	Question      // ?
	SafeDot       // ?.
	Elvis         // ?:
	Dot           // .
	DotDot        // ..
	Colon         // :
	ColonColon    // ::
	Comma         // ,
	Semicolon     // ;
	Arrow         // ->
	LParen        // (
	RParen        // )
	LBracket      // [
	RBracket      // ]
	LBrace        // {
	RBrace        // }
	At            // @
)

var kindNames = map[Kind]string{
	Invalid:       "invalid",
	EOF:           "EOF",
	Ident:         "identifier",
	IntLit:        "integer literal",
	FloatLit:      "float literal",
	CharLit:       "char literal",
	StringLit:     "string literal",
	RawStringLit:  "raw string literal",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Assign:        "=",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	PlusPlus:      "++",
	MinusMinus:    "--",
	EqEq:          "==",
	BangEq:        "!=",
	EqEqEq:        "===",
	BangEqEq:      "!==",
	Lt:            "<",
	Gt:            ">",
	LtEq:          "<=",
	GtEq:          ">=",
	AndAnd:        "&&",
	OrOr:          "||",
	Bang:          "!",
	BangBang:      "!!",
	Question:      "?",
	SafeDot:       "?.",
	Elvis:         "?:",
	Dot:           ".",
	DotDot:        "..",
	Colon:         ":",
	ColonColon:    "::",
	Comma:         ",",
	Semicolon:     ";",
	Arrow:         "->",
	LParen:        "(",
	RParen:        ")",
	LBracket:      "[",
	RBracket:      "]",
	LBrace:        "{",
	RBrace:        "}",
	At:            "@",
}

// String returns a human readable name of the kind, used in diagnostics.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	for kw, kind := range keywords {
		if kind == k {
			return kw
		}
	}
	return "unknown"
}

// IsAssignOp reports whether k is `=` or a compound assignment.
func (k Kind) IsAssignOp() bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign:
		return true
	default:
		return false
	}
}
