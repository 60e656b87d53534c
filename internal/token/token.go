package token

import (
	"splice/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a numeric, char, boolean, null or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, CharLit, StringLit, RawStringLit, KwTrue, KwFalse, KwNull:
		return true
	default:
		return false
	}
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsSoft reports whether the token is the soft keyword word (an identifier spelled word).
func (t Token) IsSoft(word string) bool { return t.Kind == Ident && t.Text == word }

// NewlineBefore reports whether a line break separates the token from the previous one.
func (t Token) NewlineBefore() bool {
	for _, tr := range t.Leading {
		if tr.Kind == TriviaNewline {
			return true
		}
		if tr.Kind == TriviaLineComment {
			return true
		}
	}
	return false
}

// Glued reports whether the token directly follows the previous one without trivia.
func (t Token) Glued() bool { return len(t.Leading) == 0 }

// Comments returns the comment trivia attached in front of the token.
func (t Token) Comments() []Trivia {
	var out []Trivia
	for _, tr := range t.Leading {
		if tr.Kind == TriviaLineComment || tr.Kind == TriviaBlockComment {
			out = append(out, tr)
		}
	}
	return out
}
