package token

import (
	"testing"

	"splice/internal/source"
)

func TestKeywordLookup(t *testing.T) {
	for _, kw := range []string{"fun", "val", "when", "return", "null"} {
		if _, ok := LookupKeyword(kw); !ok {
			t.Fatalf("%q must be a keyword", kw)
		}
	}
	for _, soft := range []string{"get", "vararg", "constructor", "it"} {
		if k, ok := LookupKeyword(soft); ok || k != Ident {
			t.Fatalf("%q must stay an identifier", soft)
		}
	}
	if KwWhen.String() != "when" || SafeDot.String() != "?." {
		t.Fatalf("unexpected names %q %q", KwWhen.String(), SafeDot.String())
	}
}

func TestNewlineBefore(t *testing.T) {
	sp := source.Span{}
	tok := Token{Kind: Ident, Leading: []Trivia{{Kind: TriviaSpace, Span: sp, Text: " "}}}
	if tok.NewlineBefore() || tok.Glued() {
		t.Fatalf("space only: NewlineBefore=%v Glued=%v", tok.NewlineBefore(), tok.Glued())
	}
	tok.Leading = append(tok.Leading, Trivia{Kind: TriviaNewline, Text: "\n"})
	if !tok.NewlineBefore() {
		t.Fatalf("expected newline")
	}
	if !(Token{Kind: At}).Glued() {
		t.Fatalf("token without trivia must be glued")
	}
}
