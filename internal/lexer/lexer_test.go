package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"splice/internal/diag"
	"splice/internal/lexer"
	"splice/internal/source"
	"splice/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.kt", []byte(input))
	bag := diag.NewBag(16)
	return lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}}), bag
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != token.EOF {
			out = append(out, tok.Kind)
		}
	}
	return out
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// expectTokens проверяет последовательность токенов
func expectTokens(t *testing.T, input string, expected ...token.Kind) []token.Token {
	t.Helper()
	lx, bag := makeTestLexer(input)
	tokens := lx.Tokenize()
	got := kinds(tokens)
	if len(got) != len(expected) {
		t.Fatalf("expected %d tokens, got %d\ninput: %q\ntokens: %s\ndiags: %v",
			len(expected), len(got), input, tokensToString(tokens), bag.Items())
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("token %d: expected %v, got %v (text %q)", i, expected[i], got[i], tokens[i].Text)
		}
	}
	return tokens
}

func TestKeywordsAndSoftKeywords(t *testing.T) {
	expectTokens(t, "fun val var when return get vararg constructor",
		token.KwFun, token.KwVal, token.KwVar, token.KwWhen, token.KwReturn,
		token.Ident, token.Ident, token.Ident)
}

func TestOperatorsAreGreedy(t *testing.T) {
	expectTokens(t, "a?.b ?: c!! === d !== e -> f :: g .. h",
		token.Ident, token.SafeDot, token.Ident, token.Elvis, token.Ident, token.BangBang,
		token.EqEqEq, token.Ident, token.BangEqEq, token.Ident, token.Arrow, token.Ident,
		token.ColonColon, token.Ident, token.DotDot, token.Ident)
	expectTokens(t, "x += 1; y++",
		token.Ident, token.PlusAssign, token.IntLit, token.Semicolon, token.Ident, token.PlusPlus)
}

func TestNumbers(t *testing.T) {
	toks := expectTokens(t, "1 10L 0xFF 1_000 2.5 1e3 3f 1..2",
		token.IntLit, token.IntLit, token.IntLit, token.IntLit, token.FloatLit, token.FloatLit,
		token.FloatLit, token.IntLit, token.DotDot, token.IntLit)
	if toks[1].Text != "10L" {
		t.Fatalf("suffix must stay in text, got %q", toks[1].Text)
	}
}

func TestStringTemplateIsSingleToken(t *testing.T) {
	toks := expectTokens(t, `"a $b ${c("}")} d" + 1`, token.StringLit, token.Plus, token.IntLit)
	if toks[0].Text != `"a $b ${c("}")} d"` {
		t.Fatalf("unexpected string text %q", toks[0].Text)
	}
	raw := expectTokens(t, "\"\"\"x\n\"y\" ${z}\"\"\"", token.RawStringLit)
	if !strings.HasSuffix(raw[0].Text, `${z}"""`) {
		t.Fatalf("unexpected raw string %q", raw[0].Text)
	}
	expectTokens(t, `'a' '\n'`, token.CharLit, token.CharLit)
}

func TestUnterminatedString(t *testing.T) {
	lx, bag := makeTestLexer("\"abc\nval")
	tokens := lx.Tokenize()
	if tokens[0].Kind != token.Invalid {
		t.Fatalf("expected invalid token, got %v", tokens[0].Kind)
	}
	if !bag.HasErrors() || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("expected LexUnterminatedString, got %v", bag.Items())
	}
}

func TestTriviaAndComments(t *testing.T) {
	lx, _ := makeTestLexer("a // one\n/* two /* nested */ */ b@c")
	toks := lx.Tokenize()
	if len(toks) != 5 {
		t.Fatalf("unexpected tokens %s", tokensToString(toks))
	}
	b := toks[1]
	if !b.NewlineBefore() {
		t.Fatalf("b must follow a newline")
	}
	if c := b.Comments(); len(c) != 2 || c[1].Kind != token.TriviaBlockComment {
		t.Fatalf("unexpected comments %+v", c)
	}
	if !toks[2].Glued() || toks[2].Kind != token.At {
		t.Fatalf("@ must be glued to b")
	}
}

func TestEOFKeepsTrailingComment(t *testing.T) {
	lx, _ := makeTestLexer("a\n// tail\n")
	toks := lx.Tokenize()
	eof := toks[len(toks)-1]
	if eof.Kind != token.EOF || len(eof.Comments()) != 1 {
		t.Fatalf("EOF must carry the trailing comment, got %+v", eof)
	}
}

func TestRangeLexing(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("r.kt", []byte(`"${a + b}"`))
	lx := lexer.NewRange(fs.Get(id), 3, 8, lexer.Options{})
	toks := lx.Tokenize()
	if got := kinds(toks); len(got) != 3 || got[1] != token.Plus {
		t.Fatalf("unexpected range tokens %s", tokensToString(toks))
	}
	if toks[0].Span.Start != 3 {
		t.Fatalf("span must stay in file coordinates, got %v", toks[0].Span)
	}
}

func TestUnicodeIdentifier(t *testing.T) {
	toks := expectTokens(t, "значение", token.Ident)
	if toks[0].Text != "значение" {
		t.Fatalf("unexpected text %q", toks[0].Text)
	}
}

func TestSplitTemplate(t *testing.T) {
	fs := source.NewFileSet()
	body := `a $b${c + "}"}\$d`
	id := fs.AddVirtual("t.kt", []byte(body))
	file := fs.Get(id)
	parts := lexer.SplitTemplate(file, 0, uint32(len(body)), false)
	want := []struct {
		kind lexer.TemplatePartKind
		text string
	}{
		{lexer.TemplateText, "a "},
		{lexer.TemplateRef, "b"},
		{lexer.TemplateExpr, `c + "}"`},
		{lexer.TemplateText, `\$d`},
	}
	if len(parts) != len(want) {
		t.Fatalf("expected %d parts, got %+v", len(want), parts)
	}
	for i, w := range want {
		got := string(file.Content[parts[i].Span.Start:parts[i].Span.End])
		if parts[i].Kind != w.kind || got != w.text {
			t.Errorf("part %d: got (%d, %q), want (%d, %q)", i, parts[i].Kind, got, w.kind, w.text)
		}
	}
}
