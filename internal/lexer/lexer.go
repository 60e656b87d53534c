package lexer

import (
	"splice/internal/diag"
	"splice/internal/source"
	"splice/internal/token"
)

// Lexer turns a byte range of a file into significant tokens. Whitespace and
// comments are attached to the following token as Leading trivia, so the
// formatter can reproduce them.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	hold   []token.Trivia // trivia перед следующим токеном
	done   bool           // после фатальной ошибки отдаём только EOF
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// NewRange lexes only [start, end) of file; string templates use it for
// their embedded expressions.
func NewRange(file *source.File, start, end uint32, opts Options) *Lexer {
	lx := New(file, opts)
	lx.cursor.Off, lx.cursor.Limit = start, end
	return lx
}

// Next returns the next significant token. Once the range is exhausted it
// keeps returning EOF, which carries the trailing trivia of the range.
func (lx *Lexer) Next() token.Token {
	if lx.done {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}
	lx.collectLeadingTrivia()
	tok := token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	if !lx.cursor.EOF() {
		tok = lx.scan()
	}
	if tok.Span.Len() > maxTokenLength {
		lx.errLex(diag.LexTokenTooLong, tok.Span, "token too long")
		lx.cursor.Off = lx.cursor.limit()
		lx.done = true
		tok.Kind = token.Invalid
	}
	tok.Leading, lx.hold = lx.hold, nil
	return tok
}

func (lx *Lexer) scan() token.Token {
	ch := lx.cursor.Peek()
	switch {
	case ch == '_' || ch >= 0x80 || ch|0x20 >= 'a' && ch|0x20 <= 'z':
		return lx.scanIdentOrKeyword()
	case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	case ch == '\'':
		return lx.scanChar()
	}
	return lx.scanOperatorOrPunct()
}

// Tokenize lexes the whole range; the last token is EOF.
func (lx *Lexer) Tokenize() []token.Token {
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) emit(k token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: k, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

// invalid reports the text since start and returns it as an Invalid token.
func (lx *Lexer) invalid(start Mark, code diag.Code, msg string) token.Token {
	tok := lx.emit(token.Invalid, start)
	lx.errLex(code, tok.Span, msg)
	return tok
}
