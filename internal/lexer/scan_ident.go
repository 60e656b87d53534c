package lexer

import (
	"splice/internal/token"
)

// scanIdentOrKeyword сканирует [Ident] и проверяет через LookupKeyword.
// Мягкие ключевые слова (get, vararg, constructor) остаются Ident.
// Не-буква (в том числе не-ASCII) уходит в scanOperatorOrPunct.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	if !lx.cursor.EatIdent() {
		return lx.scanOperatorOrPunct()
	}
	tok := lx.emit(token.Ident, start)
	if k, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = k
	}
	return tok
}
