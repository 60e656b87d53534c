package lexer

import (
	"splice/internal/diag"
	"splice/internal/token"
)

// scanString сканирует "..." или """...""" целиком, включая записи шаблона
// `$name` и `${expr}`. Внутри `${...}` допускаются вложенные строки и скобки.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	if lx.cursor.Match(`"""`) {
		if !lx.skipStringBody(true) {
			return lx.invalid(start, diag.LexUnterminatedString, "unterminated raw string literal")
		}
		return lx.emit(token.RawStringLit, start)
	}
	lx.cursor.Bump() // opening '"'
	if !lx.skipStringBody(false) {
		return lx.invalid(start, diag.LexUnterminatedString, "unterminated string literal")
	}
	return lx.emit(token.StringLit, start)
}

// skipStringBody съедает тело строки вместе с закрывающими кавычками.
func (lx *Lexer) skipStringBody(raw bool) bool {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case raw && b == '"':
			if lx.cursor.Match(`"""`) {
				// """" в конце: лишние кавычки принадлежат содержимому
				for lx.cursor.Peek() == '"' {
					lx.cursor.Bump()
				}
				return true
			}
			lx.cursor.Bump()
		case b == '"':
			lx.cursor.Bump()
			return true
		case !raw && b == '\\':
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				return false
			}
			lx.cursor.Bump()
		case !raw && b == '\n':
			return false
		case b == '$':
			lx.cursor.Bump()
			if lx.cursor.Peek() == '{' {
				lx.cursor.Bump()
				if !lx.skipTemplateExpr() {
					return false
				}
			}
		default:
			lx.cursor.Bump()
		}
	}
	return false
}

// skipTemplateExpr съедает содержимое `${...}` до парной `}`.
func (lx *Lexer) skipTemplateExpr() bool {
	depth := 1
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case '{':
			depth++
			lx.cursor.Bump()
		case '}':
			depth--
			lx.cursor.Bump()
			if depth == 0 {
				return true
			}
		case '"':
			raw := lx.cursor.Match(`"""`)
			if !raw {
				lx.cursor.Bump()
			}
			if !lx.skipStringBody(raw) {
				return false
			}
		case '\'':
			lx.scanChar()
		default:
			lx.cursor.Bump()
		}
	}
	return false
}

func (lx *Lexer) scanChar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '\''
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\\' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}
		if b == '\'' {
			lx.cursor.Bump()
			return lx.emit(token.CharLit, start)
		}
		if b == '\n' {
			break
		}
		lx.cursor.BumpRune()
	}
	return lx.invalid(start, diag.LexUnterminatedChar, "unterminated char literal")
}
