package lexer

import (
	"splice/internal/diag"
	"splice/internal/token"
)

// Поддержка: 0, 123, 1_000, 0b..., 0x..., 1L, 1.0, .5, 1e-3, 2.5f.
// Суффиксы остаются в Token.Text.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		kind = token.FloatLit
		lx.eatDigits()
		return lx.finishFloat(start)
	}

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) | 0x20 {
		case 'x':
			lx.cursor.Off += 2
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
			return lx.finishInt(start)
		case 'b':
			lx.cursor.Off += 2
			for b := lx.cursor.Peek(); b == '0' || b == '1' || b == '_'; b = lx.cursor.Peek() {
				lx.cursor.Bump()
			}
			return lx.finishInt(start)
		}
	}

	lx.eatDigits()

	// дробная часть: только если после точки цифра ("1..2" и "1.foo()" — не дробь)
	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		lx.cursor.Bump()
		lx.eatDigits()
		kind = token.FloatLit
	}
	if kind == token.FloatLit || lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E' ||
		lx.cursor.Peek() == 'f' || lx.cursor.Peek() == 'F' {
		return lx.finishFloat(start)
	}
	return lx.finishInt(start)
}

func (lx *Lexer) eatDigits() {
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) finishInt(start Mark) token.Token {
	if lx.cursor.Peek() == 'L' || lx.cursor.Peek() == 'u' || lx.cursor.Peek() == 'U' {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == 'L' {
		lx.cursor.Bump()
	}
	return lx.emit(token.IntLit, start)
}

func (lx *Lexer) finishFloat(start Mark) token.Token {
	if lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E' {
		lx.cursor.Bump()
		if lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			return lx.invalid(start, diag.LexBadNumber, "expected digit after exponent")
		}
		lx.eatDigits()
	}
	if lx.cursor.Peek() == 'f' || lx.cursor.Peek() == 'F' {
		lx.cursor.Bump()
	}
	return lx.emit(token.FloatLit, start)
}
