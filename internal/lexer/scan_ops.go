package lexer

import (
	"splice/internal/diag"
	"splice/internal/token"
)

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token { return lx.emit(k, start) }

	switch {
	case lx.cursor.Match("==="):
		return emit(token.EqEqEq)
	case lx.cursor.Match("!=="):
		return emit(token.BangEqEq)
	case lx.cursor.Match(".."):
		return emit(token.DotDot)
	case lx.cursor.Match("::"):
		return emit(token.ColonColon)
	case lx.cursor.Match("->"):
		return emit(token.Arrow)
	case lx.cursor.Match("&&"):
		return emit(token.AndAnd)
	case lx.cursor.Match("||"):
		return emit(token.OrOr)
	case lx.cursor.Match("=="):
		return emit(token.EqEq)
	case lx.cursor.Match("!="):
		return emit(token.BangEq)
	case lx.cursor.Match("!!"):
		return emit(token.BangBang)
	case lx.cursor.Match("<="):
		return emit(token.LtEq)
	case lx.cursor.Match(">="):
		return emit(token.GtEq)
	case lx.cursor.Match("++"):
		return emit(token.PlusPlus)
	case lx.cursor.Match("--"):
		return emit(token.MinusMinus)
	case lx.cursor.Match("+="):
		return emit(token.PlusAssign)
	case lx.cursor.Match("-="):
		return emit(token.MinusAssign)
	case lx.cursor.Match("*="):
		return emit(token.StarAssign)
	case lx.cursor.Match("/="):
		return emit(token.SlashAssign)
	case lx.cursor.Match("%="):
		return emit(token.PercentAssign)
	case lx.cursor.Match("?."):
		return emit(token.SafeDot)
	case lx.cursor.Match("?:"):
		return emit(token.Elvis)
	}

	ch := lx.cursor.Bump()
	switch ch {
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '%':
		return emit(token.Percent)
	case '=':
		return emit(token.Assign)
	case '!':
		return emit(token.Bang)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '?':
		return emit(token.Question)
	case ':':
		return emit(token.Colon)
	case ';':
		return emit(token.Semicolon)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	case '@':
		return emit(token.At)
	default:
		if ch >= 0x80 {
			lx.cursor.Reset(start)
			lx.cursor.BumpRune()
		}
		return lx.invalid(start, diag.LexUnknownChar, "unknown character")
	}
}
