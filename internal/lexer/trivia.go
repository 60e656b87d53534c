package lexer

import (
	"splice/internal/diag"
	"splice/internal/token"
)

// collectLeadingTrivia собирает trivia перед значимым токеном в lx.hold.
// Пробелы, табы и \r склеиваются в один TriviaSpace, подряд идущие \n в
// один TriviaNewline. Комментарии `//` и `/* */` (с вложенностью) идут
// отдельными элементами; незакрытый блочный комментарий режется на EOF.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		switch b := lx.cursor.Peek(); {
		case isBlank(b):
			for isBlank(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.holdTrivia(token.TriviaSpace, start)
		case b == '\n':
			for lx.cursor.Eat('\n') {
			}
			lx.holdTrivia(token.TriviaNewline, start)
		case lx.cursor.Match("//"):
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			lx.holdTrivia(token.TriviaLineComment, start)
		case lx.cursor.Match("/*"):
			lx.skipBlockComment(start)
			lx.holdTrivia(token.TriviaBlockComment, start)
		default:
			return
		}
	}
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }

func (lx *Lexer) holdTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}

// skipBlockComment съедает тело после `/*` вместе с закрывающим `*/`.
func (lx *Lexer) skipBlockComment(start Mark) {
	for depth := 1; depth > 0; {
		switch {
		case lx.cursor.EOF():
			lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
			return
		case lx.cursor.Match("/*"):
			depth++
		case lx.cursor.Match("*/"):
			depth--
		default:
			lx.cursor.Bump()
		}
	}
}
