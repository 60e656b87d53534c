package parser

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
	"splice/internal/token"
)

// advance — съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind != token.EOF {
		p.pos++
		if tok.Kind != token.Invalid {
			p.lastSpan = tok.Span
		}
	}
	return tok
}

// getDiagnosticSpan — для EOF используем позицию после lastSpan
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect — ожидаем конкретный токен. Если нет — репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diag.SevError, diagSpan, msg)
	return token.Token{Kind: token.Invalid, Span: diagSpan, Text: p.peek().Text}, false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if sev == diag.SevError {
		p.failed = true
	}
	if p.speculative > 0 || p.opts.Reporter == nil {
		return false
	}
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	if p.opts.Enough() {
		return false // достигли максимального количества ошибок
	}
	diag.NewReportBuilder(p.opts.Reporter, sev, code, sp, msg).Emit()
	return true
}

// try выполняет fn спекулятивно; при неудаче откатывает позицию.
func (p *Parser) try(fn func() (ast.NodeID, bool)) (ast.NodeID, bool) {
	m := p.mark()
	failed := p.failed
	p.failed = false
	p.speculative++
	id, ok := fn()
	p.speculative--
	if !ok || p.failed {
		p.reset(m)
		p.failed = failed
		return ast.NoNodeID, false
	}
	p.failed = failed
	return id, true
}

func commentsOf(trivia []token.Trivia) []ast.Comment {
	var out []ast.Comment
	for _, tr := range trivia {
		switch tr.Kind {
		case token.TriviaLineComment:
			out = append(out, ast.Comment{Text: tr.Text})
		case token.TriviaBlockComment:
			out = append(out, ast.Comment{Text: tr.Text, Block: true})
		}
	}
	return out
}

// splitTrivia делит комментарии токена на хвост предыдущей строки и ведущие.
func splitTrivia(tok token.Token) (trailing, leading []ast.Comment) {
	seenNewline := false
	for _, tr := range tok.Leading {
		switch tr.Kind {
		case token.TriviaNewline:
			seenNewline = true
		case token.TriviaLineComment, token.TriviaBlockComment:
			c := ast.Comment{Text: tr.Text, Block: tr.Kind == token.TriviaBlockComment}
			if seenNewline {
				leading = append(leading, c)
			} else {
				trailing = append(trailing, c)
				if tr.Kind == token.TriviaLineComment {
					seenNewline = true // строчный комментарий заканчивается переводом строки
				}
			}
		}
	}
	return trailing, leading
}

// leadingOf — комментарии, относящиеся к конструкции, начинающейся с tok.
func leadingOf(tok token.Token, first bool) []ast.Comment {
	if first {
		return commentsOf(tok.Leading)
	}
	_, lead := splitTrivia(tok)
	return lead
}

// attachTrailing прикрепляет комментарии до конца строки к id.
func (p *Parser) attachTrailing(id ast.NodeID) {
	trailing, _ := splitTrivia(p.peek())
	if len(trailing) == 0 {
		return
	}
	n := p.tree.Node(id)
	n.Trailing = append(n.Trailing, trailing...)
}

func (p *Parser) withLeading(id ast.NodeID, tok token.Token, first bool) ast.NodeID {
	if n := p.tree.Node(id); n != nil {
		n.Leading = append(leadingOf(tok, first), n.Leading...)
	}
	return id
}
