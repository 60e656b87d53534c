package parser

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/token"
)

func (p *Parser) parseBlock() ast.NodeID {
	start, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	block := p.node(ast.Node{Kind: ast.KindBlock})
	if !ok {
		return block
	}
	p.parseStatementsInto(block)
	p.closeList(block)
	return p.setSpan(block, start)
}

// closeList съедает '}' и переносит комментарии перед ней в Trailing списка.
func (p *Parser) closeList(list ast.NodeID) {
	closing := p.peek()
	var tail []ast.Comment
	if len(p.tree.Children(list)) == 0 {
		tail = commentsOf(closing.Leading)
	} else {
		_, tail = splitTrivia(closing)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}'")
	n := p.tree.Node(list)
	n.Trailing = append(n.Trailing, tail...)
}

// parseStatementsInto разбирает операторы до '}' или EOF.
func (p *Parser) parseStatementsInto(list ast.NodeID) {
	first := true
	for {
		p.skipSemis()
		if p.atOr(token.RBrace, token.EOF) {
			return
		}
		tok := p.peek()
		before := p.pos
		stmt := p.parseStatement()
		if p.pos == before {
			p.err(diag.SynUnexpectedToken, "unexpected "+tok.Kind.String())
			p.advance()
			continue
		}
		p.withLeading(stmt, tok, first)
		first = false
		p.attachTrailing(stmt)
		p.tree.Append(list, stmt)
		if next := p.peek(); !next.NewlineBefore() && !p.atOr(token.Semicolon, token.RBrace, token.EOF) {
			p.err(diag.SynUnexpectedToken, "expected newline or ';' after statement, got "+next.Kind.String())
		}
	}
}

func (p *Parser) parseStatement() ast.NodeID {
	if decl := p.parseDeclaration(false); decl != ast.NoNodeID {
		return decl
	}
	start := p.peek()
	label := ""
	if p.at(token.Ident) && p.peekAt(1).Kind == token.At && p.peekAt(1).Glued() {
		switch p.peekAt(2).Kind {
		case token.KwWhile, token.KwDo, token.KwFor:
			label = p.advance().Text
			p.advance()
		}
	}
	switch p.peek().Kind {
	case token.KwWhile:
		return p.setSpan(p.parseWhile(label), start)
	case token.KwDo:
		return p.setSpan(p.parseDoWhile(label), start)
	case token.KwFor:
		return p.setSpan(p.parseFor(label), start)
	}
	expr := p.parseExpr()
	if tok := p.peek(); tok.Kind.IsAssignOp() && !tok.NewlineBefore() {
		op := p.advance()
		value := p.parseExpr()
		assign := p.node(ast.Node{Kind: ast.KindAssign, Op: op.Kind, Text: op.Text, Children: []ast.NodeID{expr, value}})
		return p.setSpan(assign, start)
	}
	return expr
}

// parseControlBody — тело if/else/while/for/when-ветки: блок или один оператор.
func (p *Parser) parseControlBody() ast.NodeID {
	if p.at(token.LBrace) {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseCondition() ast.NodeID {
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('")
	cond := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
	return cond
}

func (p *Parser) parseWhile(label string) ast.NodeID {
	p.advance() // while
	cond := p.parseCondition()
	body := ast.NoNodeID
	if !p.at(token.Semicolon) {
		body = p.parseControlBody()
	}
	return p.node(ast.Node{Kind: ast.KindWhile, Alt: label, Children: []ast.NodeID{cond, body}})
}

func (p *Parser) parseDoWhile(label string) ast.NodeID {
	p.advance() // do
	body := p.parseControlBody()
	p.expect(token.KwWhile, diag.SynUnexpectedToken, "expected 'while' after do-body")
	cond := p.parseCondition()
	return p.node(ast.Node{Kind: ast.KindDoWhile, Alt: label, Children: []ast.NodeID{body, cond}})
}

func (p *Parser) parseFor(label string) ast.NodeID {
	p.advance() // for
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after for")
	pstart := p.peek()
	name, _ := p.expect(token.Ident, diag.SynExpectIdentifier, "expected loop variable")
	typ := ast.NoNodeID
	if p.at(token.Colon) {
		p.advance()
		typ = p.parseType()
	}
	param := p.setSpan(p.node(ast.Node{Kind: ast.KindParam, Text: name.Text, Children: []ast.NodeID{typ, ast.NoNodeID}}), pstart)
	p.expect(token.KwIn, diag.SynUnexpectedToken, "expected 'in' in for loop")
	iter := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' to close for header")
	body := p.parseControlBody()
	return p.node(ast.Node{Kind: ast.KindFor, Alt: label, Children: []ast.NodeID{param, iter, body}})
}
