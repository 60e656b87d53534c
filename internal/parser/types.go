package parser

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/token"
)

// parseType — Name[.Name]*[<args>][?] | (A, B) -> C | R.(A) -> C | (T)?
func (p *Parser) parseType() ast.NodeID {
	start := p.peek()
	if p.at(token.LParen) {
		return p.parseParenOrFunType(ast.NoNodeID)
	}
	ref := p.parseTypeRef()
	if p.at(token.Dot) && p.peekAt(1).Kind == token.LParen {
		p.advance()
		fn := p.parseParenOrFunType(ref)
		return p.setSpan(fn, start)
	}
	return ref
}

func (p *Parser) parseTypeRef() ast.NodeID {
	start := p.peek()
	name, ok := p.parseDottedName()
	if !ok {
		p.failed = true
		return p.node(ast.Node{Kind: ast.KindTypeRef, Text: "<error>"})
	}
	ref := p.node(ast.Node{Kind: ast.KindTypeRef, Text: name})
	if p.at(token.Lt) {
		args := p.parseTypeArgs()
		for _, a := range append([]ast.NodeID(nil), p.tree.Children(args)...) {
			p.tree.Append(ref, a)
		}
	}
	if p.atSameLine(token.Question) {
		p.advance()
		p.tree.Node(ref).Flags |= ast.FlagNullable
	}
	return p.setSpan(ref, start)
}

// parseParenOrFunType разбирает `(A, B) -> C` (с необязательным receiver) или `(T)?`.
func (p *Parser) parseParenOrFunType(recv ast.NodeID) ast.NodeID {
	start := p.advance() // (
	list := p.node(ast.Node{Kind: ast.KindTypeList})
	for !p.atOr(token.RParen, token.EOF) {
		// имена параметров в функциональном типе: (name: T) -> R
		if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
			p.advance()
			p.advance()
		}
		p.tree.Append(list, p.parseType())
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' in type")
	if !p.at(token.Arrow) && recv == ast.NoNodeID && len(p.tree.Children(list)) == 1 {
		inner := p.tree.Child(list, 0)
		if p.atSameLine(token.Question) {
			p.advance()
			p.tree.Node(inner).Flags |= ast.FlagNullable
		}
		return inner
	}
	p.expect(token.Arrow, diag.SynExpectType, "expected '->' in function type")
	ret := p.parseType()
	fn := p.node(ast.Node{Kind: ast.KindFunType, Children: []ast.NodeID{recv, list, ret}})
	return p.setSpan(fn, start)
}

// parseTypeArgs — `<T, *, out U>`
func (p *Parser) parseTypeArgs() ast.NodeID {
	start := p.advance() // <
	list := p.node(ast.Node{Kind: ast.KindTypeArgs})
	for !p.atOr(token.Gt, token.EOF) {
		if p.at(token.Star) {
			tok := p.advance()
			p.tree.Append(list, p.node(ast.Node{Kind: ast.KindStar, Span: tok.Span}))
		} else {
			variance := ""
			if p.at(token.KwIn) || p.atSoft("out") && p.peekAt(1).Kind == token.Ident {
				variance = p.advance().Text
			}
			arg := p.parseType()
			if variance != "" {
				p.tree.Node(arg).Alt = variance
			}
			p.tree.Append(list, arg)
		}
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.Gt, diag.SynUnclosedDelimiter, "expected '>' to close type arguments")
	return p.setSpan(list, start)
}
