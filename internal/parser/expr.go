package parser

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/lexer"
	"splice/internal/token"
)

// Приоритеты бинарных операторов, от слабого к сильному.
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precCompare
	precNamedCheck // in, !in, is, !is
	precElvis
	precInfix // a to b
	precRange
	precAdditive
	precMultiplicative
	precAs
)

func (p *Parser) parseExpr() ast.NodeID {
	return p.parseBinary(precOr)
}

// binaryOp определяет оператор в текущей позиции.
// width — сколько токенов занимает оператор (!in, !is, as?).
func (p *Parser) binaryOp() (prec, width int) {
	tok := p.peek()
	nl := tok.NewlineBefore()
	switch tok.Kind {
	case token.OrOr:
		return precOr, 1
	case token.AndAnd:
		return precAnd, 1
	case token.Elvis:
		return precElvis, 1
	}
	if nl {
		// остальные операторы не переносятся через строку
		return precNone, 0
	}
	switch tok.Kind {
	case token.EqEq, token.BangEq, token.EqEqEq, token.BangEqEq:
		return precEquality, 1
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return precCompare, 1
	case token.KwIn, token.KwIs:
		return precNamedCheck, 1
	case token.Bang:
		if next := p.peekAt(1); next.Glued() && (next.Kind == token.KwIn || next.Kind == token.KwIs) {
			return precNamedCheck, 2
		}
	case token.Ident:
		return precInfix, 1
	case token.DotDot:
		return precRange, 1
	case token.Plus, token.Minus:
		return precAdditive, 1
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative, 1
	case token.KwAs:
		if next := p.peekAt(1); next.Kind == token.Question && next.Glued() {
			return precAs, 2
		}
		return precAs, 1
	}
	return precNone, 0
}

func (p *Parser) parseBinary(minPrec int) ast.NodeID {
	start := p.peek()
	left := p.parsePrefix()
	for {
		prec, width := p.binaryOp()
		if prec == precNone || prec < minPrec {
			return left
		}
		op := p.advance()
		negated := false
		if width == 2 {
			if op.Kind == token.Bang {
				negated = true
				op = p.advance()
			} else {
				p.advance() // `?` после as
			}
		}
		switch op.Kind {
		case token.KwIs:
			typ := p.parseType()
			n := ast.Node{Kind: ast.KindIs, Children: []ast.NodeID{left, typ}}
			if negated {
				n.Flags |= ast.FlagNegated
			}
			left = p.setSpan(p.node(n), start)
		case token.KwAs:
			n := ast.Node{Kind: ast.KindAs}
			if width == 2 {
				n.Flags |= ast.FlagSafe
			}
			n.Children = []ast.NodeID{left, p.parseType()}
			left = p.setSpan(p.node(n), start)
		default:
			right := p.parseBinary(prec + 1)
			text := op.Text
			if negated {
				text = "!" + text
			}
			n := ast.Node{Kind: ast.KindBinary, Op: op.Kind, Text: text, Children: []ast.NodeID{left, right}}
			if negated {
				n.Flags |= ast.FlagNegated
			}
			left = p.setSpan(p.node(n), start)
		}
	}
}

func (p *Parser) parsePrefix() ast.NodeID {
	start := p.peek()
	switch start.Kind {
	case token.Minus, token.Plus, token.Bang, token.PlusPlus, token.MinusMinus:
		p.advance()
		operand := p.parsePrefix()
		return p.setSpan(p.node(ast.Node{Kind: ast.KindPrefix, Op: start.Kind, Text: start.Text, Children: []ast.NodeID{operand}}), start)
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix — селекторы, вызовы, индексы, постфиксные операторы.
func (p *Parser) parsePostfix(x ast.NodeID) ast.NodeID {
	if x == ast.NoNodeID {
		return x
	}
	start := p.tokenAtSpan(x)
	for {
		tok := p.peek()
		switch {
		case tok.Kind == token.Dot || tok.Kind == token.SafeDot:
			p.advance()
			sel := p.parseSelector()
			n := ast.Node{Kind: ast.KindDot, Children: []ast.NodeID{x, sel}}
			if tok.Kind == token.SafeDot {
				n.Flags |= ast.FlagSafe
			}
			x = p.setSpan(p.node(n), start)
		case tok.Kind == token.LParen && !tok.NewlineBefore(),
			tok.Kind == token.LBrace && !tok.NewlineBefore() && p.lambdaTarget(x),
			p.atLabeledLambda() && p.lambdaTarget(x),
			tok.Kind == token.Lt && !tok.NewlineBefore() && p.callable(x):
			call, ok := p.parseCallSuffix(x, start)
			if !ok {
				return x
			}
			x = call
		case tok.Kind == token.LBracket && !tok.NewlineBefore():
			p.advance()
			args := p.node(ast.Node{Kind: ast.KindArgs})
			p.parseArgList(args, token.RBracket)
			p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
			x = p.setSpan(p.node(ast.Node{Kind: ast.KindIndex, Children: []ast.NodeID{x, args}}), start)
		case (tok.Kind == token.PlusPlus || tok.Kind == token.MinusMinus || tok.Kind == token.BangBang) && tok.Glued():
			p.advance()
			x = p.setSpan(p.node(ast.Node{Kind: ast.KindPostfix, Op: tok.Kind, Text: tok.Text, Children: []ast.NodeID{x}}), start)
		case tok.Kind == token.ColonColon && tok.Glued():
			p.advance()
			if p.at(token.KwClass) {
				p.advance()
				x = p.setSpan(p.node(ast.Node{Kind: ast.KindClassLit, Children: []ast.NodeID{x}}), start)
				continue
			}
			name, _ := p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name after '::'")
			x = p.setSpan(p.node(ast.Node{Kind: ast.KindCallableRef, Text: name.Text, Children: []ast.NodeID{x}}), start)
		default:
			return x
		}
	}
}

// tokenAtSpan — синтетический стартовый токен для узла x.
func (p *Parser) tokenAtSpan(x ast.NodeID) token.Token {
	return token.Token{Span: p.tree.Node(x).Span}
}

func (p *Parser) parseSelector() ast.NodeID {
	tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name")
	if !ok {
		return p.node(ast.Node{Kind: ast.KindName, Span: tok.Span})
	}
	return p.node(ast.Node{Kind: ast.KindName, Text: tok.Text, Span: tok.Span})
}

// callable — может ли x быть вызываемым с явными типовыми аргументами.
func (p *Parser) callable(x ast.NodeID) bool {
	switch p.tree.Kind(x) {
	case ast.KindName:
		return true
	case ast.KindDot:
		return p.tree.Kind(p.tree.Child(x, 1)) == ast.KindName
	}
	return false
}

// lambdaTarget — можно ли навесить завершающую лямбду на x.
func (p *Parser) lambdaTarget(x ast.NodeID) bool {
	switch p.tree.Kind(x) {
	case ast.KindName, ast.KindCall:
		return p.tree.Kind(x) != ast.KindCall || p.tree.Child(x, ast.CallLambda) == ast.NoNodeID
	case ast.KindDot:
		return p.lambdaTarget(p.tree.Child(x, 1))
	}
	return false
}

// parseCallSuffix разбирает `<T>(args) { lambda }` после callee.
// Для a.b(...) вызов строится вокруг селектора: Dot[a, Call[b, ...]].
func (p *Parser) parseCallSuffix(x ast.NodeID, start token.Token) (ast.NodeID, bool) {
	if p.tree.Kind(x) == ast.KindDot {
		sel := p.tree.Child(x, 1)
		if p.tree.Kind(sel) == ast.KindName || p.tree.Kind(sel) == ast.KindCall {
			selStart := p.tokenAtSpan(sel)
			call, ok := p.parseCallSuffix(sel, selStart)
			if !ok {
				return x, false
			}
			p.tree.SetChild(x, 1, call)
			return p.setSpan(x, start), true
		}
	}
	if p.tree.Kind(x) == ast.KindCall && (p.at(token.LBrace) || p.atLabeledLambda()) {
		p.tree.SetChild(x, ast.CallLambda, p.parseTrailingLambda())
		return p.setSpan(x, start), true
	}

	typeArgs := ast.NoNodeID
	if p.at(token.Lt) {
		ta, ok := p.try(func() (ast.NodeID, bool) {
			ta := p.parseTypeArgs()
			return ta, p.at(token.LParen) || p.at(token.LBrace)
		})
		if !ok {
			return x, false
		}
		typeArgs = ta
	}
	args := p.node(ast.Node{Kind: ast.KindArgs})
	var flags ast.Flags
	if p.at(token.LParen) {
		astart := p.advance()
		p.parseArgList(args, token.RParen)
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' to close arguments")
		p.setSpan(args, astart)
	} else {
		flags |= ast.FlagNoParens
	}
	lambda := ast.NoNodeID
	if p.atSameLine(token.LBrace) || p.atLabeledLambda() {
		lambda = p.parseTrailingLambda()
	}
	call := p.node(ast.Node{Kind: ast.KindCall, Flags: flags, Children: []ast.NodeID{x, typeArgs, args, lambda}})
	return p.setSpan(call, start), true
}

// atLabeledLambda — `label@{` на той же строке.
func (p *Parser) atLabeledLambda() bool {
	return p.at(token.Ident) && !p.peek().NewlineBefore() &&
		p.peekAt(1).Kind == token.At && p.peekAt(1).Glued() &&
		p.peekAt(2).Kind == token.LBrace && p.peekAt(2).Glued()
}

func (p *Parser) parseTrailingLambda() ast.NodeID {
	if !p.atLabeledLambda() {
		return p.parseLambda("")
	}
	start := p.advance()
	p.advance() // @
	return p.setSpan(p.parseLambda(start.Text), start)
}

func (p *Parser) parseArgs() ast.NodeID {
	start, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('")
	args := p.node(ast.Node{Kind: ast.KindArgs})
	if !ok {
		return args
	}
	p.parseArgList(args, token.RParen)
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' to close arguments")
	return p.setSpan(args, start)
}

// parseArgList — `[name =] [*] expr, ...` до закрывающей скобки.
func (p *Parser) parseArgList(args ast.NodeID, closing token.Kind) {
	for !p.atOr(closing, token.EOF) {
		start := p.peek()
		name := ""
		if p.at(token.Ident) && p.peekAt(1).Kind == token.Assign {
			name = p.advance().Text
			p.advance()
		}
		var flags ast.Flags
		if p.at(token.Star) {
			p.advance()
			flags |= ast.FlagSpread
		}
		before := p.pos
		value := p.parseExpr()
		if p.pos == before {
			p.err(diag.SynExpectExpression, "expected argument")
			return
		}
		arg := p.node(ast.Node{Kind: ast.KindArg, Flags: flags, Text: name, Children: []ast.NodeID{value}})
		p.tree.Append(args, p.setSpan(arg, start))
		if !p.at(token.Comma) {
			return
		}
		p.advance()
	}
}

func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLit, token.FloatLit, token.CharLit, token.KwTrue, token.KwFalse, token.KwNull:
		p.advance()
		return p.node(ast.Node{Kind: ast.KindLiteral, Op: tok.Kind, Text: tok.Text, Span: tok.Span})
	case token.StringLit, token.RawStringLit:
		p.advance()
		return p.parseStringTemplate(tok)
	case token.Ident:
		p.advance()
		if p.at(token.At) && p.peek().Glued() && p.peekAt(1).Kind == token.LBrace && p.peekAt(1).Glued() {
			p.advance()
			return p.setSpan(p.parseLambda(tok.Text), tok)
		}
		return p.node(ast.Node{Kind: ast.KindName, Text: tok.Text, Span: tok.Span})
	case token.KwThis:
		p.advance()
		return p.setSpan(p.node(ast.Node{Kind: ast.KindThis, Text: p.parseJumpLabel()}), tok)
	case token.KwSuper:
		p.advance()
		return p.node(ast.Node{Kind: ast.KindSuper, Span: tok.Span})
	case token.LParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
		return p.setSpan(p.node(ast.Node{Kind: ast.KindParen, Children: []ast.NodeID{inner}}), tok)
	case token.LBrace:
		return p.parseLambda("")
	case token.KwIf:
		return p.parseIf()
	case token.KwWhen:
		return p.parseWhen()
	case token.KwReturn:
		p.advance()
		label := p.parseJumpLabel()
		value := ast.NoNodeID
		if p.startsValue() {
			value = p.parseExpr()
		}
		return p.setSpan(p.node(ast.Node{Kind: ast.KindReturn, Text: label, Children: []ast.NodeID{value}}), tok)
	case token.KwBreak, token.KwContinue:
		p.advance()
		kind := ast.KindBreak
		if tok.Kind == token.KwContinue {
			kind = ast.KindContinue
		}
		return p.setSpan(p.node(ast.Node{Kind: kind, Text: p.parseJumpLabel()}), tok)
	case token.KwThrow:
		p.advance()
		value := p.parseExpr()
		return p.setSpan(p.node(ast.Node{Kind: ast.KindThrow, Children: []ast.NodeID{value}}), tok)
	case token.ColonColon:
		p.advance()
		name, _ := p.expect(token.Ident, diag.SynExpectIdentifier, "expected name after '::'")
		return p.setSpan(p.node(ast.Node{Kind: ast.KindCallableRef, Text: name.Text, Children: []ast.NodeID{ast.NoNodeID}}), tok)
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+tok.Kind.String())
	return p.node(ast.Node{Kind: ast.KindInvalid, Span: tok.Span})
}

// parseJumpLabel — `@label`, приклеенный к предыдущему токену.
func (p *Parser) parseJumpLabel() string {
	if p.at(token.At) && p.peek().Glued() && p.peekAt(1).Kind == token.Ident && p.peekAt(1).Glued() {
		p.advance()
		return p.advance().Text
	}
	return ""
}

// startsValue — может ли после return идти значение на той же строке.
func (p *Parser) startsValue() bool {
	tok := p.peek()
	if tok.NewlineBefore() {
		return false
	}
	switch tok.Kind {
	case token.EOF, token.RBrace, token.RParen, token.RBracket, token.Semicolon, token.Comma,
		token.KwElse, token.Arrow, token.Colon:
		return false
	}
	return true
}

func (p *Parser) parseIf() ast.NodeID {
	start := p.advance() // if
	cond := p.parseCondition()
	then := ast.NoNodeID
	if !p.at(token.KwElse) && !p.at(token.Semicolon) {
		then = p.parseControlBody()
	}
	els := ast.NoNodeID
	m := p.mark()
	p.skipSemis()
	if p.at(token.KwElse) {
		p.advance()
		els = p.parseControlBody()
	} else {
		p.reset(m)
	}
	if then == ast.NoNodeID {
		then = p.node(ast.Node{Kind: ast.KindBlock, Span: start.Span})
	}
	return p.setSpan(p.node(ast.Node{Kind: ast.KindIf, Children: []ast.NodeID{cond, then, els}}), start)
}

func (p *Parser) parseWhen() ast.NodeID {
	start := p.advance() // when
	subject := ast.NoNodeID
	if p.at(token.LParen) {
		subject = p.parseCondition()
	}
	when := p.node(ast.Node{Kind: ast.KindWhen, Children: []ast.NodeID{subject}})
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after when"); !ok {
		return p.setSpan(when, start)
	}
	first := true
	for {
		p.skipSemis()
		if p.atOr(token.RBrace, token.EOF) {
			break
		}
		etok := p.peek()
		before := p.pos
		entry := p.parseWhenEntry()
		if p.pos == before {
			p.advance()
			continue
		}
		p.withLeading(entry, etok, first)
		first = false
		p.attachTrailing(entry)
		p.tree.Append(when, entry)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close when")
	return p.setSpan(when, start)
}

func (p *Parser) parseWhenEntry() ast.NodeID {
	start := p.peek()
	conds := ast.NoNodeID
	if p.at(token.KwElse) {
		p.advance()
	} else {
		conds = p.node(ast.Node{Kind: ast.KindWhenConds})
		for {
			p.tree.Append(conds, p.parseWhenCond())
			if !p.at(token.Comma) {
				break
			}
			p.advance()
			if p.at(token.Arrow) {
				break
			}
		}
		p.setSpan(conds, start)
	}
	if _, ok := p.expect(token.Arrow, diag.SynUnexpectedToken, "expected '->' in when entry"); !ok {
		return p.setSpan(p.node(ast.Node{Kind: ast.KindWhenEntry, Children: []ast.NodeID{conds, ast.NoNodeID}}), start)
	}
	body := p.parseControlBody()
	return p.setSpan(p.node(ast.Node{Kind: ast.KindWhenEntry, Children: []ast.NodeID{conds, body}}), start)
}

func (p *Parser) parseWhenCond() ast.NodeID {
	start := p.peek()
	var flags ast.Flags
	if p.at(token.Bang) && (p.peekAt(1).Kind == token.KwIs || p.peekAt(1).Kind == token.KwIn) && p.peekAt(1).Glued() {
		p.advance()
		flags |= ast.FlagNegated
	}
	switch {
	case p.at(token.KwIs):
		p.advance()
		typ := p.parseType()
		return p.setSpan(p.node(ast.Node{Kind: ast.KindWhenIs, Flags: flags, Children: []ast.NodeID{typ}}), start)
	case p.at(token.KwIn):
		p.advance()
		x := p.parseExpr()
		return p.setSpan(p.node(ast.Node{Kind: ast.KindWhenIn, Flags: flags, Children: []ast.NodeID{x}}), start)
	}
	return p.parseExpr()
}

// parseLambda — `{ [params ->] statements }`, '{' ещё не съеден.
func (p *Parser) parseLambda(label string) ast.NodeID {
	start := p.advance() // {
	params := ast.NoNodeID
	if ps, ok := p.try(p.parseLambdaParams); ok {
		params = ps
	}
	block := p.node(ast.Node{Kind: ast.KindBlock})
	p.parseStatementsInto(block)
	p.closeList(block)
	p.setSpan(block, start)
	lambda := p.node(ast.Node{Kind: ast.KindLambda, Alt: label, Children: []ast.NodeID{params, block}})
	return p.setSpan(lambda, start)
}

func (p *Parser) parseLambdaParams() (ast.NodeID, bool) {
	start := p.peek()
	list := p.node(ast.Node{Kind: ast.KindParams})
	if p.at(token.Arrow) {
		p.advance()
		return p.setSpan(list, start), true
	}
	for {
		pstart := p.peek()
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected lambda parameter")
		if !ok {
			return list, false
		}
		typ := ast.NoNodeID
		if p.at(token.Colon) {
			p.advance()
			typ = p.parseType()
		}
		param := p.node(ast.Node{Kind: ast.KindParam, Text: name.Text, Children: []ast.NodeID{typ, ast.NoNodeID}})
		p.tree.Append(list, p.setSpan(param, pstart))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	_, ok := p.expect(token.Arrow, diag.SynUnexpectedToken, "expected '->'")
	return p.setSpan(list, start), ok
}

// parseStringTemplate раскладывает строковый литерал на части;
// выражения `${...}` разбираются отдельным парсером на своём диапазоне.
func (p *Parser) parseStringTemplate(tok token.Token) ast.NodeID {
	raw := tok.Kind == token.RawStringLit
	quote := uint32(1)
	var flags ast.Flags
	if raw {
		quote = 3
		flags |= ast.FlagRaw
	}
	str := p.node(ast.Node{Kind: ast.KindString, Flags: flags, Span: tok.Span})
	start, end := tok.Span.Start+quote, tok.Span.End-quote
	if end < start {
		return str
	}
	for _, part := range lexer.SplitTemplate(p.file, start, end, raw) {
		text := string(p.file.Content[part.Span.Start:part.Span.End])
		var child ast.NodeID
		switch part.Kind {
		case lexer.TemplateText:
			child = p.node(ast.Node{Kind: ast.KindStringText, Text: text, Span: part.Span})
		case lexer.TemplateRef:
			child = p.node(ast.Node{Kind: ast.KindStringRef, Text: text, Span: part.Span})
		case lexer.TemplateExpr:
			sub := newParser(p.tree, p.file, part.Span.Start, part.Span.End, p.opts)
			sub.speculative = p.speculative
			x := sub.parseExpr()
			if !sub.at(token.EOF) {
				sub.err(diag.SynBadTemplateEntry, "unexpected "+sub.peek().Kind.String()+" in string template")
			}
			if sub.failed {
				p.failed = true
			}
			child = p.node(ast.Node{Kind: ast.KindStringExpr, Span: part.Span, Children: []ast.NodeID{x}})
		}
		p.tree.Append(str, child)
	}
	return str
}
