package parser

import (
	"strings"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/token"
)

var modifierWords = map[string]bool{
	"private": true, "public": true, "internal": true, "protected": true,
	"inline": true, "override": true, "open": true, "abstract": true, "final": true,
	"data": true, "suspend": true, "infix": true, "operator": true, "const": true,
	"lateinit": true, "tailrec": true, "external": true, "sealed": true,
	"noinline": true, "crossinline": true, "reified": true,
}

// declAhead — начинается ли с текущего токена декларация (аннотации и модификаторы
// пропускаются). Ничего не съедает.
func (p *Parser) declAhead(inClass bool) bool {
	i := p.pos
	for i < len(p.toks) {
		tok := p.toks[i]
		switch {
		case tok.Kind == token.KwFun || tok.Kind == token.KwVal || tok.Kind == token.KwVar || tok.Kind == token.KwClass:
			return true
		case inClass && tok.IsSoft("constructor"):
			return true
		case tok.Kind == token.At:
			i = p.skipAnnotationAt(i)
		case tok.Kind == token.Ident && modifierWords[tok.Text]:
			i++
		default:
			return false
		}
	}
	return false
}

// skipAnnotationAt пропускает `@a.b(...)` начиная с индекса i.
func (p *Parser) skipAnnotationAt(i int) int {
	i++ // @
	if i+1 < len(p.toks) && p.toks[i].Kind == token.Ident && p.toks[i+1].Kind == token.Colon {
		i += 2
	}
	for i < len(p.toks) && p.toks[i].Kind == token.Ident {
		i++
		if i < len(p.toks) && p.toks[i].Kind == token.Dot {
			i++
			continue
		}
		break
	}
	if i < len(p.toks) && p.toks[i].Kind == token.LParen && !p.toks[i].NewlineBefore() {
		depth := 0
		for ; i < len(p.toks); i++ {
			switch p.toks[i].Kind {
			case token.LParen:
				depth++
			case token.RParen:
				depth--
			case token.EOF:
				return i
			}
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// parseDeclaration разбирает fun/val/var/class (и constructor внутри класса).
// Возвращает NoNodeID, если впереди не декларация.
func (p *Parser) parseDeclaration(inClass bool) ast.NodeID {
	if !p.declAhead(inClass) {
		return ast.NoNodeID
	}
	start := p.peek()
	annots := p.node(ast.Node{Kind: ast.KindAnnotations})
	var mods []string
	for {
		if p.at(token.At) {
			p.tree.Append(annots, p.parseAnnotation())
			continue
		}
		if tok := p.peek(); tok.Kind == token.Ident && modifierWords[tok.Text] {
			mods = append(mods, p.advance().Text)
			continue
		}
		break
	}
	var id ast.NodeID
	switch {
	case p.at(token.KwFun):
		id = p.parseFun(annots)
	case p.at(token.KwVal), p.at(token.KwVar):
		id = p.parseProperty(annots)
	case p.at(token.KwClass):
		id = p.parseClass(annots)
	default:
		id = p.parseConstructor(annots)
	}
	n := p.tree.Node(id)
	n.Alt = strings.Join(mods, " ")
	n.Span = p.spanFrom(start)
	return id
}

// parseAnnotation — `@[target:]Name[(args)]`
func (p *Parser) parseAnnotation() ast.NodeID {
	start := p.advance() // @
	target := ""
	if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
		target = p.advance().Text
		p.advance()
	}
	name, _ := p.parseDottedName()
	args := ast.NoNodeID
	if p.atSameLine(token.LParen) {
		args = p.parseArgs()
	}
	id := p.node(ast.Node{Kind: ast.KindAnnotation, Text: name, Alt: target, Children: []ast.NodeID{args}})
	if target == "file" {
		p.attachTrailing(id)
	}
	return p.setSpan(id, start)
}

func (p *Parser) parseFun(annots ast.NodeID) ast.NodeID {
	start := p.advance() // fun
	typeParams := ast.NoNodeID
	if p.at(token.Lt) {
		typeParams = p.parseTypeParams()
	}
	recv, name := p.parseReceiverAndName()
	params := p.parseParams()
	ret := ast.NoNodeID
	if p.at(token.Colon) {
		p.advance()
		ret = p.parseType()
	}
	var flags ast.Flags
	body := ast.NoNodeID
	switch {
	case p.at(token.Assign):
		p.advance()
		body = p.parseExpr()
		flags |= ast.FlagExprBody
	case p.at(token.LBrace):
		body = p.parseBlock()
	}
	id := p.node(ast.Node{Kind: ast.KindFun, Text: name, Flags: flags, Children: []ast.NodeID{
		annots, typeParams, recv, params, ret, body,
	}})
	return p.setSpan(id, start)
}

// parseReceiverAndName — `[Recv<T>?.]name`
func (p *Parser) parseReceiverAndName() (recv ast.NodeID, name string) {
	type segment struct {
		name string
		args []ast.NodeID
	}
	var segs []segment
	nullable := false
	startTok := p.peek()
	for {
		tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected name")
		if !ok {
			break
		}
		seg := segment{name: tok.Text}
		if p.at(token.Lt) {
			if ta, ok := p.try(func() (ast.NodeID, bool) { return p.parseTypeArgs(), true }); ok {
				seg.args = append(seg.args, p.tree.Children(ta)...)
			}
		}
		segs = append(segs, seg)
		if p.at(token.Question) && p.peekAt(1).Kind == token.Dot {
			p.advance()
			nullable = true
		}
		if p.at(token.Dot) && p.peekAt(1).Kind == token.Ident {
			p.advance()
			continue
		}
		break
	}
	if len(segs) == 0 {
		return ast.NoNodeID, ""
	}
	name = segs[len(segs)-1].name
	if len(segs) == 1 {
		return ast.NoNodeID, name
	}
	recvSegs := segs[:len(segs)-1]
	names := make([]string, len(recvSegs))
	for i, s := range recvSegs {
		names[i] = s.name
	}
	recv = p.tree.NewTypeRef(strings.Join(names, "."), nullable, recvSegs[len(recvSegs)-1].args...)
	p.tree.Node(recv).Span = startTok.Span
	return recv, name
}

func (p *Parser) parseTypeParams() ast.NodeID {
	start := p.advance() // <
	list := p.node(ast.Node{Kind: ast.KindTypeParams})
	for !p.atOr(token.Gt, token.EOF) {
		tstart := p.peek()
		var mods []string
		for p.at(token.Ident) && (modifierWords[p.peek().Text] || p.peek().Text == "out") && p.peekAt(1).Kind == token.Ident {
			mods = append(mods, p.advance().Text)
		}
		if p.at(token.KwIn) {
			mods = append(mods, p.advance().Text)
		}
		tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected type parameter name")
		if !ok {
			break
		}
		bound := ast.NoNodeID
		if p.at(token.Colon) {
			p.advance()
			bound = p.parseType()
		}
		tp := p.node(ast.Node{Kind: ast.KindTypeParam, Text: tok.Text, Alt: strings.Join(mods, " "), Children: []ast.NodeID{bound}})
		p.tree.Append(list, p.setSpan(tp, tstart))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.Gt, diag.SynUnclosedDelimiter, "expected '>' to close type parameters")
	return p.setSpan(list, start)
}

func (p *Parser) parseParams() ast.NodeID {
	start, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' to start parameters")
	list := p.node(ast.Node{Kind: ast.KindParams})
	if !ok {
		return list
	}
	for !p.atOr(token.RParen, token.EOF) {
		p.tree.Append(list, p.parseParam())
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' to close parameters")
	return p.setSpan(list, start)
}

func (p *Parser) parseParam() ast.NodeID {
	start := p.peek()
	var flags ast.Flags
	var mods []string
	for p.at(token.At) {
		p.parseAnnotation() // аннотации параметров не сохраняем
	}
mods:
	for p.at(token.Ident) && p.peekAt(1).Kind != token.Colon {
		switch word := p.peek().Text; {
		case word == "vararg":
			flags |= ast.FlagVararg
		case modifierWords[word]:
			mods = append(mods, word)
		default:
			break mods
		}
		p.advance()
	}
	switch {
	case p.at(token.KwVal):
		p.advance()
		flags |= ast.FlagValParam
	case p.at(token.KwVar):
		p.advance()
		flags |= ast.FlagVarParam
	}
	tok, _ := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
	typ := ast.NoNodeID
	if p.at(token.Colon) {
		p.advance()
		typ = p.parseType()
	}
	def := ast.NoNodeID
	if p.at(token.Assign) {
		p.advance()
		def = p.parseExpr()
	}
	id := p.node(ast.Node{Kind: ast.KindParam, Text: tok.Text, Alt: strings.Join(mods, " "), Flags: flags, Children: []ast.NodeID{typ, def}})
	return p.setSpan(id, start)
}

func (p *Parser) parseProperty(annots ast.NodeID) ast.NodeID {
	kw := p.advance() // val/var
	var flags ast.Flags
	if kw.Kind == token.KwVar {
		flags |= ast.FlagVar
	}
	typeParams := ast.NoNodeID
	if p.at(token.Lt) {
		typeParams = p.parseTypeParams()
	}
	recv, name := p.parseReceiverAndName()
	typ := ast.NoNodeID
	if p.at(token.Colon) {
		p.advance()
		typ = p.parseType()
	}
	init := ast.NoNodeID
	if p.at(token.Assign) {
		p.advance()
		init = p.parseExpr()
	}
	getter := ast.NoNodeID
	if p.atGetter() {
		getter = p.parseGetter()
	}
	id := p.node(ast.Node{Kind: ast.KindProperty, Text: name, Flags: flags, Children: []ast.NodeID{
		annots, typeParams, recv, typ, init, getter,
	}})
	return p.setSpan(id, kw)
}

func (p *Parser) atGetter() bool {
	i := 0
	for p.peekAt(i).Kind == token.Ident && modifierWords[p.peekAt(i).Text] {
		i++
	}
	return p.peekAt(i).IsSoft("get") && p.peekAt(i+1).Kind == token.LParen
}

func (p *Parser) parseGetter() ast.NodeID {
	start := p.peek()
	for !p.atSoft("get") {
		p.advance() // модификаторы геттера не сохраняем
	}
	p.advance() // get
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after get")
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' after get(")
	if p.at(token.Colon) {
		p.advance()
		p.parseType()
	}
	var flags ast.Flags
	body := ast.NoNodeID
	switch {
	case p.at(token.Assign):
		p.advance()
		body = p.parseExpr()
		flags |= ast.FlagExprBody
	case p.at(token.LBrace):
		body = p.parseBlock()
	}
	id := p.node(ast.Node{Kind: ast.KindGetter, Flags: flags, Children: []ast.NodeID{body}})
	return p.setSpan(id, start)
}

func (p *Parser) parseClass(annots ast.NodeID) ast.NodeID {
	start := p.advance() // class
	tok, _ := p.expect(token.Ident, diag.SynExpectIdentifier, "expected class name")
	typeParams := ast.NoNodeID
	if p.at(token.Lt) {
		typeParams = p.parseTypeParams()
	}
	if p.atSoft("constructor") && p.peekAt(1).Kind == token.LParen {
		p.advance()
	}
	params := ast.NoNodeID
	if p.atSameLine(token.LParen) {
		params = p.parseParams()
	}
	supers := ast.NoNodeID
	if p.at(token.Colon) {
		supers = p.parseSuperList()
	}
	body := ast.NoNodeID
	if p.at(token.LBrace) {
		body = p.parseClassBody()
	}
	id := p.node(ast.Node{Kind: ast.KindClass, Text: tok.Text, Children: []ast.NodeID{
		annots, typeParams, params, supers, body,
	}})
	return p.setSpan(id, start)
}

func (p *Parser) parseSuperList() ast.NodeID {
	start := p.advance() // :
	list := p.node(ast.Node{Kind: ast.KindSuperList})
	for {
		estart := p.peek()
		typ := p.parseType()
		entry := typ
		if p.atSameLine(token.LParen) {
			args := p.parseArgs()
			entry = p.setSpan(p.node(ast.Node{Kind: ast.KindSuperCall, Children: []ast.NodeID{typ, args}}), estart)
		}
		p.tree.Append(list, entry)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	return p.setSpan(list, start)
}

func (p *Parser) parseClassBody() ast.NodeID {
	start := p.advance() // {
	body := p.node(ast.Node{Kind: ast.KindClassBody})
	first := true
	for {
		p.skipSemis()
		if p.atOr(token.RBrace, token.EOF) {
			break
		}
		tok := p.peek()
		member := p.parseDeclaration(true)
		if member == ast.NoNodeID {
			p.err(diag.SynUnexpectedToken, "expected member declaration, got "+tok.Kind.String())
			p.advance()
			continue
		}
		p.tree.Node(member).Leading = leadingOf(tok, first)
		first = false
		p.attachTrailing(member)
		p.tree.Append(body, member)
	}
	closing, _ := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close class body")
	_, tail := splitTrivia(closing)
	if first {
		tail = commentsOf(closing.Leading)
	}
	p.tree.Node(body).Trailing = tail
	return p.setSpan(body, start)
}

func (p *Parser) parseConstructor(annots ast.NodeID) ast.NodeID {
	start := p.advance() // constructor
	params := p.parseParams()
	deleg := ast.NoNodeID
	if p.at(token.Colon) {
		p.advance()
		dstart := p.peek()
		if p.atOr(token.KwThis, token.KwSuper) {
			kw := p.advance()
			args := p.parseArgs()
			deleg = p.setSpan(p.node(ast.Node{Kind: ast.KindDelegation, Text: kw.Text, Children: []ast.NodeID{args}}), dstart)
		} else {
			p.err(diag.SynUnexpectedToken, "expected this(...) or super(...) delegation")
		}
	}
	body := ast.NoNodeID
	if p.atSameLine(token.LBrace) {
		body = p.parseBlock()
	}
	id := p.node(ast.Node{Kind: ast.KindConstructor, Children: []ast.NodeID{annots, params, deleg, body}})
	return p.setSpan(id, start)
}
