package parser

import (
	"slices"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/lexer"
	"splice/internal/source"
	"splice/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser — состояние парсера на один диапазон файла.
// Токены читаются в срез целиком: парсеру нужен откат для `<...>`
// и параметров лямбд.
type Parser struct {
	tree        *ast.Tree
	file        *source.File
	toks        []token.Token
	pos         int
	opts        *Options
	lastSpan    source.Span
	speculative int // > 0 — ошибки не репортим
	failed      bool
}

func newParser(tree *ast.Tree, file *source.File, start, end uint32, opts *Options) *Parser {
	lx := lexer.NewRange(file, start, end, lexer.Options{Reporter: opts.Reporter})
	return &Parser{
		tree: tree,
		file: file,
		toks: lx.Tokenize(),
		opts: opts,
	}
}

func fileEnd(file *source.File) uint32 {
	return uint32(len(file.Content))
}

// ParseFile разбирает файл целиком и регистрирует его корень в tree.
func ParseFile(tree *ast.Tree, file *source.File, opts Options) ast.NodeID {
	p := newParser(tree, file, 0, fileEnd(file), &opts)
	root := p.parseFile()
	tree.SetRoot(file.ID, root)
	tree.MarkClean(root)
	return root
}

// ParseExpression разбирает содержимое файла как одно выражение.
func ParseExpression(tree *ast.Tree, file *source.File, opts Options) (ast.NodeID, bool) {
	p := newParser(tree, file, 0, fileEnd(file), &opts)
	e := p.parseExpr()
	if !p.at(token.EOF) {
		p.err(diag.SynUnexpectedToken, "unexpected "+p.peek().Kind.String()+" after expression")
	}
	return e, !p.failed
}

// ParseType разбирает содержимое файла как тип.
func ParseType(tree *ast.Tree, file *source.File, opts Options) (ast.NodeID, bool) {
	p := newParser(tree, file, 0, fileEnd(file), &opts)
	ty := p.parseType()
	if !p.at(token.EOF) {
		p.err(diag.SynUnexpectedToken, "unexpected "+p.peek().Kind.String()+" after type")
	}
	return ty, !p.failed
}

func (p *Parser) peek() token.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// atSameLine — токен k и перед ним нет перевода строки.
func (p *Parser) atSameLine(k token.Kind) bool {
	tok := p.peek()
	return tok.Kind == k && !tok.NewlineBefore()
}

func (p *Parser) atSoft(word string) bool { return p.peek().IsSoft(word) }

// mark/reset — откат для спекулятивного разбора
func (p *Parser) mark() int { return p.pos }

func (p *Parser) reset(m int) { p.pos = m }

func (p *Parser) node(n ast.Node) ast.NodeID {
	return p.tree.New(n)
}

// spanFrom покрывает токены от start до последнего съеденного.
func (p *Parser) spanFrom(start token.Token) source.Span {
	sp := start.Span
	if p.lastSpan.End >= sp.Start {
		sp.End = p.lastSpan.End
	}
	return sp
}

func (p *Parser) setSpan(id ast.NodeID, start token.Token) ast.NodeID {
	if n := p.tree.Node(id); n != nil {
		n.Span = p.spanFrom(start)
	}
	return id
}

// parseFile — основной цикл верхнего уровня.
func (p *Parser) parseFile() ast.NodeID {
	start := p.peek()
	root := p.node(ast.Node{Kind: ast.KindFile, Span: source.Span{File: p.file.ID}})
	var items []ast.NodeID

	first := true
	if p.at(token.KwPackage) {
		p.tree.Node(root).Leading = commentsOf(p.advance().Leading)
		first = false
		name, _ := p.parseDottedName()
		p.tree.SetText(root, name)
		p.skipSemis()
	}
	for p.at(token.At) && p.peekAt(1).IsSoft("file") && p.peekAt(2).Kind == token.Colon {
		tok := p.peek()
		items = append(items, p.withLeading(p.parseAnnotation(), tok, first))
		first = false
	}
	for p.at(token.KwImport) {
		tok := p.peek()
		items = append(items, p.withLeading(p.parseImport(), tok, first))
		first = false
		p.skipSemis()
	}
	for !p.at(token.EOF) {
		before := p.pos
		tok := p.peek()
		item := p.parseDeclaration(false)
		if item == ast.NoNodeID {
			p.err(diag.SynUnexpectedTopLevel, "unexpected top-level "+p.peek().Kind.String())
			p.resyncTop()
			if p.pos == before {
				p.advance()
			}
			continue
		}
		items = append(items, p.withLeading(item, tok, first))
		first = false
		p.attachTrailing(item)
		p.skipSemis()
	}
	for _, it := range items {
		p.tree.Append(root, it)
	}
	n := p.tree.Node(root)
	n.Span = source.Span{File: p.file.ID, Start: start.Span.Start, End: fileEnd(p.file)}
	if !first {
		_, n.Trailing = splitTrivia(p.peek())
	} else {
		n.Trailing = commentsOf(p.peek().Leading)
	}
	return root
}

// resyncTop — прокручиваем до стартового токена следующей декларации или EOF.
func (p *Parser) resyncTop() {
	for !p.at(token.EOF) {
		if isTopLevelStarter(p.peek()) && p.peek().NewlineBefore() {
			return
		}
		p.advance()
	}
}

func isTopLevelStarter(tok token.Token) bool {
	switch tok.Kind {
	case token.KwFun, token.KwVal, token.KwVar, token.KwClass, token.KwImport, token.At:
		return true
	}
	return tok.Kind == token.Ident && modifierWords[tok.Text]
}

func (p *Parser) parseImport() ast.NodeID {
	start := p.advance() // import
	name, _ := p.parseDottedName()
	if p.at(token.Dot) && p.peekAt(1).Kind == token.Star {
		p.advance()
		p.advance()
		name += ".*"
	}
	imp := p.node(ast.Node{Kind: ast.KindImport, Text: name})
	if p.at(token.KwAs) {
		p.advance()
		if alias, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected alias after 'as'"); ok {
			p.tree.SetAlt(imp, alias.Text)
		}
	}
	p.attachTrailing(imp)
	return p.setSpan(imp, start)
}

// parseDottedName — a.b.c
func (p *Parser) parseDottedName() (string, bool) {
	tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier")
	if !ok {
		return "", false
	}
	name := tok.Text
	for p.at(token.Dot) && p.peekAt(1).Kind == token.Ident {
		p.advance()
		name += "." + p.advance().Text
	}
	return name, true
}

func (p *Parser) skipSemis() {
	for p.at(token.Semicolon) {
		p.advance()
	}
}
