package format

import (
	"bytes"
	"errors"
	"strings"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/parser"
	"splice/internal/source"
)

type Options struct {
	IndentWidth int
	UseTabs     bool
	// Canonical печатает всё дерево заново, не копируя неизменённые узлы.
	Canonical bool
}

func (o Options) withDefaults() Options {
	if o.IndentWidth == 0 {
		o.IndentWidth = 4
	}
	return o
}

type printer struct {
	tree   *ast.Tree
	sf     *source.File
	w      *Writer
	opt    Options
	soiled map[ast.NodeID]bool // поддерево содержит изменённые узлы
}

func newPrinter(tree *ast.Tree, sf *source.File, opt Options) *printer {
	opt = opt.withDefaults()
	return &printer{tree: tree, sf: sf, w: NewWriter(sf, opt), opt: opt}
}

// FormatFile renders the file rooted at root. Nodes that were not modified
// since parsing keep their original text.
func FormatFile(sf *source.File, tree *ast.Tree, root ast.NodeID, opt Options) ([]byte, error) {
	if sf == nil {
		return nil, errors.New("format: nil source file")
	}
	if tree == nil {
		return nil, errors.New("format: nil tree")
	}
	if tree.Kind(root) != ast.KindFile {
		return nil, errors.New("format: root is not a file")
	}
	p := newPrinter(tree, sf, opt)
	p.markSoiled(root)
	p.printFile(root)
	return p.w.Bytes(), nil
}

// Node renders a single subtree canonically.
func Node(tree *ast.Tree, id ast.NodeID) string {
	p := newPrinter(tree, nil, Options{Canonical: true})
	p.printAny(id)
	return p.w.String()
}

// markSoiled заполняет p.soiled снизу вверх.
func (p *printer) markSoiled(id ast.NodeID) bool {
	if p.soiled == nil {
		p.soiled = make(map[ast.NodeID]bool)
	}
	dirty := p.tree.Dirty(id)
	for _, ch := range p.tree.Children(id) {
		if ch != ast.NoNodeID && p.markSoiled(ch) {
			dirty = true
		}
	}
	if dirty {
		p.soiled[id] = true
	}
	return dirty
}

// verbatim — можно ли скопировать узел из исходника как есть.
func (p *printer) verbatim(id ast.NodeID) bool {
	if p.opt.Canonical || p.sf == nil || p.soiled == nil || p.soiled[id] {
		return false
	}
	n := p.tree.Node(id)
	if n == nil || n.Span.File != p.sf.ID || n.Span.End <= n.Span.Start || int(n.Span.End) > len(p.sf.Content) {
		return false
	}
	if n.Kind == ast.KindFile || n.Kind == ast.KindInvalid {
		return false
	}
	// многострочные raw-строки нельзя переиндентировать
	multiline := bytes.IndexByte(p.sf.Content[n.Span.Start:n.Span.End], '\n') >= 0
	if multiline && p.hasRawString(id) {
		return false
	}
	return true
}

func (p *printer) hasRawString(id ast.NodeID) bool {
	found := false
	p.tree.Walk(id, func(n ast.NodeID) bool {
		if p.tree.Kind(n) == ast.KindString && p.tree.Has(n, ast.FlagRaw) {
			found = true
		}
		return !found
	})
	return found
}

func (p *printer) copyNode(id ast.NodeID) {
	p.w.CopyReindent(p.tree.Node(id).Span)
}

func (p *printer) write(s string) { p.w.WriteString(s) }

func (p *printer) printFile(root ast.NodeID) {
	file := p.tree.Node(root)
	p.printLeadingComments(file.Leading)
	wrote := false
	if file.Text != "" {
		p.write("package " + file.Text)
		p.w.Newline()
		wrote = true
	}
	var prev ast.NodeID
	for _, item := range p.tree.Children(root) {
		if wrote {
			if p.blankBetween(prev, item) {
				p.w.BlankLine()
			} else {
				p.w.Newline()
			}
		}
		p.printMember(item)
		prev = item
		wrote = true
	}
	if wrote {
		p.w.Newline()
	}
	if len(file.Trailing) > 0 {
		if wrote {
			p.w.BlankLine()
		}
		p.printLeadingComments(file.Trailing)
	}
}

// blankLineInGap — есть ли пустая строка в исходнике между a и b.
func (p *printer) blankLineInGap(a, b ast.NodeID) (blank, known bool) {
	if p.sf == nil || a == ast.NoNodeID || b == ast.NoNodeID {
		return false, false
	}
	na, nb := p.tree.Node(a), p.tree.Node(b)
	if na.Span.File != p.sf.ID || nb.Span.File != p.sf.ID || na.Span.End == 0 || nb.Span.End == 0 ||
		na.Span.End > nb.Span.Start || int(nb.Span.Start) > len(p.sf.Content) {
		return false, false
	}
	lines := bytes.Split(p.sf.Content[na.Span.End:nb.Span.Start], []byte{'\n'})
	if len(lines) < 3 {
		return false, true
	}
	for _, ln := range lines[1 : len(lines)-1] {
		if len(bytes.TrimSpace(ln)) == 0 {
			return true, true
		}
	}
	return false, true
}

// blankBetween решает, разделять ли соседние члены пустой строкой.
func (p *printer) blankBetween(prev, next ast.NodeID) bool {
	if prev == ast.NoNodeID {
		// после package
		return true
	}
	if blank, known := p.blankLineInGap(prev, next); known && !p.soiled[prev] && !p.soiled[next] {
		return blank
	}
	pk, nk := p.tree.Kind(prev), p.tree.Kind(next)
	switch {
	case pk == ast.KindImport && nk == ast.KindImport:
		return false
	case pk == ast.KindAnnotation && nk == ast.KindAnnotation:
		return false
	case p.tree.Kind(p.tree.Parent(next)) == ast.KindFile:
		return true
	}
	return pk == ast.KindFun || nk == ast.KindFun || pk == ast.KindClass || nk == ast.KindClass
}

func (p *printer) printLeadingComments(cs []ast.Comment) {
	for _, c := range cs {
		p.write(c.Text)
		p.w.Newline()
	}
}

func (p *printer) printTrailingComments(cs []ast.Comment) {
	for _, c := range cs {
		p.w.Space()
		p.write(c.Text)
	}
}

// printMember печатает декларацию или оператор вместе с его комментариями.
func (p *printer) printMember(id ast.NodeID) {
	n := p.tree.Node(id)
	p.printLeadingComments(n.Leading)
	if p.verbatim(id) {
		p.copyNode(id)
	} else {
		p.printAny(id)
	}
	p.printTrailingComments(n.Trailing)
}

// printAny — диспетчер по виду узла.
func (p *printer) printAny(id ast.NodeID) {
	switch k := p.tree.Kind(id); {
	case k == ast.KindFile:
		p.printFile(id)
	case k == ast.KindImport, k == ast.KindAnnotation, k == ast.KindFun, k == ast.KindProperty,
		k == ast.KindClass, k == ast.KindConstructor, k == ast.KindGetter:
		p.printDecl(id)
	case isTypeKind(k):
		p.printType(id)
	default:
		p.printStmt(id)
	}
}

// render печатает fn во временный буфер с нулевым отступом.
func (p *printer) render(fn func(q *printer)) string {
	q := &printer{tree: p.tree, sf: p.sf, w: NewWriter(p.sf, p.opt), opt: p.opt, soiled: p.soiled}
	fn(q)
	return q.w.String()
}

func singleLine(s string) bool { return !strings.Contains(s, "\n") }

// CheckRoundTrip formats the file canonically and re-parses it,
// ensuring that the top-level item kinds remain identical to the original.
func CheckRoundTrip(sf *source.File, opt Options, maxDiag int) (ok bool, msg string) {
	origBag := diag.NewBag(maxDiag)
	origTree := ast.NewTree(0)
	origRoot := parser.ParseFile(origTree, sf, parser.Options{Reporter: diag.BagReporter{Bag: origBag}, MaxErrors: uint(origBag.Cap())})
	if origBag.HasErrors() {
		return false, "fmt-check: initial parse has errors"
	}

	opt.Canonical = true
	formatted, err := FormatFile(sf, origTree, origRoot, opt)
	if err != nil {
		return false, "fmt-check: formatter failed: " + err.Error()
	}

	fs2 := source.NewFileSetWithBase("")
	fid := fs2.AddVirtual(sf.Path, formatted)
	newBag := diag.NewBag(maxDiag)
	newTree := ast.NewTree(0)
	newRoot := parser.ParseFile(newTree, fs2.Get(fid), parser.Options{Reporter: diag.BagReporter{Bag: newBag}, MaxErrors: uint(newBag.Cap())})
	if newBag.HasErrors() {
		return false, "fmt-check: reparse failed"
	}

	if !sameTopItemKinds(origTree, origRoot, newTree, newRoot) {
		return false, "fmt-check: top-level item kinds differ after round-trip"
	}
	return true, "fmt-check: OK"
}

func sameTopItemKinds(t1 *ast.Tree, r1 ast.NodeID, t2 *ast.Tree, r2 ast.NodeID) bool {
	k1, k2 := t1.Children(r1), t2.Children(r2)
	if len(k1) != len(k2) {
		return false
	}
	for i := range k1 {
		if t1.Kind(k1[i]) != t2.Kind(k2[i]) || t1.Text(k1[i]) != t2.Text(k2[i]) {
			return false
		}
	}
	return true
}
