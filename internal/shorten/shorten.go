// Package shorten replaces fully qualified references with simple names,
// adding imports where a simple name would not resolve otherwise.
package shorten

import (
	"slices"
	"strings"

	"splice/internal/ast"
	"splice/internal/sema"
)

// Request asks to shorten references under Nodes and to import every name
// of Imports into File. File may be left zero when Nodes is not empty.
type Request struct {
	File    ast.NodeID
	Nodes   []ast.NodeID
	Imports []string
}

// Stats counts what Shorten changed.
type Stats struct {
	Shortened int
	Imported  int
}

type candidate struct {
	node ast.NodeID
	decl ast.NodeID
	qn   string
}

// Shorten processes requests grouped by file. A reference is shortened only
// when the simple name resolves to the same declaration afterwards; otherwise
// it is imported, unless the simple name is ambiguous among the batch
// candidates of the file or collides with an existing import.
func Shorten(o *sema.Oracle, reqs []Request) Stats {
	t := o.Tree()
	type group struct {
		nodes   []ast.NodeID
		imports []string
	}
	groups := make(map[ast.NodeID]*group)
	var files []ast.NodeID
	get := func(f ast.NodeID) *group {
		g := groups[f]
		if g == nil {
			g = &group{}
			groups[f] = g
			files = append(files, f)
		}
		return g
	}
	for _, r := range reqs {
		if f := r.File; f != ast.NoNodeID {
			g := get(f)
			for _, imp := range r.Imports {
				if !slices.Contains(g.imports, imp) {
					g.imports = append(g.imports, imp)
				}
			}
		}
		for _, n := range r.Nodes {
			if f := o.FileOf(n); f != ast.NoNodeID {
				g := get(f)
				g.nodes = append(g.nodes, n)
			}
		}
	}
	var st Stats
	for _, f := range files {
		g := groups[f]
		for _, imp := range g.imports {
			if addImport(o, f, imp) {
				st.Imported++
			}
		}
		s := &shortener{o: o, t: t, file: f, stats: &st}
		s.run(g.nodes)
	}
	return st
}

type shortener struct {
	o     *sema.Oracle
	t     *ast.Tree
	file  ast.NodeID
	stats *Stats
}

func (s *shortener) run(roots []ast.NodeID) {
	var cands []candidate
	for _, r := range roots {
		cands = append(cands, s.collect(r)...)
	}
	quals := make(map[string][]string)
	for _, c := range cands {
		name := lastSegment(c.qn)
		if !slices.Contains(quals[name], c.qn) {
			quals[name] = append(quals[name], c.qn)
		}
	}
	for _, c := range cands {
		if !s.t.IsAttached(c.node) {
			continue
		}
		name := lastSegment(c.qn)
		if s.try(c) {
			s.stats.Shortened++
			continue
		}
		if len(quals[name]) > 1 || !importable(s.o, s.file, c.qn) {
			continue
		}
		cp := s.t.Checkpoint()
		addImport(s.o, s.file, c.qn)
		if s.try(c) {
			s.t.Commit(cp)
			s.stats.Shortened++
			s.stats.Imported++
			continue
		}
		s.t.Rollback(cp)
	}
}

// collect returns the qualified references under root, outermost first.
func (s *shortener) collect(root ast.NodeID) []candidate {
	t, o := s.t, s.o
	var out []candidate
	t.Walk(root, func(id ast.NodeID) bool {
		switch t.Kind(id) {
		case ast.KindDot:
			if t.Has(id, ast.FlagSafe) {
				return true
			}
			pkg, ok := t.QualifiedName(t.Child(id, 0))
			if !ok || !o.IsPackage(pkg) {
				return true
			}
			d := o.Resolve(id)
			if qn, ok := o.QualifiedName(d); ok && qn == pkg+"."+selectorName(t, t.Child(id, 1)) {
				out = append(out, candidate{node: id, decl: d, qn: qn})
				return false
			}
		case ast.KindTypeRef, ast.KindAnnotation:
			if !strings.Contains(t.Text(id), ".") {
				return true
			}
			d := o.Resolve(id)
			if qn, ok := o.QualifiedName(d); ok && qn == t.Text(id) {
				out = append(out, candidate{node: id, decl: d, qn: qn})
			}
		}
		return true
	})
	return out
}

func selectorName(t *ast.Tree, sel ast.NodeID) string {
	if t.Kind(sel) == ast.KindCall {
		return t.CalleeName(sel)
	}
	return t.Text(sel)
}

// try shortens c in place and keeps the change when the short form
// resolves to the same declaration.
func (s *shortener) try(c candidate) bool {
	t := s.t
	cp := t.Checkpoint()
	short := c.node
	switch t.Kind(c.node) {
	case ast.KindDot:
		short = t.Child(c.node, 1)
		t.Replace(c.node, short)
	default:
		t.SetText(c.node, lastSegment(c.qn))
	}
	if s.o.Resolve(short) == c.decl {
		t.Commit(cp)
		return true
	}
	t.Rollback(cp)
	return false
}

// importable reports whether qn may be imported into file without
// shadowing anything the file already sees under the same simple name.
func importable(o *sema.Oracle, file ast.NodeID, qn string) bool {
	t := o.Tree()
	pkg, name := parentPackage(qn), lastSegment(qn)
	if pkg == "" || pkg == t.Text(file) || slices.Contains(sema.DefaultImports, pkg) {
		return false
	}
	for _, item := range t.Children(file) {
		if t.Kind(item) != ast.KindImport {
			continue
		}
		path := t.Text(item)
		if path == qn && t.Node(item).Alt == "" {
			return false
		}
		alias := t.Node(item).Alt
		if alias == name || alias == "" && lastSegment(path) == name {
			return false
		}
	}
	return len(o.TopLevel(t.Text(file), name)) == 0
}

// addImport inserts `import qn` after the last import of file. It does
// nothing when qn is already visible through an import.
func addImport(o *sema.Oracle, file ast.NodeID, qn string) bool {
	t := o.Tree()
	pkg := parentPackage(qn)
	if pkg == "" || pkg == t.Text(file) || slices.Contains(sema.DefaultImports, pkg) {
		return false
	}
	at := 0
	for i, item := range t.Children(file) {
		switch t.Kind(item) {
		case ast.KindImport:
			if p := t.Text(item); p == qn && t.Node(item).Alt == "" || p == pkg+".*" {
				return false
			}
			at = i + 1
		case ast.KindAnnotation:
			if at == i {
				at = i + 1
			}
		}
	}
	if !importable(o, file, qn) {
		return false
	}
	t.Insert(file, at, t.New(ast.Node{Kind: ast.KindImport, Text: qn}))
	return true
}

func parentPackage(qn string) string {
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[:i]
	}
	return ""
}

func lastSegment(qn string) string {
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[i+1:]
	}
	return qn
}
