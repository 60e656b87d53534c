package sema

import (
	"strings"
	"sync"
	"sync/atomic"

	"splice/internal/ast"
)

// Oracle answers semantic queries over a shared tree. Queries only read the
// tree and may run concurrently as long as nobody mutates it.
type Oracle struct {
	tree    *ast.Tree
	prelude ast.NodeID

	mu    sync.Mutex
	index *packageIndex

	// nested type queries in flight; bounds inference through self-referencing code
	depth atomic.Int32
}

const maxQueryDepth = 1024

type packageIndex struct {
	decls    map[string]map[string][]ast.NodeID // package -> name -> top-level declarations
	packages map[string]bool                    // packages and their prefixes
}

// New creates an oracle over tree. prelude is the root returned by LoadPrelude.
func New(tree *ast.Tree, prelude ast.NodeID) *Oracle {
	return &Oracle{tree: tree, prelude: prelude}
}

func (o *Oracle) Tree() *ast.Tree { return o.tree }

// Invalidate drops the cached package index.
func (o *Oracle) Invalidate() {
	o.mu.Lock()
	o.index = nil
	o.mu.Unlock()
}

func (o *Oracle) idx() *packageIndex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.index != nil {
		return o.index
	}
	ix := &packageIndex{
		decls:    make(map[string]map[string][]ast.NodeID),
		packages: make(map[string]bool),
	}
	for _, root := range o.tree.Roots() {
		pkg := o.tree.Text(root)
		for prefix := pkg; prefix != ""; prefix = parentPackage(prefix) {
			ix.packages[prefix] = true
		}
		byName := ix.decls[pkg]
		if byName == nil {
			byName = make(map[string][]ast.NodeID)
			ix.decls[pkg] = byName
		}
		for _, item := range o.tree.Children(root) {
			switch o.tree.Kind(item) {
			case ast.KindFun, ast.KindProperty, ast.KindClass:
				name := o.tree.Text(item)
				byName[name] = append(byName[name], item)
			}
		}
	}
	o.index = ix
	return ix
}

func parentPackage(pkg string) string {
	if i := strings.LastIndexByte(pkg, '.'); i >= 0 {
		return pkg[:i]
	}
	return ""
}

// IsPackage reports whether name is a package (or a prefix of one).
func (o *Oracle) IsPackage(name string) bool {
	return name != "" && o.idx().packages[name]
}

// TopLevel returns the top-level declarations called name in pkg.
func (o *Oracle) TopLevel(pkg, name string) []ast.NodeID {
	return o.idx().decls[pkg][name]
}

// FileOf returns the file root containing id.
func (o *Oracle) FileOf(id ast.NodeID) ast.NodeID {
	return o.tree.FileOf(id)
}

// PackageOf returns the package of the file containing id.
func (o *Oracle) PackageOf(id ast.NodeID) string {
	return o.tree.Text(o.tree.FileOf(id))
}

// IsPrelude reports whether decl comes from the built-in declarations.
func (o *Oracle) IsPrelude(decl ast.NodeID) bool {
	return o.prelude != ast.NoNodeID && o.tree.FileOf(decl) == o.prelude
}

// IsTopLevel reports whether decl is declared directly in a file.
func (o *Oracle) IsTopLevel(decl ast.NodeID) bool {
	return o.tree.Kind(o.tree.Parent(decl)) == ast.KindFile
}

// IsExtension reports whether decl is an extension function or property.
func (o *Oracle) IsExtension(decl ast.NodeID) bool {
	switch o.tree.Kind(decl) {
	case ast.KindFun:
		return o.tree.Child(decl, ast.FunReceiver) != ast.NoNodeID
	case ast.KindProperty:
		return o.tree.Child(decl, ast.PropReceiver) != ast.NoNodeID
	}
	return false
}

// QualifiedName returns `pkg.name` for top-level declarations.
func (o *Oracle) QualifiedName(decl ast.NodeID) (string, bool) {
	if !o.IsTopLevel(decl) {
		return "", false
	}
	name := o.tree.Text(decl)
	if pkg := o.PackageOf(decl); pkg != "" {
		return pkg + "." + name, true
	}
	return name, true
}

// EnclosingDeclaration returns the innermost Fun, Property, Constructor or Class containing id.
func (o *Oracle) EnclosingDeclaration(id ast.NodeID) ast.NodeID {
	return o.tree.Ancestor(id, ast.KindFun, ast.KindProperty, ast.KindConstructor, ast.KindClass)
}
