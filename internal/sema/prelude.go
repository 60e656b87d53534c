package sema

import (
	_ "embed"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/parser"
	"splice/internal/source"
)

//go:embed prelude.kt
var preludeSource []byte

// PreludePath is the virtual path of the built-in declarations.
const PreludePath = "<prelude>/kotlin.kt"

// DefaultImports are star-imported into every file.
var DefaultImports = []string{"kotlin"}

// LoadPrelude parses the built-in declarations into tree and returns the file root.
func LoadPrelude(fs *source.FileSet, tree *ast.Tree) (ast.NodeID, error) {
	if f, ok := fs.GetByPath(PreludePath); ok && f.Flags&source.FilePrelude != 0 {
		if root := tree.Root(f.ID); root != ast.NoNodeID {
			return root, nil
		}
	}
	id := fs.Add(PreludePath, preludeSource, source.FilePrelude|source.FileVirtual)
	bag := diag.NewBag(8)
	root := parser.ParseFile(tree, fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		return ast.NoNodeID, &PreludeError{Diagnostics: bag.Items()}
	}
	return root, nil
}

// PreludeError reports a broken embedded prelude.
type PreludeError struct {
	Diagnostics []diag.Diagnostic
}

func (e *PreludeError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "prelude: parse failed"
	}
	return "prelude: " + e.Diagnostics[0].Message
}
