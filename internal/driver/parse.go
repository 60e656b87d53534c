// Package driver runs the single-file pipelines behind `splice parse`
// and `splice fmt`: they need no project, only a file set and a tree.
package driver

import (
	"fortio.org/safecast"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/parser"
	"splice/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tree    *ast.Tree
	Root    ast.NodeID
	Bag     *diag.Bag
}

func Parse(filePath string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(filePath)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	maxErrors, err := safecast.Conv[uint](bag.Cap())
	if err != nil {
		return nil, err
	}

	tree := ast.NewTree(0)
	root := parser.ParseFile(tree, file, parser.Options{
		Reporter:  diag.BagReporter{Bag: bag},
		MaxErrors: maxErrors,
	})

	return &ParseResult{
		FileSet: fs,
		File:    file,
		Tree:    tree,
		Root:    root,
		Bag:     bag,
	}, nil
}
