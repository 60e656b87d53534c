package refactor

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

// Options configures a project-wide replacement.
type Options struct {
	// Jobs bounds the search workers; 0 means GOMAXPROCS.
	Jobs int
	// Files names files in events and diagnostics; may be nil.
	Files    *source.FileSet
	Sink     Sink
	Reporter diag.Reporter
	// DeleteDeclaration removes the declaration once every usage was replaced.
	DeleteDeclaration bool
	// Unwrap maps a reference to the usage to process; nil keeps references as they are.
	Unwrap Unwrapper
}

// Unwrapper maps a found reference to the node the strategy should
// rewrite. Returning NoNodeID leaves the reference alone.
type Unwrapper func(t *ast.Tree, ref ast.NodeID) ast.NodeID

func (o Options) sink() Sink {
	if o.Sink == nil {
		return nopSink{}
	}
	return o.Sink
}

func (o Options) reporter() diag.Reporter {
	if o.Reporter == nil {
		return diag.BagReporter{Bag: diag.NewBag(256)}
	}
	return o.Reporter
}

func (o Options) fileName(t *ast.Tree, root ast.NodeID) string {
	if o.Files != nil {
		if f := o.Files.Get(t.Node(root).Span.File); f != nil {
			return f.Path
		}
	}
	return t.Text(root)
}
