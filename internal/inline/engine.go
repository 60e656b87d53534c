package inline

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/sema"
)

// Passes toggles the post-processing passes individually.
type Passes struct {
	RestoreComments        bool
	NamedArguments         bool
	TrailingLambdas        bool
	DropDefaultArguments   bool
	RedundantLambdas       bool
	SimplifySpreads        bool
	RedundantTypeArguments bool
	RedundantUnit          bool
	ShortenReferences      bool
}

// AllPasses enables every pass.
func AllPasses() Passes {
	return Passes{
		RestoreComments:        true,
		NamedArguments:         true,
		TrailingLambdas:        true,
		DropDefaultArguments:   true,
		RedundantLambdas:       true,
		SimplifySpreads:        true,
		RedundantTypeArguments: true,
		RedundantUnit:          true,
		ShortenReferences:      true,
	}
}

// ExpressionMapper rewrites the main expression of a fresh template. It may
// return main itself or a detached replacement.
type ExpressionMapper func(tree *ast.Tree, main ast.NodeID) ast.NodeID

// Options configures an Engine.
type Options struct {
	Passes   Passes
	Mapper   ExpressionMapper
	Reporter diag.Reporter
}

// Engine inlines declarations of one tree. It is not safe for concurrent
// use; callers hold the workspace write lock.
type Engine struct {
	tree   *ast.Tree
	oracle *sema.Oracle
	opts   Options
	tokens JumpToken
}

// NewEngine returns an engine working on the oracle's tree.
func NewEngine(oracle *sema.Oracle, opts Options) *Engine {
	return &Engine{tree: oracle.Tree(), oracle: oracle, opts: opts}
}

func (e *Engine) Tree() *ast.Tree { return e.tree }

func (e *Engine) Oracle() *sema.Oracle { return e.oracle }

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) nextToken() JumpToken {
	e.tokens++
	return e.tokens
}

func (e *Engine) reporter() diag.Reporter {
	if e.opts.Reporter == nil {
		return diag.BagReporter{Bag: diag.NewBag(64)}
	}
	return e.opts.Reporter
}
