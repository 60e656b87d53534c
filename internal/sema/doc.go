// Package sema answers semantic questions about Kt trees: what a reference
// resolves to, the static type of an expression, whether a value is consumed,
// where a declaration is referenced and which names are visible at a point.
//
// Resolution walks scopes over the live tree (blocks, lambdas, functions,
// loops, classes, files, imports), so answers stay correct while the inliner
// mutates the tree. Only the package index of top-level declarations is
// cached; call Invalidate after adding or removing top-level declarations.
//
// Every file implicitly imports `kotlin.*`, declared by the embedded prelude.
package sema
