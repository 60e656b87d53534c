package inline

import (
	"splice/internal/ast"
	"splice/internal/token"
)

// ShouldKeepValue reports whether expr, substituted usageCount times, must
// be hoisted into a local binding. usageCount 0 means the value is computed
// only for its side effects. Compound expressions recurse with the same count.
func ShouldKeepValue(tree *ast.Tree, expr ast.NodeID, usageCount int) bool {
	if usageCount == 1 {
		return false
	}
	return keepValue(tree, expr, usageCount)
}

func keepValue(t *ast.Tree, e ast.NodeID, count int) bool {
	n := t.Node(e)
	if n == nil {
		return false
	}
	sideEffectOnly := count == 0
	switch n.Kind {
	case ast.KindName, ast.KindLiteral, ast.KindThis, ast.KindSuper, ast.KindClassLit, ast.KindCallableRef:
		return false
	case ast.KindDot:
		return keepValue(t, n.Children[0], count) || keepValue(t, n.Children[1], count)
	case ast.KindPrefix, ast.KindPostfix:
		if n.Op == token.PlusPlus || n.Op == token.MinusMinus {
			return true
		}
		return keepValue(t, n.Children[0], count)
	case ast.KindString:
		for _, entry := range n.Children {
			switch t.Kind(entry) {
			case ast.KindStringRef:
				if !sideEffectOnly {
					return true
				}
			case ast.KindStringExpr:
				if !sideEffectOnly || keepValue(t, t.Child(entry, 0), count) {
					return true
				}
			}
		}
		return false
	case ast.KindIndex:
		if !sideEffectOnly || keepValue(t, n.Children[0], count) {
			return true
		}
		for _, a := range t.Children(n.Children[1]) {
			if keepValue(t, t.Child(a, 0), count) {
				return true
			}
		}
		return false
	case ast.KindBinary:
		if n.Op == token.Ident {
			return true // инфиксный вызов
		}
		return keepValue(t, n.Children[0], count) || keepValue(t, n.Children[1], count)
	case ast.KindIf:
		if !sideEffectOnly {
			return true
		}
		for _, ch := range n.Children {
			if keepValue(t, ch, count) {
				return true
			}
		}
		return false
	case ast.KindBlock:
		for _, ch := range n.Children {
			if keepValue(t, ch, count) {
				return true
			}
		}
		return false
	case ast.KindParen:
		return keepValue(t, n.Children[0], count)
	case ast.KindLambda:
		return !sideEffectOnly
	}
	// присваивания, вызовы, when, is/as, прыжки
	return true
}

// hasSideEffects reports whether evaluating e may have an observable effect.
func hasSideEffects(t *ast.Tree, e ast.NodeID) bool {
	return keepValue(t, e, 0)
}
