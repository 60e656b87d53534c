package format

import (
	"splice/internal/ast"
	"splice/internal/token"
)

// Приоритеты совпадают с парсером; чем больше, тем сильнее связывание.
const (
	precControl = iota // if, when, return, throw, break, continue
	precOr
	precAnd
	precEquality
	precCompare
	precNamedCheck
	precElvis
	precInfix
	precRange
	precAdditive
	precMultiplicative
	precAs
	precPrefix
	precPostfix
	precPrimary
)

func binaryPrec(op token.Kind) int {
	switch op {
	case token.OrOr:
		return precOr
	case token.AndAnd:
		return precAnd
	case token.EqEq, token.BangEq, token.EqEqEq, token.BangEqEq:
		return precEquality
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return precCompare
	case token.KwIn, token.KwIs:
		return precNamedCheck
	case token.Elvis:
		return precElvis
	case token.Ident:
		return precInfix
	case token.DotDot:
		return precRange
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	}
	return precInfix
}

// Prec returns the binding strength of an expression node.
func Prec(tree *ast.Tree, id ast.NodeID) int {
	n := tree.Node(id)
	if n == nil {
		return precPrimary
	}
	switch n.Kind {
	case ast.KindBinary:
		return binaryPrec(n.Op)
	case ast.KindIs:
		return precNamedCheck
	case ast.KindAs:
		return precAs
	case ast.KindPrefix:
		return precPrefix
	case ast.KindPostfix, ast.KindCall, ast.KindDot, ast.KindIndex, ast.KindClassLit, ast.KindCallableRef:
		return precPostfix
	case ast.KindIf, ast.KindWhen, ast.KindReturn, ast.KindThrow, ast.KindBreak, ast.KindContinue,
		ast.KindAssign:
		return precControl
	}
	return precPrimary
}

// NeedsParens reports whether child must be parenthesized when printed
// at position slot of parent.
func NeedsParens(tree *ast.Tree, parent ast.NodeID, slot int, child ast.NodeID) bool {
	pn := tree.Node(parent)
	if pn == nil || tree.Kind(child) == ast.KindParen {
		return false
	}
	cp := Prec(tree, child)
	switch pn.Kind {
	case ast.KindBinary:
		own := binaryPrec(pn.Op)
		if slot == 0 {
			return cp < own
		}
		if pn.Op == token.Elvis && isJump(tree.Kind(child)) {
			return false // a ?: return
		}
		return cp <= own
	case ast.KindIs, ast.KindAs:
		return slot == 0 && cp < Prec(tree, parent)
	case ast.KindPrefix:
		if tree.Kind(child) == ast.KindPrefix && samePrefixSign(pn.Op, tree.Node(child).Op) {
			return true // - -a
		}
		return cp < precPrefix
	case ast.KindPostfix, ast.KindIndex, ast.KindClassLit, ast.KindCallableRef:
		return slot == 0 && cp < precPostfix
	case ast.KindDot:
		return slot == 0 && cp < precPostfix
	case ast.KindCall:
		return slot == ast.CallCallee && cp < precPostfix
	}
	return false
}

func isJump(k ast.Kind) bool {
	return k == ast.KindReturn || k == ast.KindThrow || k == ast.KindBreak || k == ast.KindContinue
}

func samePrefixSign(a, b token.Kind) bool {
	plus := func(k token.Kind) bool { return k == token.Plus || k == token.PlusPlus }
	minus := func(k token.Kind) bool { return k == token.Minus || k == token.MinusMinus }
	return plus(a) && plus(b) || minus(a) && minus(b)
}
