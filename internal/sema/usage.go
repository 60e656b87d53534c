package sema

import (
	"context"

	"splice/internal/ast"
	"splice/internal/token"
)

// ExpressionSite returns the node that stands for a call in its parent:
// the enclosing Dot when the call is its selector, otherwise the call itself.
func ExpressionSite(tree *ast.Tree, call ast.NodeID) ast.NodeID {
	if p := tree.Parent(call); tree.Kind(p) == ast.KindDot && tree.Child(p, 1) == call {
		return p
	}
	return call
}

// UsedAsExpression reports whether the value of e is consumed by its context.
func (o *Oracle) UsedAsExpression(e ast.NodeID) bool {
	t := o.tree
	p := t.Parent(e)
	switch t.Kind(p) {
	case ast.KindInvalid:
		return false
	case ast.KindBlock:
		stmts := t.Children(p)
		if len(stmts) == 0 || stmts[len(stmts)-1] != e {
			return false
		}
		switch bp := t.Parent(p); t.Kind(bp) {
		case ast.KindLambda:
			return o.lambdaResultUsed(bp)
		case ast.KindIf:
			return o.UsedAsExpression(bp)
		case ast.KindWhenEntry:
			return o.UsedAsExpression(t.Parent(bp))
		}
		return false
	case ast.KindIf:
		if e == t.Child(p, ast.IfCond) {
			return true
		}
		return o.UsedAsExpression(p)
	case ast.KindWhenEntry:
		if e == t.Child(p, 1) {
			return o.UsedAsExpression(t.Parent(p))
		}
		return true
	case ast.KindParen:
		return o.UsedAsExpression(p)
	case ast.KindDot:
		if e == t.Child(p, 0) {
			return true
		}
		return o.UsedAsExpression(p)
	case ast.KindWhile:
		return e == t.Child(p, 0)
	case ast.KindDoWhile:
		return e == t.Child(p, 1)
	case ast.KindFor:
		return e == t.Child(p, 1)
	case ast.KindFun:
		if e != t.Child(p, ast.FunBody) {
			return true
		}
		ret := t.Child(p, ast.FunRetType)
		return ret == ast.NoNodeID || t.Text(ret) != "Unit"
	case ast.KindGetter, ast.KindProperty, ast.KindAssign:
		return true
	}
	return true
}

// lambdaResultUsed reports whether the value of the lambda's last statement matters.
func (o *Oracle) lambdaResultUsed(lambda ast.NodeID) bool {
	t := o.tree
	ft := o.expectedFunType(lambda)
	if ft == nil {
		return true
	}
	ret := ft.Return()
	if ret == nil {
		return true
	}
	if ret.Name == "Unit" && !ret.Nullable {
		return false
	}
	if ret.IsTypeParam(t) {
		// результат лямбды — результат вызова (run, let, with)
		call := t.Parent(lambda)
		if t.Kind(call) == ast.KindArg {
			call = t.Parent(t.Parent(call))
		}
		return o.UsedAsExpression(ExpressionSite(t, call))
	}
	return true
}

// FindReferences returns the nodes under roots that refer to decl: Names,
// string references, callable references, infix calls, imports,
// annotations and constructor delegations. It checks ctx periodically.
func (o *Oracle) FindReferences(ctx context.Context, decl ast.NodeID, roots []ast.NodeID) ([]ast.NodeID, error) {
	t := o.tree
	name := t.Text(decl)
	if t.Kind(decl) == ast.KindConstructor {
		name = t.Text(t.Ancestor(decl, ast.KindClass))
	}
	qn, hasQN := o.QualifiedName(decl)
	var out []ast.NodeID
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names := map[string]bool{name: true}
		if hasQN {
			for _, item := range t.Children(root) {
				if t.Kind(item) == ast.KindImport && t.Text(item) == qn {
					if alias := t.Node(item).Alt; alias != "" {
						names[alias] = true
					}
				}
			}
		}
		var err error
		visited := 0
		t.Walk(root, func(n ast.NodeID) bool {
			if err != nil {
				return false
			}
			if visited++; visited%256 == 0 {
				if err = ctx.Err(); err != nil {
					return false
				}
			}
			if o.refersTo(n, decl, names, qn) {
				out = append(out, n)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (o *Oracle) refersTo(n, decl ast.NodeID, names map[string]bool, qn string) bool {
	t := o.tree
	node := t.Node(n)
	switch node.Kind {
	case ast.KindName, ast.KindStringRef, ast.KindCallableRef:
		if !names[node.Text] {
			return false
		}
		if t.Kind(decl) == ast.KindConstructor {
			p := t.Parent(n)
			return t.Kind(p) == ast.KindCall && t.Child(p, ast.CallCallee) == n && o.CalleeOf(p) == decl
		}
		return o.Resolve(n) == decl
	case ast.KindBinary:
		return node.Op == token.Ident && names[node.Text] && o.Resolve(n) == decl
	case ast.KindImport:
		if qn == "" || node.Text != qn {
			return false
		}
		for _, d := range o.TopLevel(parentPackage(qn), lastSegment(qn)) {
			if d == decl {
				return true
			}
		}
	case ast.KindDelegation:
		return t.Kind(decl) == ast.KindConstructor && o.CalleeOf(n) == decl
	case ast.KindAnnotation:
		return t.Kind(decl) == ast.KindConstructor && names[lastSegment(node.Text)] && o.CalleeOf(n) == decl
	case ast.KindSuperCall:
		ref := t.Child(n, 0)
		return t.Kind(decl) == ast.KindConstructor && names[lastSegment(t.Text(ref))] && o.CalleeOf(n) == decl
	}
	return false
}

// VisibleNames returns the names of local declarations, parameters, class
// members and same-file top-level declarations in scope at `at`. Block
// locals count even when declared after `at`, since a new declaration
// inserted before `at` would clash with them.
func (o *Oracle) VisibleNames(at ast.NodeID) map[string]bool {
	t := o.tree
	out := make(map[string]bool)
	addParams := func(params ast.NodeID) {
		for _, p := range t.Children(params) {
			out[t.Text(p)] = true
		}
	}
	for cur := t.Parent(at); cur != ast.NoNodeID; cur = t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindBlock:
			for _, s := range t.Children(cur) {
				switch t.Kind(s) {
				case ast.KindProperty, ast.KindFun, ast.KindClass:
					out[t.Text(s)] = true
				}
			}
		case ast.KindLambda:
			if params := t.Child(cur, ast.LambdaParams); params != ast.NoNodeID {
				addParams(params)
			} else {
				out["it"] = true
			}
		case ast.KindFor:
			out[t.Text(t.Child(cur, 0))] = true
		case ast.KindFun:
			addParams(t.Child(cur, ast.FunParams))
		case ast.KindConstructor:
			addParams(t.Child(cur, ast.CtorParams))
		case ast.KindClass:
			addParams(t.Child(cur, ast.ClassParams))
			for _, m := range t.Children(t.Child(cur, ast.ClassBody)) {
				if t.Kind(m) != ast.KindConstructor {
					out[t.Text(m)] = true
				}
			}
		case ast.KindFile:
			for _, item := range t.Children(cur) {
				if t.Kind(item) == ast.KindProperty {
					out[t.Text(item)] = true
				}
			}
		}
	}
	return out
}

// IsStable reports whether e evaluates to the same value without side
// effects every time: literals, `this`, vals, parameters and chains of those.
func (o *Oracle) IsStable(e ast.NodeID) bool {
	t := o.tree
	switch t.Kind(e) {
	case ast.KindLiteral, ast.KindThis:
		return true
	case ast.KindParen:
		return o.IsStable(t.Child(e, 0))
	case ast.KindName:
		d := o.Resolve(e)
		switch t.Kind(d) {
		case ast.KindParam:
			return !t.Has(d, ast.FlagVarParam)
		case ast.KindLambda:
			return true
		case ast.KindProperty:
			return !t.Has(d, ast.FlagVar) && t.Child(d, ast.PropGetter) == ast.NoNodeID
		case ast.KindClass:
			return true
		}
	case ast.KindDot:
		return t.Kind(t.Child(e, 1)) == ast.KindName && o.IsStable(t.Child(e, 0)) && o.IsStable(t.Child(e, 1))
	}
	return false
}
