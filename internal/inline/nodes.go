package inline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"splice/internal/ast"
	"splice/internal/sema"
)

// wrapIn puts the node built by build(x) where x is. x must be attached to a parent.
func wrapIn(t *ast.Tree, x ast.NodeID, build func(x ast.NodeID) ast.NodeID) ast.NodeID {
	hole := t.New(ast.Node{Kind: ast.KindName})
	t.Swap(x, hole)
	w := build(x)
	t.Swap(hole, w)
	return w
}

// qualifiedExpr builds the Dot chain spelling the dotted path.
func qualifiedExpr(t *ast.Tree, path string) ast.NodeID {
	segs := strings.Split(path, ".")
	cur := t.NewName(segs[0])
	for _, s := range segs[1:] {
		cur = t.NewDot(cur, t.NewName(s), false)
	}
	return cur
}

// selectorOf reports whether x is the selector of a Dot.
func selectorOf(t *ast.Tree, x ast.NodeID) (dot ast.NodeID, ok bool) {
	p := t.Parent(x)
	if t.Kind(p) == ast.KindDot && t.Child(p, 1) == x {
		return p, true
	}
	return ast.NoNodeID, false
}

// calleeSite returns the Call whose callee is x, or x itself.
func calleeSite(t *ast.Tree, x ast.NodeID) ast.NodeID {
	if p := t.Parent(x); t.Kind(p) == ast.KindCall && t.Child(p, ast.CallCallee) == x {
		return p
	}
	return x
}

// decapitalize turns a type name into a variable name.
func decapitalize(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	r, sz := utf8.DecodeRuneInString(s)
	if sz == 0 {
		return ""
	}
	return string(unicode.ToLower(r)) + s[sz:]
}

// typeNode builds a type node for ty. Top-level classes are written fully
// qualified. Unknown type arguments become star projections.
func typeNode(t *ast.Tree, o *sema.Oracle, ty *sema.Type) ast.NodeID {
	if ty == nil {
		return t.New(ast.Node{Kind: ast.KindStar})
	}
	if ty.IsFunction() {
		recv := ast.NoNodeID
		if ty.Receiver != nil {
			recv = typeNode(t, o, ty.Receiver)
		}
		var params []ast.NodeID
		for _, p := range ty.Params() {
			params = append(params, typeNode(t, o, p))
		}
		var f ast.Flags
		if ty.Nullable {
			f = ast.FlagNullable
		}
		return t.New(ast.Node{Kind: ast.KindFunType, Flags: f, Children: []ast.NodeID{
			recv, t.NewList(ast.KindTypeList, params...), typeNode(t, o, ty.Return()),
		}})
	}
	name := ty.Name
	if t.Kind(ty.Decl) == ast.KindClass && !o.IsPrelude(ty.Decl) {
		if qn, ok := o.QualifiedName(ty.Decl); ok {
			name = qn
		}
	}
	args := make([]ast.NodeID, 0, len(ty.Args))
	for _, a := range ty.Args {
		args = append(args, typeNode(t, o, a))
	}
	return t.NewTypeRef(name, ty.Nullable, args...)
}

// mentions reports whether ty refers to one of the type parameters in set.
func mentions(ty *sema.Type, set map[ast.NodeID]string) bool {
	if ty == nil {
		return false
	}
	if _, ok := set[ty.Decl]; ok {
		return true
	}
	for _, a := range ty.Args {
		if mentions(a, set) {
			return true
		}
	}
	return mentions(ty.Receiver, set)
}

// isNullLiteral reports whether e is the `null` literal.
func isNullLiteral(t *ast.Tree, e ast.NodeID) bool {
	e = t.Unparen(e)
	return t.Kind(e) == ast.KindLiteral && t.Text(e) == "null"
}

// expandStringRef replaces a `$name` string entry with `${name}` and
// returns the new Name; other nodes are returned as is.
func expandStringRef(t *ast.Tree, n ast.NodeID) ast.NodeID {
	if t.Kind(n) != ast.KindStringRef {
		return n
	}
	name := t.NewName(t.Text(n))
	t.Replace(n, t.New(ast.Node{Kind: ast.KindStringExpr, Children: []ast.NodeID{name}}))
	return name
}
