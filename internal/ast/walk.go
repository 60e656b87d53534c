package ast

import "slices"

// Walk visits id and its descendants in pre-order. Returning false from fn skips the children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if id == NoNodeID {
		return
	}
	if !fn(id) {
		return
	}
	for _, ch := range slices.Clone(t.Children(id)) {
		t.Walk(ch, fn)
	}
}

// Collect returns all descendants of id (including id) satisfying pred, in pre-order.
func (t *Tree) Collect(id NodeID, pred func(NodeID) bool) []NodeID {
	var out []NodeID
	t.Walk(id, func(n NodeID) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// StatementOf returns the ancestor-or-self of id whose parent is a Block, and that block.
func (t *Tree) StatementOf(id NodeID) (stmt, block NodeID) {
	for cur := id; cur != NoNodeID; cur = t.Parent(cur) {
		p := t.Parent(cur)
		if p != NoNodeID && t.Kind(p) == KindBlock {
			return cur, p
		}
	}
	return NoNodeID, NoNodeID
}

// Unparen strips parentheses.
func (t *Tree) Unparen(id NodeID) NodeID {
	for t.Kind(id) == KindParen {
		id = t.Child(id, 0)
	}
	return id
}

// CalleeName returns the simple name of a call callee (`f` in `f()` or `a.f()` selector).
func (t *Tree) CalleeName(call NodeID) string {
	callee := t.Child(call, CallCallee)
	if t.Kind(callee) == KindName {
		return t.Text(callee)
	}
	return ""
}

// QualifiedName renders a chain of Names and Dots as `a.b.c`; ok is false for other shapes.
func (t *Tree) QualifiedName(id NodeID) (string, bool) {
	switch t.Kind(id) {
	case KindName:
		return t.Text(id), true
	case KindDot:
		if t.Has(id, FlagSafe) {
			return "", false
		}
		l, ok := t.QualifiedName(t.Child(id, 0))
		if !ok {
			return "", false
		}
		r, ok := t.QualifiedName(t.Child(id, 1))
		if !ok {
			return "", false
		}
		return l + "." + r, true
	}
	return "", false
}
