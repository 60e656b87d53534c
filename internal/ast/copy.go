package ast

import "slices"

// Copy deep-copies the subtree rooted at id. The copy is detached.
func (t *Tree) Copy(id NodeID) NodeID {
	if id == NoNodeID {
		return NoNodeID
	}
	pairs := make([][2]NodeID, 0, 8)
	dst := t.copyRec(id, &pairs)
	for _, p := range pairs {
		for _, o := range t.observers {
			o.NodeCopied(p[0], p[1])
		}
	}
	return dst
}

func (t *Tree) copyRec(id NodeID, pairs *[][2]NodeID) NodeID {
	src := cloneNode(*t.Node(id))
	children := src.Children
	src.Children = make([]NodeID, len(children))
	for i, ch := range children {
		if ch != NoNodeID {
			src.Children[i] = t.copyRec(ch, pairs)
		}
	}
	dst := t.New(src)
	t.origin[dst] = id
	*pairs = append(*pairs, [2]NodeID{id, dst})
	return dst
}

// CopyChildren copies every child of a list node.
func (t *Tree) CopyChildren(id NodeID) []NodeID {
	out := make([]NodeID, 0, len(t.Children(id)))
	for _, ch := range slices.Clone(t.Children(id)) {
		out = append(out, t.Copy(ch))
	}
	return out
}
