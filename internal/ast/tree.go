package ast

import (
	"fmt"
	"slices"

	"splice/internal/source"
)

// Tree is the arena of all nodes of a workspace.
type Tree struct {
	nodes     *Arena[Node]
	roots     map[source.FileID]NodeID
	origin    map[NodeID]NodeID
	forward   map[NodeID]NodeID
	observers []Observer
	levels    []*journalLevel
	dirty     map[NodeID]struct{}
}

func NewTree(capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 10
	}
	return &Tree{
		nodes:   NewArena[Node](capHint),
		roots:   make(map[source.FileID]NodeID),
		origin:  make(map[NodeID]NodeID),
		forward: make(map[NodeID]NodeID),
		dirty:   make(map[NodeID]struct{}),
	}
}

// Node returns the node for id or nil. The pointer stays valid while the tree lives.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes.Get(uint32(id))
}

func (t *Tree) Len() int { return int(t.nodes.Len()) }

func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (t *Tree) Text(id NodeID) string {
	if n := t.Node(id); n != nil {
		return n.Text
	}
	return ""
}

func (t *Tree) Has(id NodeID, f Flags) bool {
	if n := t.Node(id); n != nil {
		return n.Flags&f != 0
	}
	return false
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// Children returns the children slice of id; it must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

// Child returns slot i of id or NoNodeID.
func (t *Tree) Child(id NodeID, i int) NodeID {
	ch := t.Children(id)
	if i < 0 || i >= len(ch) {
		return NoNodeID
	}
	return ch[i]
}

// IndexInParent returns the position of id in its parent's children or -1.
func (t *Tree) IndexInParent(id NodeID) int {
	p := t.Parent(id)
	if p == NoNodeID {
		return -1
	}
	return slices.Index(t.Children(p), id)
}

// SetRoot registers the File node of a source file.
func (t *Tree) SetRoot(file source.FileID, root NodeID) {
	t.roots[file] = root
}

func (t *Tree) Root(file source.FileID) NodeID { return t.roots[file] }

// Roots returns registered file roots ordered by file id.
func (t *Tree) Roots() []NodeID {
	files := make([]source.FileID, 0, len(t.roots))
	for f := range t.roots {
		files = append(files, f)
	}
	slices.Sort(files)
	out := make([]NodeID, 0, len(files))
	for _, f := range files {
		out = append(out, t.roots[f])
	}
	return out
}

// FileOf returns the File node containing id, or NoNodeID when id is detached.
func (t *Tree) FileOf(id NodeID) NodeID {
	for cur := id; cur != NoNodeID; {
		n := t.Node(cur)
		if n == nil {
			return NoNodeID
		}
		if n.Kind == KindFile {
			if t.roots[n.Span.File] == cur {
				return cur
			}
			return NoNodeID
		}
		p := n.Parent
		if p == NoNodeID || !slices.Contains(t.Children(p), cur) {
			return NoNodeID
		}
		cur = p
	}
	return NoNodeID
}

// IsAttached reports whether id is reachable from a registered file root.
func (t *Tree) IsAttached(id NodeID) bool { return t.FileOf(id) != NoNodeID }

// IsAncestor reports whether anc is id or one of its parents.
func (t *Tree) IsAncestor(anc, id NodeID) bool {
	for cur := id; cur != NoNodeID; cur = t.Parent(cur) {
		if cur == anc {
			return true
		}
	}
	return false
}

// Ancestor returns the closest parent of id (excluding id) with kind k.
func (t *Tree) Ancestor(id NodeID, kinds ...Kind) NodeID {
	for cur := t.Parent(id); cur != NoNodeID; cur = t.Parent(cur) {
		if slices.Contains(kinds, t.Kind(cur)) {
			return cur
		}
	}
	return NoNodeID
}

// Origin returns the node id was copied from, following chains of copies.
func (t *Tree) Origin(id NodeID) NodeID {
	cur := id
	for {
		src, ok := t.origin[cur]
		if !ok {
			return cur
		}
		cur = src
	}
}

// ===== mutation =====

// New allocates a detached node; attached children are moved under it.
func (t *Tree) New(n Node) NodeID {
	for _, ch := range n.Children {
		if ch != NoNodeID && t.Parent(ch) != NoNodeID {
			t.detachFromParent(ch)
		}
	}
	n.Parent = NoNodeID
	id := NodeID(t.nodes.Allocate(n))
	for _, ch := range t.Node(id).Children {
		if ch != NoNodeID {
			t.setParent(ch, id)
		}
	}
	return id
}

func (t *Tree) setParent(id, parent NodeID) {
	t.touch(id)
	t.Node(id).Parent = parent
}

func (t *Tree) detachFromParent(id NodeID) {
	p := t.Parent(id)
	if p == NoNodeID {
		return
	}
	pn := t.Node(p)
	idx := slices.Index(pn.Children, id)
	if idx >= 0 {
		t.touch(p)
		pn = t.Node(p)
		if pn.Kind.IsList() {
			pn.Children = slices.Delete(pn.Children, idx, idx+1)
		} else {
			pn.Children[idx] = NoNodeID
		}
	}
	t.setParent(id, NoNodeID)
}

// SetChild puts child into slot i of parent; the previous occupant is detached.
func (t *Tree) SetChild(parent NodeID, i int, child NodeID) {
	pn := t.Node(parent)
	if pn == nil || i < 0 {
		panic(fmt.Errorf("ast: SetChild on invalid node %d slot %d", parent, i))
	}
	if child != NoNodeID {
		t.detachFromParent(child)
	}
	t.touch(parent)
	pn = t.Node(parent)
	for len(pn.Children) <= i {
		pn.Children = append(pn.Children, NoNodeID)
	}
	if old := pn.Children[i]; old != NoNodeID && old != child {
		t.setParent(old, NoNodeID)
		pn = t.Node(parent)
	}
	pn.Children[i] = child
	if child != NoNodeID {
		t.setParent(child, parent)
	}
}

// Insert puts child at position i of the list parent.
func (t *Tree) Insert(parent NodeID, i int, child NodeID) {
	t.detachFromParent(child)
	t.touch(parent)
	pn := t.Node(parent)
	if i < 0 || i > len(pn.Children) {
		i = len(pn.Children)
	}
	pn.Children = slices.Insert(pn.Children, i, child)
	t.setParent(child, parent)
}

func (t *Tree) Append(parent, child NodeID) {
	t.Insert(parent, -1, child)
}

// InsertBefore inserts child into the list containing anchor, right before it.
func (t *Tree) InsertBefore(anchor, child NodeID) {
	p := t.Parent(anchor)
	t.Insert(p, t.IndexInParent(anchor), child)
}

// InsertAfter inserts child into the list containing anchor, right after it.
func (t *Tree) InsertAfter(anchor, child NodeID) {
	p := t.Parent(anchor)
	t.Insert(p, t.IndexInParent(anchor)+1, child)
}

// Delete detaches id from its parent. List parents shrink, slot parents keep NoNodeID.
func (t *Tree) Delete(id NodeID) {
	t.detachFromParent(id)
}

// Replace puts repl where old is. repl is detached from its current parent first.
// Observers receive NodeReplaced and Pointers to old follow to repl.
func (t *Tree) Replace(old, repl NodeID) NodeID {
	t.swap(old, repl)
	t.setForward(old, repl)
	for _, o := range t.observers {
		o.NodeReplaced(old, repl)
	}
	return repl
}

// Swap is Replace without forwarding; used when old is re-attached below repl.
func (t *Tree) Swap(old, repl NodeID) {
	t.swap(old, repl)
}

func (t *Tree) swap(old, repl NodeID) {
	p := t.Parent(old)
	idx := t.IndexInParent(old)
	if p == NoNodeID || idx < 0 {
		panic(InvariantError{Msg: fmt.Sprintf("replace of detached node %d (%s)", old, t.Kind(old))})
	}
	t.detachFromParent(repl)
	idx = t.IndexInParent(old)
	t.touch(p)
	t.Node(p).Children[idx] = repl
	t.setParent(old, NoNodeID)
	t.setParent(repl, p)
}

func (t *Tree) SetText(id NodeID, text string) {
	t.touch(id)
	t.Node(id).Text = text
}

func (t *Tree) SetAlt(id NodeID, alt string) {
	t.touch(id)
	t.Node(id).Alt = alt
}

func (t *Tree) SetFlags(id NodeID, flags Flags) {
	t.touch(id)
	t.Node(id).Flags = flags
}

func (t *Tree) SetFlag(id NodeID, f Flags, on bool) {
	t.touch(id)
	n := t.Node(id)
	if on {
		n.Flags |= f
	} else {
		n.Flags &^= f
	}
}

func (t *Tree) SetComments(id NodeID, leading, trailing []Comment) {
	t.touch(id)
	n := t.Node(id)
	n.Leading = leading
	n.Trailing = trailing
}

// InvariantError reports a structural assumption that did not hold.
type InvariantError struct {
	Msg string
}

func (e InvariantError) Error() string { return "ast invariant: " + e.Msg }
