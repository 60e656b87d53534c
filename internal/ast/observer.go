package ast

import "slices"

// Observer is notified about structural changes. Side tables keyed by NodeID
// register themselves to follow copies and replacements.
type Observer interface {
	NodeCopied(src, dst NodeID)
	NodeReplaced(old, repl NodeID)
}

func (t *Tree) AddObserver(o Observer) {
	t.observers = append(t.observers, o)
}

func (t *Tree) RemoveObserver(o Observer) {
	t.observers = slices.DeleteFunc(t.observers, func(x Observer) bool { return x == o })
}

// Pointer tracks a node across Replace: when the node it points to is
// detached, Get follows the replacement chain.
type Pointer struct {
	tree *Tree
	id   NodeID
}

func (t *Tree) Pointer(id NodeID) *Pointer {
	return &Pointer{tree: t, id: id}
}

// Get returns the current identity or NoNodeID when the node is gone.
func (p *Pointer) Get() NodeID {
	if p == nil || p.id == NoNodeID {
		return NoNodeID
	}
	cur := p.id
	seen := 0
	for !p.tree.IsAttached(cur) {
		next, ok := p.tree.forward[cur]
		if !ok || seen > p.tree.Len() {
			return NoNodeID
		}
		cur = next
		seen++
	}
	p.id = cur
	return cur
}
