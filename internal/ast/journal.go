package ast

import "slices"

// journalLevel keeps the state of every node touched since its checkpoint.
type journalLevel struct {
	size    uint32
	nodes   map[NodeID]Node
	forward map[NodeID]forwardEntry
	soiled  []NodeID // стали dirty на этом уровне
}

type forwardEntry struct {
	to NodeID
	ok bool
}

// Checkpoint marks a point the tree can be rolled back to.
type Checkpoint struct {
	depth int
}

// Snapshot is a detached checkpoint kept for undo.
type Snapshot struct {
	level *journalLevel
}

func (t *Tree) Checkpoint() Checkpoint {
	t.levels = append(t.levels, &journalLevel{
		size:    t.nodes.Len(),
		nodes:   make(map[NodeID]Node),
		forward: make(map[NodeID]forwardEntry),
	})
	return Checkpoint{depth: len(t.levels)}
}

func cloneNode(n Node) Node {
	n.Children = slices.Clone(n.Children)
	n.Leading = slices.Clone(n.Leading)
	n.Trailing = slices.Clone(n.Trailing)
	return n
}

func (t *Tree) touch(id NodeID) {
	_, wasDirty := t.dirty[id]
	if !wasDirty {
		t.dirty[id] = struct{}{}
	}
	if len(t.levels) == 0 {
		return
	}
	lvl := t.levels[len(t.levels)-1]
	if !wasDirty {
		lvl.soiled = append(lvl.soiled, id)
	}
	if uint32(id) > lvl.size {
		return // создан после checkpoint
	}
	if _, ok := lvl.nodes[id]; ok {
		return
	}
	lvl.nodes[id] = cloneNode(*t.Node(id))
}

func (t *Tree) setForward(old, repl NodeID) {
	if len(t.levels) > 0 {
		lvl := t.levels[len(t.levels)-1]
		if _, ok := lvl.forward[old]; !ok {
			prev, had := t.forward[old]
			lvl.forward[old] = forwardEntry{to: prev, ok: had}
		}
	}
	t.forward[old] = repl
}

func (t *Tree) mustTop(cp Checkpoint) *journalLevel {
	if cp.depth != len(t.levels) || cp.depth == 0 {
		panic(InvariantError{Msg: "checkpoints must be closed in LIFO order"})
	}
	return t.levels[cp.depth-1]
}

// Rollback restores every node touched since cp and closes cp.
// Nodes allocated after cp stay in the arena but are detached.
func (t *Tree) Rollback(cp Checkpoint) {
	lvl := t.mustTop(cp)
	t.levels = t.levels[:cp.depth-1]
	t.restore(lvl)
}

func (t *Tree) restore(lvl *journalLevel) {
	for id, saved := range lvl.nodes {
		*t.Node(id) = saved
	}
	for _, id := range lvl.soiled {
		delete(t.dirty, id)
	}
	for old, e := range lvl.forward {
		if e.ok {
			t.forward[old] = e.to
		} else {
			delete(t.forward, old)
		}
	}
	// узлы, созданные после checkpoint, могли сослаться на восстановленных родителей
	for id := NodeID(lvl.size + 1); uint32(id) <= t.nodes.Len(); id++ {
		n := t.Node(id)
		if n.Parent != NoNodeID && uint32(n.Parent) <= lvl.size && !slices.Contains(t.Children(n.Parent), id) {
			n.Parent = NoNodeID
		}
	}
}

// Commit closes cp keeping its changes; they become part of the enclosing checkpoint.
func (t *Tree) Commit(cp Checkpoint) {
	lvl := t.mustTop(cp)
	t.levels = t.levels[:cp.depth-1]
	t.mergeIntoParent(lvl)
}

func (t *Tree) mergeIntoParent(lvl *journalLevel) {
	if len(t.levels) == 0 {
		return
	}
	parent := t.levels[len(t.levels)-1]
	parent.soiled = append(parent.soiled, lvl.soiled...)
	for id, saved := range lvl.nodes {
		if uint32(id) > parent.size {
			continue
		}
		if _, ok := parent.nodes[id]; !ok {
			parent.nodes[id] = saved
		}
	}
	for old, e := range lvl.forward {
		if _, ok := parent.forward[old]; !ok {
			parent.forward[old] = e
		}
	}
}

// CommitSnapshot closes cp like Commit and returns a Snapshot that can undo it
// as long as snapshots are restored in reverse order.
func (t *Tree) CommitSnapshot(cp Checkpoint) *Snapshot {
	lvl := t.mustTop(cp)
	t.levels = t.levels[:cp.depth-1]
	t.mergeIntoParent(lvl)
	return &Snapshot{level: lvl}
}

// Restore rolls the tree back to a snapshot.
func (t *Tree) Restore(s *Snapshot) {
	if s == nil || s.level == nil {
		return
	}
	t.restore(s.level)
	s.level = nil
}

// InTransaction reports whether a checkpoint is open.
func (t *Tree) InTransaction() bool { return len(t.levels) > 0 }

// Dirty reports whether id was modified since it was last marked clean.
func (t *Tree) Dirty(id NodeID) bool {
	_, ok := t.dirty[id]
	return ok
}

// SubtreeDirty reports whether any node under id (inclusive) is dirty.
func (t *Tree) SubtreeDirty(id NodeID) bool {
	found := false
	t.Walk(id, func(n NodeID) bool {
		if t.Dirty(n) {
			found = true
		}
		return !found
	})
	return found
}

// MarkClean forgets modifications of the subtree under id.
func (t *Tree) MarkClean(id NodeID) {
	t.Walk(id, func(n NodeID) bool {
		delete(t.dirty, n)
		return true
	})
}
