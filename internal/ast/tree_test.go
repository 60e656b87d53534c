package ast

import (
	"testing"

	"splice/internal/source"
)

// newFileTree строит `{ a; b }` внутри файла с одной функцией.
func newFileTree(t *testing.T) (tree *Tree, block, a, b NodeID) {
	t.Helper()
	tree = NewTree(0)
	a = tree.NewName("a")
	b = tree.NewName("b")
	block = tree.NewBlock(a, b)
	fun := tree.New(Node{Kind: KindFun, Text: "f", Children: []NodeID{
		tree.NewList(KindAnnotations), NoNodeID, NoNodeID, tree.NewList(KindParams), NoNodeID, block,
	}})
	file := tree.New(Node{Kind: KindFile, Span: source.Span{File: 1}, Children: []NodeID{fun}})
	tree.SetRoot(1, file)
	return tree, block, a, b
}

type recorder struct {
	copied   map[NodeID]NodeID
	replaced [][2]NodeID
}

func (r *recorder) NodeCopied(src, dst NodeID)    { r.copied[src] = dst }
func (r *recorder) NodeReplaced(old, repl NodeID) { r.replaced = append(r.replaced, [2]NodeID{old, repl}) }

func TestInsertDeleteKeepsParentLinks(t *testing.T) {
	tree, block, a, b := newFileTree(t)
	c := tree.NewName("c")
	tree.InsertBefore(b, c)
	if got := tree.Children(block); len(got) != 3 || got[1] != c {
		t.Fatalf("unexpected children %v", got)
	}
	if tree.Parent(c) != block || !tree.IsAttached(c) {
		t.Fatalf("c must be attached under block")
	}
	tree.Delete(a)
	if tree.IsAttached(a) || tree.Parent(a) != NoNodeID {
		t.Fatalf("a must be detached")
	}
	if got := tree.Children(block); len(got) != 2 || got[0] != c {
		t.Fatalf("unexpected children after delete %v", got)
	}
}

func TestReplaceForwardsPointerAndNotifies(t *testing.T) {
	tree, _, a, _ := newFileTree(t)
	rec := &recorder{copied: map[NodeID]NodeID{}}
	tree.AddObserver(rec)
	ptr := tree.Pointer(a)
	x := tree.NewName("x")
	tree.Replace(a, x)
	if got := ptr.Get(); got != x {
		t.Fatalf("pointer must follow replacement, got %d want %d", got, x)
	}
	if len(rec.replaced) != 1 || rec.replaced[0] != [2]NodeID{a, x} {
		t.Fatalf("unexpected notifications %v", rec.replaced)
	}
	y := tree.NewName("y")
	tree.Replace(x, y)
	if got := ptr.Get(); got != y {
		t.Fatalf("pointer must follow chained replacement, got %d", got)
	}
}

func TestCopyRecordsOriginAndObservers(t *testing.T) {
	tree, block, a, _ := newFileTree(t)
	rec := &recorder{copied: map[NodeID]NodeID{}}
	tree.AddObserver(rec)
	dup := tree.Copy(block)
	if tree.IsAttached(dup) {
		t.Fatalf("copy must be detached")
	}
	if !tree.Equal(dup, block) {
		t.Fatalf("copy must be structurally equal")
	}
	ca := rec.copied[a]
	if ca == NoNodeID || tree.Origin(ca) != a || tree.Parent(ca) != dup {
		t.Fatalf("copy of a not tracked: %d", ca)
	}
	second := tree.Copy(dup)
	if tree.Origin(tree.Child(second, 0)) != a {
		t.Fatalf("origin must follow copy chains")
	}
}

func TestRollbackRestoresStructure(t *testing.T) {
	tree, block, a, b := newFileTree(t)
	outer := tree.Checkpoint()
	tree.Delete(a)
	inner := tree.Checkpoint()
	x := tree.NewName("x")
	tree.Replace(b, x)
	tree.SetText(x, "y")
	tree.Rollback(inner)
	if got := tree.Children(block); len(got) != 1 || got[0] != b {
		t.Fatalf("inner rollback must restore b, got %v", got)
	}
	if tree.IsAttached(x) {
		t.Fatalf("x must be detached after rollback")
	}
	tree.Rollback(outer)
	if got := tree.Children(block); len(got) != 2 || got[0] != a || tree.Parent(a) != block {
		t.Fatalf("outer rollback must restore a, got %v", got)
	}
}

func TestCommitMergesIntoParentAndSnapshotUndo(t *testing.T) {
	tree, block, a, _ := newFileTree(t)
	outer := tree.Checkpoint()
	inner := tree.Checkpoint()
	tree.SetText(a, "renamed")
	tree.Commit(inner)
	snap := tree.CommitSnapshot(outer)
	if tree.InTransaction() {
		t.Fatalf("no checkpoint must stay open")
	}
	if tree.Text(a) != "renamed" {
		t.Fatalf("commit must keep changes")
	}
	tree.Restore(snap)
	if tree.Text(a) != "a" || tree.Child(block, 0) != a {
		t.Fatalf("snapshot restore must undo the committed change, got %q", tree.Text(a))
	}
}

func TestCheckpointsAreLIFO(t *testing.T) {
	tree, _, _, _ := newFileTree(t)
	outer := tree.Checkpoint()
	tree.Checkpoint()
	defer func() {
		if recover() == nil {
			t.Fatalf("closing the outer checkpoint first must panic")
		}
	}()
	tree.Commit(outer)
}

func TestSetChildDetachesPreviousOccupant(t *testing.T) {
	tree := NewTree(0)
	cond := tree.NewName("c")
	then := tree.NewName("t")
	ifNode := tree.NewIf(cond, then, NoNodeID)
	other := tree.NewName("e")
	tree.SetChild(ifNode, IfElse, other)
	if tree.Child(ifNode, IfElse) != other || tree.Parent(other) != ifNode {
		t.Fatalf("else slot not set")
	}
	repl := tree.NewName("t2")
	tree.SetChild(ifNode, IfThen, repl)
	if tree.Parent(then) != NoNodeID {
		t.Fatalf("old then must be detached")
	}
	tree.Delete(other)
	if tree.Child(ifNode, IfElse) != NoNodeID || len(tree.Children(ifNode)) != 3 {
		t.Fatalf("slot parents must keep their arity")
	}
}
