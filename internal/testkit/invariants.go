// Package testkit holds structural checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"splice/internal/ast"
	"splice/internal/source"
)

// CheckTreeInvariants walks the file rooted at root and verifies:
// 1) every child points back at its parent
// 2) no node is reachable twice
// 3) clean nodes of sf have spans inside the file content
func CheckTreeInvariants(t *ast.Tree, root ast.NodeID, sf *source.File) error {
	if t == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	if t.Kind(root) != ast.KindFile {
		return fmt.Errorf("node %d is %v, not a file", root, t.Kind(root))
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	seen := make(map[ast.NodeID]bool)
	var walk func(id ast.NodeID) error
	walk = func(id ast.NodeID) error {
		if seen[id] {
			return fmt.Errorf("node %d reachable twice", id)
		}
		seen[id] = true
		n := t.Node(id)
		if n == nil {
			return fmt.Errorf("dangling node id=%d", id)
		}
		if !t.Dirty(id) && n.Span.File == sf.ID {
			if n.Span.End < n.Span.Start {
				return fmt.Errorf("inverted span %v of %v", n.Span, n.Kind)
			}
			if n.Span.End > lenContent {
				return fmt.Errorf("span %v of %v beyond content: %d", n.Span, n.Kind, lenContent)
			}
		}
		for _, c := range n.Children {
			if c == ast.NoNodeID {
				continue
			}
			if p := t.Parent(c); p != id {
				return fmt.Errorf("child %d of %d (%v) has parent %d", c, id, n.Kind, p)
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}
