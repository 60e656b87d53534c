// Package ast holds the mutable syntax tree of a workspace.
//
// All files of a workspace live in one Tree backed by an Arena of Node values
// addressed by 1-based NodeID (NoNodeID is 0). A node keeps its children in a
// single slice: list kinds (File, Block, Args, Params, ...) use it as a list,
// every other kind uses fixed slots documented next to the kind, with
// NoNodeID marking an absent optional slot.
//
// Invariants:
//   - a node has at most one parent and appears exactly once in its parent's
//     Children;
//   - nodes are never freed; detached nodes simply become unreachable from a
//     file root;
//   - every mutation goes through Tree methods so that the journal and the
//     observers see it.
//
// Copy records the copy origin of every produced node and notifies observers
// (NodeCopied), which lets side tables follow structural copies. Replace
// notifies NodeReplaced and records forwarding used by Pointer.
package ast
