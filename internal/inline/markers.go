package inline

import (
	"maps"
	"slices"

	"splice/internal/ast"
)

// MarkerKind tags a node of the code being inlined.
type MarkerKind uint8

const (
	MarkReceiver       MarkerKind = iota + 1 // receiver placeholder
	MarkParam                                // parameter placeholder; Name = parameter
	MarkTypeParam                            // type parameter placeholder; Name = type parameter
	MarkTrailingLambda                       // argument was a trailing lambda before binding
	MarkNamedArg                             // argument must be rendered named; Name = parameter
	MarkDefaultValue                         // argument value came from a default; Ref = callee default
	MarkArgParam                             // argument of a call inside the template; Name = parameter, Ref = its default
	MarkNewDeclaration                       // statement introduced by inlining
	MarkJump                                 // non-local jump or its loop; Token
	MarkComments                             // comments detached by the template builder
	MarkSpread                               // arrayOf(...) built for a vararg parameter
	MarkInsertedTypeArgs                     // type arguments made explicit by the template builder
	MarkBinding                              // reference to a binding; Name = binding
	MarkPending                              // usage not processed yet
	MarkCallSiteValue                        // expression copied from the call site
)

var markerNames = [...]string{
	MarkReceiver: "receiver", MarkParam: "param", MarkTypeParam: "type-param",
	MarkTrailingLambda: "trailing-lambda", MarkNamedArg: "named-arg", MarkDefaultValue: "default-value",
	MarkArgParam: "arg-param", MarkNewDeclaration: "new-declaration", MarkJump: "jump",
	MarkComments: "comments", MarkSpread: "spread", MarkInsertedTypeArgs: "inserted-type-args",
	MarkBinding: "binding", MarkPending: "pending", MarkCallSiteValue: "call-site-value",
}

func (k MarkerKind) String() string {
	if int(k) < len(markerNames) && markerNames[k] != "" {
		return markerNames[k]
	}
	return "unknown"
}

// JumpToken correlates a break/continue with the loop it targets.
type JumpToken uint32

// Comments detached from a node.
type Comments struct {
	Leading  []ast.Comment
	Trailing []ast.Comment
}

func (c *Comments) empty() bool {
	return c == nil || len(c.Leading) == 0 && len(c.Trailing) == 0
}

// Marker is one tag on a node.
type Marker struct {
	Kind     MarkerKind
	Name     string
	Ref      ast.NodeID
	Token    JumpToken
	Comments *Comments
}

// Markers is a side table of markers keyed by node. Registered as a tree
// observer it copies markers to the copies of marked nodes.
type Markers struct {
	tree *ast.Tree
	m    map[ast.NodeID][]Marker
	live bool
}

// NewMarkers creates a table following copies made in tree.
func NewMarkers(tree *ast.Tree) *Markers {
	m := &Markers{tree: tree, m: make(map[ast.NodeID][]Marker)}
	tree.AddObserver(m)
	m.live = true
	return m
}

// detached returns a table that does not follow copies.
func detachedMarkers(tree *ast.Tree) *Markers {
	return &Markers{tree: tree, m: make(map[ast.NodeID][]Marker)}
}

// Close stops following copies. Markers already present stay readable.
func (m *Markers) Close() {
	if m.live {
		m.tree.RemoveObserver(m)
		m.live = false
	}
}

// seed copies every entry of other into m.
func (m *Markers) seed(other *Markers) {
	for id, ms := range other.m {
		m.m[id] = slices.Clone(ms)
	}
}

func (m *Markers) NodeCopied(src, dst ast.NodeID) {
	if ms, ok := m.m[src]; ok {
		m.m[dst] = slices.Clone(ms)
	}
}

func (m *Markers) NodeReplaced(ast.NodeID, ast.NodeID) {}

// Add tags id with mk.
func (m *Markers) Add(id ast.NodeID, mk Marker) {
	if id == ast.NoNodeID {
		return
	}
	m.m[id] = append(m.m[id], mk)
}

// Set replaces every marker of mk.Kind on id with mk.
func (m *Markers) Set(id ast.NodeID, mk Marker) {
	m.Remove(id, mk.Kind)
	m.Add(id, mk)
}

func (m *Markers) Get(id ast.NodeID, kind MarkerKind) (Marker, bool) {
	for _, mk := range m.m[id] {
		if mk.Kind == kind {
			return mk, true
		}
	}
	return Marker{}, false
}

func (m *Markers) Has(id ast.NodeID, kind MarkerKind) bool {
	_, ok := m.Get(id, kind)
	return ok
}

// Remove drops markers of kind from id.
func (m *Markers) Remove(id ast.NodeID, kind MarkerKind) {
	ms, ok := m.m[id]
	if !ok {
		return
	}
	ms = slices.DeleteFunc(ms, func(mk Marker) bool { return mk.Kind == kind })
	if len(ms) == 0 {
		delete(m.m, id)
		return
	}
	m.m[id] = ms
}

// Find returns nodes under root carrying kind, in pre-order.
func (m *Markers) Find(root ast.NodeID, kind MarkerKind) []ast.NodeID {
	if len(m.m) == 0 {
		return nil
	}
	return m.tree.Collect(root, func(id ast.NodeID) bool { return m.Has(id, kind) })
}

// FindNamed returns nodes under root carrying kind with the given name.
func (m *Markers) FindNamed(root ast.NodeID, kind MarkerKind, name string) []ast.NodeID {
	return m.tree.Collect(root, func(id ast.NodeID) bool {
		mk, ok := m.Get(id, kind)
		return ok && mk.Name == name
	})
}

// ClearSubtree drops every marker under root.
func (m *Markers) ClearSubtree(root ast.NodeID) {
	m.tree.Walk(root, func(id ast.NodeID) bool {
		delete(m.m, id)
		return true
	})
}

// Reset drops all markers.
func (m *Markers) Reset() {
	clear(m.m)
}

// Len returns the number of marked nodes.
func (m *Markers) Len() int { return len(m.m) }

// Nodes returns every marked node.
func (m *Markers) Nodes() []ast.NodeID {
	ids := slices.Collect(maps.Keys(m.m))
	slices.Sort(ids)
	return ids
}

// snapshot returns a deep copy of the table contents.
func (m *Markers) snapshot() map[ast.NodeID][]Marker {
	out := make(map[ast.NodeID][]Marker, len(m.m))
	for id, ms := range m.m {
		out[id] = slices.Clone(ms)
	}
	return out
}

// restore puts back contents taken by snapshot.
func (m *Markers) restore(s map[ast.NodeID][]Marker) {
	m.m = s
}

// hasToken reports whether id carries a jump marker with tok.
func (m *Markers) hasToken(id ast.NodeID, tok JumpToken) bool {
	for _, mk := range m.m[id] {
		if mk.Kind == MarkJump && mk.Token == tok {
			return true
		}
	}
	return false
}
