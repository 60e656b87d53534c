package ast

// Equal reports structural equality of two subtrees, ignoring spans and comments.
func (t *Tree) Equal(a, b NodeID) bool {
	if a == b {
		return true
	}
	na, nb := t.Node(a), t.Node(b)
	if na == nil || nb == nil {
		return false
	}
	if na.Kind != nb.Kind || na.Text != nb.Text || na.Alt != nb.Alt || na.Op != nb.Op || na.Flags != nb.Flags {
		return false
	}
	if len(na.Children) != len(nb.Children) {
		return false
	}
	ca, cb := na.Children, nb.Children
	for i := range ca {
		if !t.Equal(ca[i], cb[i]) {
			return false
		}
	}
	return true
}
