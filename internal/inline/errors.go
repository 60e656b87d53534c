package inline

import (
	"errors"
	"fmt"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

// ErrNotInlinable is wrapped by every RefusalError.
var ErrNotInlinable = errors.New("declaration cannot be inlined")

// RefusalError explains why a declaration has no template.
type RefusalError struct {
	Code   diag.Code
	Span   source.Span
	Reason string
}

func (e *RefusalError) Error() string { return e.Reason }

func (e *RefusalError) Unwrap() error { return ErrNotInlinable }

// Report emits the refusal as an error diagnostic.
func (e *RefusalError) Report(r diag.Reporter) {
	diag.ReportError(r, e.Code, e.Span, e.Reason).Emit()
}

// UsageError is returned for a usage the engine cannot rewrite.
type UsageError struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *UsageError) Error() string { return e.Msg }

// InvariantError is the panic value for a broken structural assumption.
type InvariantError struct {
	Msg string
}

func (e InvariantError) Error() string { return "inline: " + e.Msg }

func invariant(format string, args ...any) {
	panic(InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// spanOf returns the span of id or of its closest ancestor that has one.
// Synthetic nodes fall back to the node they were copied from.
func spanOf(t *ast.Tree, id ast.NodeID) source.Span {
	for cur := id; cur != ast.NoNodeID; cur = t.Parent(cur) {
		if sp := t.Node(cur).Span; !sp.Empty() {
			return sp
		}
		if o := t.Origin(cur); o != cur {
			if sp := t.Node(o).Span; !sp.Empty() {
				return sp
			}
		}
	}
	return source.Span{}
}
