package inline

import (
	"fmt"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/sema"
	"splice/internal/token"
)

// Shape is the syntactic form of a usage.
type Shape uint8

const (
	ShapePlainExpression Shape = iota + 1
	ShapeAnnotationArgument
	ShapeSuperConstructorDelegation
)

func (s Shape) String() string {
	switch s {
	case ShapePlainExpression:
		return "expression"
	case ShapeAnnotationArgument:
		return "annotation"
	case ShapeSuperConstructorDelegation:
		return "super-delegation"
	}
	return "unknown"
}

// UsageSite is one place where the inlined declaration is used.
type UsageSite struct {
	Shape Shape
	// Element is the node the inlined code replaces: the whole expression
	// including an explicit receiver, an Annotation, a SuperCall or a
	// constructor Delegation.
	Element ast.NodeID
	// Call is the call-like node carrying the arguments; NoNodeID for a
	// property read.
	Call     ast.NodeID
	Ref      ast.NodeID
	Receiver ast.NodeID // explicit receiver expression
	// ImplicitReceiver is the declaration providing an implicit `this`.
	ImplicitReceiver ast.NodeID
	Safe             bool
	UseSiteTarget    string
}

// SiteFor classifies a reference returned by Oracle.FindReferences.
func SiteFor(o *sema.Oracle, ref ast.NodeID) (*UsageSite, error) {
	t := o.Tree()
	unsupported := func(code diag.Code, format string, args ...any) (*UsageSite, error) {
		return nil, &UsageError{Code: code, Span: spanOf(t, ref), Msg: fmt.Sprintf(format, args...)}
	}
	switch t.Kind(ref) {
	case ast.KindName:
		s := &UsageSite{Shape: ShapePlainExpression, Ref: ref}
		site := calleeSite(t, ref)
		if site != ref {
			s.Call = site
		}
		s.Element = site
		if dot, ok := selectorOf(t, site); ok {
			s.Element = dot
			s.Receiver = t.Child(dot, 0)
			s.Safe = t.Has(dot, ast.FlagSafe)
		} else {
			s.ImplicitReceiver = o.ResolveFull(ref).ImplicitReceiver
		}
		if p := t.Parent(s.Element); t.Kind(p) == ast.KindAssign && t.Child(p, 0) == s.Element {
			return unsupported(diag.InlineUnsupportedUsage, "assignment to %s", t.Text(ref))
		}
		if p := t.Parent(s.Element); (t.Kind(p) == ast.KindPrefix || t.Kind(p) == ast.KindPostfix) &&
			(t.Node(p).Op == token.PlusPlus || t.Node(p).Op == token.MinusMinus) {
			return unsupported(diag.InlineUnsupportedUsage, "increment of %s", t.Text(ref))
		}
		return s, nil
	case ast.KindStringRef:
		r := o.ResolveFull(ref)
		return &UsageSite{Shape: ShapePlainExpression, Element: ref, Ref: ref, ImplicitReceiver: r.ImplicitReceiver}, nil
	case ast.KindBinary:
		if t.Node(ref).Op != token.Ident {
			break
		}
		return &UsageSite{Shape: ShapePlainExpression, Element: ref, Call: ref, Ref: ref, Receiver: t.Child(ref, 0)}, nil
	case ast.KindAnnotation:
		return &UsageSite{Shape: ShapeAnnotationArgument, Element: ref, Call: ref, Ref: ref, UseSiteTarget: t.Node(ref).Alt}, nil
	case ast.KindSuperCall, ast.KindDelegation:
		return &UsageSite{Shape: ShapeSuperConstructorDelegation, Element: ref, Call: ref, Ref: ref}, nil
	case ast.KindCallableRef:
		return unsupported(diag.InlineCallableReference, "callable reference ::%s cannot be inlined", t.Text(ref))
	case ast.KindImport:
		return unsupported(diag.InlineUnsupportedUsage, "import of %s is not an inlinable usage", t.Text(ref))
	}
	return unsupported(diag.InlineUnsupportedUsage, "unsupported usage %s", t.Kind(ref))
}

// implicitThis builds the `this` expression for an implicit receiver
// provided by owner, labelled when an inner receiver would shadow it.
func implicitThis(o *sema.Oracle, at, owner ast.NodeID) ast.NodeID {
	t := o.Tree()
	shadowed := false
	for cur := t.Parent(at); cur != ast.NoNodeID && cur != owner; cur = t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindClass:
			shadowed = true
		case ast.KindFun, ast.KindProperty:
			shadowed = shadowed || o.IsExtension(cur)
		case ast.KindLambda:
			shadowed = shadowed || o.LambdaReceiver(cur) != nil
		}
	}
	label := ""
	switch {
	case t.Kind(owner) == ast.KindLambda:
		// метка лямбды может отсутствовать; тогда остаётся только this
		if shadowed {
			label = t.Node(owner).Alt
		}
	case shadowed:
		label = t.Text(owner)
	}
	return t.New(ast.Node{Kind: ast.KindThis, Text: label})
}
