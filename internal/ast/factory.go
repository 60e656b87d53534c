package ast

import "splice/internal/token"

// Конструкторы синтетических узлов (без Span).

func (t *Tree) NewName(name string) NodeID {
	return t.New(Node{Kind: KindName, Text: name})
}

func (t *Tree) NewList(kind Kind, children ...NodeID) NodeID {
	return t.New(Node{Kind: kind, Children: append([]NodeID(nil), children...)})
}

func (t *Tree) NewBlock(stmts ...NodeID) NodeID {
	return t.NewList(KindBlock, stmts...)
}

func (t *Tree) NewParen(x NodeID) NodeID {
	return t.New(Node{Kind: KindParen, Children: []NodeID{x}})
}

func (t *Tree) NewDot(recv, sel NodeID, safe bool) NodeID {
	var f Flags
	if safe {
		f = FlagSafe
	}
	return t.New(Node{Kind: KindDot, Flags: f, Children: []NodeID{recv, sel}})
}

func (t *Tree) NewArg(name string, value NodeID) NodeID {
	return t.New(Node{Kind: KindArg, Text: name, Children: []NodeID{value}})
}

// NewCall builds callee(args...) with optional trailing lambda.
func (t *Tree) NewCall(callee NodeID, lambda NodeID, args ...NodeID) NodeID {
	wrapped := make([]NodeID, 0, len(args))
	for _, a := range args {
		if t.Kind(a) != KindArg {
			a = t.NewArg("", a)
		}
		wrapped = append(wrapped, a)
	}
	return t.New(Node{Kind: KindCall, Children: []NodeID{callee, NoNodeID, t.NewList(KindArgs, wrapped...), lambda}})
}

func (t *Tree) NewBinary(op token.Kind, text string, l, r NodeID) NodeID {
	return t.New(Node{Kind: KindBinary, Op: op, Text: text, Children: []NodeID{l, r}})
}

func (t *Tree) NewLiteral(op token.Kind, text string) NodeID {
	return t.New(Node{Kind: KindLiteral, Op: op, Text: text})
}

func (t *Tree) NewNull() NodeID { return t.NewLiteral(token.KwNull, "null") }

func (t *Tree) NewTypeRef(name string, nullable bool, args ...NodeID) NodeID {
	var f Flags
	if nullable {
		f = FlagNullable
	}
	return t.New(Node{Kind: KindTypeRef, Text: name, Flags: f, Children: append([]NodeID(nil), args...)})
}

// NewLocal builds `val name[: typ] = init` (or var).
func (t *Tree) NewLocal(name string, mutable bool, typ, init NodeID) NodeID {
	var f Flags
	if mutable {
		f = FlagVar
	}
	return t.New(Node{Kind: KindProperty, Text: name, Flags: f, Children: []NodeID{
		t.NewList(KindAnnotations), NoNodeID, NoNodeID, typ, init, NoNodeID,
	}})
}

func (t *Tree) NewIf(cond, then, els NodeID) NodeID {
	return t.New(Node{Kind: KindIf, Children: []NodeID{cond, then, els}})
}

// NewLambda builds `{ params -> stmts }`; params may be nil.
func (t *Tree) NewLambda(params []string, stmts ...NodeID) NodeID {
	ps := NoNodeID
	if params != nil {
		ids := make([]NodeID, 0, len(params))
		for _, p := range params {
			ids = append(ids, t.New(Node{Kind: KindParam, Text: p, Children: []NodeID{NoNodeID, NoNodeID}}))
		}
		ps = t.NewList(KindParams, ids...)
	}
	return t.New(Node{Kind: KindLambda, Children: []NodeID{ps, t.NewBlock(stmts...)}})
}

func (t *Tree) NewReturn(label string, value NodeID) NodeID {
	return t.New(Node{Kind: KindReturn, Text: label, Children: []NodeID{value}})
}

// NewUnit builds the `Unit` placeholder expression.
func (t *Tree) NewUnit() NodeID { return t.NewName("Unit") }
