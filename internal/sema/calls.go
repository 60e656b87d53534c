package sema

import (
	"splice/internal/ast"
	"splice/internal/token"
)

// ArgMapping ties one parameter to the arguments passed for it.
type ArgMapping struct {
	Param ast.NodeID
	// Args holds Arg nodes, or the trailing Lambda. Empty means the
	// default value is used (or nothing was passed to a vararg).
	Args     []ast.NodeID
	Named    bool
	Trailing bool
}

// CallInfo describes a resolved call.
type CallInfo struct {
	Call     ast.NodeID
	Callee   ast.NodeID // Fun, Class (primary constructor) or Constructor
	Resolved Resolution
	Receiver ast.NodeID // explicit receiver expression
	Safe     bool
	Params   []ArgMapping
	TypeArgs ast.NodeID
}

// Mapping returns the mapping of param, if it is one of the callee's parameters.
func (c *CallInfo) Mapping(param ast.NodeID) (ArgMapping, bool) {
	for _, m := range c.Params {
		if m.Param == param {
			return m, true
		}
	}
	return ArgMapping{}, false
}

// ArgValue returns the expression passed by an Arg node (or the node itself).
func ArgValue(tree *ast.Tree, arg ast.NodeID) ast.NodeID {
	if tree.Kind(arg) == ast.KindArg {
		return tree.Child(arg, 0)
	}
	return arg
}

type argument struct {
	node     ast.NodeID
	name     string
	spread   bool
	trailing bool
}

// ArgsList returns the argument list node of a call-like node.
func ArgsList(tree *ast.Tree, call ast.NodeID) ast.NodeID {
	switch tree.Kind(call) {
	case ast.KindCall:
		return tree.Child(call, ast.CallArgs)
	case ast.KindDelegation, ast.KindAnnotation:
		return tree.Child(call, 0)
	case ast.KindSuperCall:
		return tree.Child(call, 1)
	}
	return ast.NoNodeID
}

func (o *Oracle) callArguments(call ast.NodeID) []argument {
	t := o.tree
	var out []argument
	if t.Kind(call) == ast.KindBinary {
		return []argument{{node: t.Child(call, 1)}}
	}
	for _, a := range t.Children(ArgsList(t, call)) {
		out = append(out, argument{node: a, name: t.Text(a), spread: t.Has(a, ast.FlagSpread)})
	}
	if t.Kind(call) == ast.KindCall {
		if l := t.Child(call, ast.CallLambda); l != ast.NoNodeID {
			out = append(out, argument{node: l, trailing: true})
		}
	}
	return out
}

// mapArgs assigns the call's arguments to params; ok is false when they do not fit.
func (o *Oracle) mapArgs(params, call ast.NodeID) ([]ArgMapping, bool) {
	t := o.tree
	ps := t.Children(params)
	out := make([]ArgMapping, len(ps))
	for i, p := range ps {
		out[i].Param = p
	}
	pos := 0
	named := false
	for _, a := range o.callArguments(call) {
		switch {
		case a.trailing:
			last := len(ps) - 1
			if last < 0 || len(out[last].Args) > 0 || t.Has(ps[last], ast.FlagVararg) {
				return nil, false
			}
			out[last].Args = []ast.NodeID{a.node}
			out[last].Trailing = true
		case a.name != "":
			i := -1
			for j, p := range ps {
				if t.Text(p) == a.name {
					i = j
					break
				}
			}
			if i < 0 || len(out[i].Args) > 0 {
				return nil, false
			}
			if a.spread && !t.Has(ps[i], ast.FlagVararg) {
				return nil, false
			}
			out[i].Args = []ast.NodeID{a.node}
			out[i].Named = true
			named = true
		default:
			if named || pos >= len(ps) {
				return nil, false
			}
			if t.Has(ps[pos], ast.FlagVararg) {
				out[pos].Args = append(out[pos].Args, a.node)
				continue
			}
			if a.spread {
				return nil, false
			}
			out[pos].Args = []ast.NodeID{a.node}
			pos++
		}
	}
	for i, p := range ps {
		if len(out[i].Args) == 0 && !t.Has(p, ast.FlagVararg) && t.Child(p, ast.ParamDefault) == ast.NoNodeID {
			return nil, false
		}
	}
	return out, true
}

// ResolveCall resolves a call (Call, infix Binary, constructor Delegation,
// SuperCall or Annotation) and maps its arguments to the callee's parameters.
func (o *Oracle) ResolveCall(call ast.NodeID) (*CallInfo, bool) {
	t := o.tree
	info := &CallInfo{Call: call}
	var callee ast.NodeID
	switch t.Kind(call) {
	case ast.KindCall:
		info.Resolved = o.ResolveFull(call)
		callee = info.Resolved.Decl
		info.TypeArgs = t.Child(call, ast.CallTypeArgs)
		if dot := t.Parent(call); t.Kind(dot) == ast.KindDot && t.Child(dot, 1) == call {
			info.Receiver = t.Child(dot, 0)
			info.Safe = t.Has(dot, ast.FlagSafe)
		}
	case ast.KindBinary:
		if t.Node(call).Op != token.Ident {
			return nil, false
		}
		info.Resolved = o.ResolveFull(call)
		callee = info.Resolved.Decl
		info.Receiver = t.Child(call, 0)
	case ast.KindDelegation:
		cls := t.Ancestor(call, ast.KindClass)
		if t.Text(call) == "super" {
			for _, s := range o.supers(cls) {
				if c := o.constructorFor(s, call); c != ast.NoNodeID {
					callee = s
					break
				}
			}
		} else {
			callee = cls
		}
		info.Resolved = Resolution{Decl: callee}
	case ast.KindSuperCall:
		callee = o.resolveTypeRef(t.Child(call, 0))
		info.Resolved = Resolution{Decl: callee}
	case ast.KindAnnotation:
		callee = o.resolveTypeRef(call)
		info.Resolved = Resolution{Decl: callee}
	default:
		return nil, false
	}
	var params ast.NodeID
	switch t.Kind(callee) {
	case ast.KindFun:
		params = t.Child(callee, ast.FunParams)
	case ast.KindClass:
		ctor := o.constructorFor(callee, call)
		if ctor == ast.NoNodeID {
			return nil, false
		}
		if t.Kind(ctor) == ast.KindConstructor {
			callee = ctor
			params = t.Child(ctor, ast.CtorParams)
		} else {
			params = t.Child(callee, ast.ClassParams)
		}
	default:
		return nil, false
	}
	mapping, ok := o.mapArgs(params, call)
	if !ok {
		return nil, false
	}
	info.Callee = callee
	info.Params = mapping
	return info, true
}

// CalleeOf returns the declaration a call-like node invokes: the constructor
// node for secondary constructors, otherwise the resolved declaration.
func (o *Oracle) CalleeOf(call ast.NodeID) ast.NodeID {
	if info, ok := o.ResolveCall(call); ok {
		return info.Callee
	}
	return o.Resolve(call)
}
