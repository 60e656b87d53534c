package sema

import (
	"strings"

	"splice/internal/ast"
	"splice/internal/token"
)

// FunctionTypeName names function types; Args hold the parameter types
// followed by the return type.
const FunctionTypeName = "Function"

// Type is a static type as far as the oracle can tell. nil means unknown.
type Type struct {
	Name     string
	Args     []*Type
	Nullable bool
	Decl     ast.NodeID // Class or TypeParam
	Receiver *Type      // function types only
}

func (t *Type) IsFunction() bool { return t != nil && t.Name == FunctionTypeName }

// IsTypeParam reports whether t is a reference to a type parameter.
func (t *Type) IsTypeParam(tree *ast.Tree) bool {
	return t != nil && tree.Kind(t.Decl) == ast.KindTypeParam
}

// Params returns the parameter types of a function type.
func (t *Type) Params() []*Type {
	if !t.IsFunction() || len(t.Args) == 0 {
		return nil
	}
	return t.Args[:len(t.Args)-1]
}

// Return returns the result type of a function type.
func (t *Type) Return() *Type {
	if !t.IsFunction() || len(t.Args) == 0 {
		return nil
	}
	return t.Args[len(t.Args)-1]
}

func (t *Type) String() string {
	if t == nil {
		return ""
	}
	return t.render(func(t *Type) string { return t.Name })
}

func (t *Type) render(name func(*Type) string) string {
	var sb strings.Builder
	if t.IsFunction() {
		if t.Nullable {
			sb.WriteByte('(')
		}
		if t.Receiver != nil {
			sb.WriteString(t.Receiver.render(name))
			sb.WriteByte('.')
		}
		sb.WriteByte('(')
		for i, p := range t.Params() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.render(name))
		}
		sb.WriteString(") -> ")
		sb.WriteString(t.Return().render(name))
		if t.Nullable {
			sb.WriteString(")?")
		}
		return sb.String()
	}
	sb.WriteString(name(t))
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if a == nil {
				sb.WriteByte('*')
				continue
			}
			sb.WriteString(a.render(name))
		}
		sb.WriteByte('>')
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
	return sb.String()
}

// Render prints t with top-level classes fully qualified, so that the text
// resolves anywhere.
func (o *Oracle) Render(t *Type) string {
	if t == nil {
		return ""
	}
	return t.render(func(t *Type) string {
		if o.tree.Kind(t.Decl) == ast.KindClass {
			if qn, ok := o.QualifiedName(t.Decl); ok {
				return qn
			}
		}
		return t.Name
	})
}

// Same reports whether a and b denote the same type.
func Same(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Nullable != b.Nullable || len(a.Args) != len(b.Args) {
		return false
	}
	if a.Decl != ast.NoNodeID && b.Decl != ast.NoNodeID && a.Decl != b.Decl {
		return false
	}
	for i := range a.Args {
		if !Same(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return Same(a.Receiver, b.Receiver)
}

func (t *Type) withNullable(n bool) *Type {
	if t == nil || t.Nullable == n {
		return t
	}
	c := *t
	c.Nullable = n
	return &c
}

// Subst maps type parameters to types.
type Subst map[ast.NodeID]*Type

func (s Subst) apply(t *Type) *Type {
	if t == nil || len(s) == 0 {
		return t
	}
	if r, ok := s[t.Decl]; ok && r != nil {
		return r.withNullable(r.Nullable || t.Nullable)
	}
	c := *t
	if len(t.Args) > 0 {
		c.Args = make([]*Type, len(t.Args))
		for i, a := range t.Args {
			c.Args[i] = s.apply(a)
		}
	}
	c.Receiver = s.apply(t.Receiver)
	return &c
}

// TypeFromRef converts a type node (TypeRef, FunType, Star) to a Type.
func (o *Oracle) TypeFromRef(ref ast.NodeID) *Type { return o.typeFromRef(ref) }

func (o *Oracle) typeFromRef(ref ast.NodeID) *Type {
	t := o.tree
	switch t.Kind(ref) {
	case ast.KindTypeRef:
		d := o.resolveTypeRef(ref)
		ty := &Type{Name: lastSegment(t.Text(ref)), Nullable: t.Has(ref, ast.FlagNullable), Decl: d}
		if d != ast.NoNodeID {
			ty.Name = t.Text(d)
		}
		for _, a := range t.Children(ref) {
			ty.Args = append(ty.Args, o.typeFromRef(a))
		}
		return ty
	case ast.KindFunType:
		ty := &Type{Name: FunctionTypeName, Nullable: t.Has(ref, ast.FlagNullable)}
		if r := t.Child(ref, 0); r != ast.NoNodeID {
			ty.Receiver = o.typeFromRef(r)
		}
		for _, p := range t.Children(t.Child(ref, 1)) {
			ty.Args = append(ty.Args, o.typeFromRef(p))
		}
		ty.Args = append(ty.Args, o.typeFromRef(t.Child(ref, 2)))
		return ty
	}
	return nil
}

// classType is the type of `this` inside cls.
func (o *Oracle) classType(cls ast.NodeID) *Type {
	t := o.tree
	ty := &Type{Name: t.Text(cls), Decl: cls}
	for _, tp := range t.Children(t.Child(cls, ast.ClassTypeParams)) {
		ty.Args = append(ty.Args, &Type{Name: t.Text(tp), Decl: tp})
	}
	return ty
}

// PreludeType returns the type of the built-in class name, e.g. "Int".
func (o *Oracle) PreludeType(name string) *Type {
	for _, d := range o.TopLevel("kotlin", name) {
		if o.tree.Kind(d) == ast.KindClass {
			return &Type{Name: name, Decl: d}
		}
	}
	return &Type{Name: name}
}

// classOf returns the class behind typ, using the bound for type parameters.
func (o *Oracle) classOf(typ *Type) ast.NodeID {
	if typ == nil {
		return ast.NoNodeID
	}
	t := o.tree
	switch t.Kind(typ.Decl) {
	case ast.KindClass:
		return typ.Decl
	case ast.KindTypeParam:
		if b := t.Child(typ.Decl, 0); b != ast.NoNodeID {
			return o.classOf(o.typeFromRef(b))
		}
	}
	return ast.NoNodeID
}

// TypeOf returns the static type of expr, or nil when unknown.
func (o *Oracle) TypeOf(expr ast.NodeID) *Type {
	if o.depth.Add(1) > maxQueryDepth {
		o.depth.Add(-1)
		return nil
	}
	defer o.depth.Add(-1)
	tp := typer{o: o, visiting: make(map[ast.NodeID]bool)}
	return tp.typeOf(expr)
}

type typer struct {
	o        *Oracle
	visiting map[ast.NodeID]bool
}

func (tp *typer) typeOf(e ast.NodeID) *Type {
	if e == ast.NoNodeID || tp.visiting[e] || len(tp.visiting) > 64 {
		return nil
	}
	tp.visiting[e] = true
	defer delete(tp.visiting, e)

	o, t := tp.o, tp.o.tree
	n := t.Node(e)
	switch n.Kind {
	case ast.KindLiteral:
		return o.literalType(n)
	case ast.KindString:
		return o.PreludeType("String")
	case ast.KindParen:
		return tp.typeOf(n.Children[0])
	case ast.KindName, ast.KindStringRef:
		return tp.refType(e, o.ResolveFull(e))
	case ast.KindDot:
		sel := n.Children[1]
		ty := tp.typeOf(sel)
		if n.Has(ast.FlagSafe) {
			ty = ty.withNullable(true)
		}
		return ty
	case ast.KindCall:
		return tp.callType(e)
	case ast.KindBinary:
		return tp.binaryType(e, n)
	case ast.KindPrefix:
		if n.Op == token.Bang {
			return o.PreludeType("Boolean")
		}
		return tp.typeOf(n.Children[0])
	case ast.KindPostfix:
		ty := tp.typeOf(n.Children[0])
		if n.Op == token.BangBang {
			ty = ty.withNullable(false)
		}
		return ty
	case ast.KindIs:
		return o.PreludeType("Boolean")
	case ast.KindAs:
		ty := o.typeFromRef(n.Children[1])
		if n.Has(ast.FlagSafe) {
			ty = ty.withNullable(true)
		}
		return ty
	case ast.KindIf:
		return tp.branchType(n.Children[ast.IfThen])
	case ast.KindWhen:
		for _, entry := range n.Children[1:] {
			if ty := tp.branchType(t.Child(entry, 1)); ty != nil {
				return ty
			}
		}
	case ast.KindBlock:
		return tp.branchType(e)
	case ast.KindThis:
		return o.receiverType(o.resolveThis(e))
	case ast.KindLambda:
		return tp.lambdaType(e)
	case ast.KindIndex:
		recv := tp.typeOf(n.Children[0])
		if recv != nil && len(recv.Args) == 1 {
			return recv.Args[0]
		}
	case ast.KindReturn, ast.KindThrow, ast.KindBreak, ast.KindContinue:
		return o.PreludeType("Nothing")
	case ast.KindAssign, ast.KindWhile, ast.KindDoWhile, ast.KindFor:
		return o.PreludeType("Unit")
	}
	return nil
}

func (o *Oracle) literalType(n *ast.Node) *Type {
	switch n.Op {
	case token.IntLit:
		if strings.HasSuffix(n.Text, "L") || strings.HasSuffix(n.Text, "l") {
			return o.PreludeType("Long")
		}
		return o.PreludeType("Int")
	case token.FloatLit:
		if strings.HasSuffix(n.Text, "f") || strings.HasSuffix(n.Text, "F") {
			return o.PreludeType("Float")
		}
		return o.PreludeType("Double")
	case token.CharLit:
		return o.PreludeType("Char")
	case token.KwTrue, token.KwFalse:
		return o.PreludeType("Boolean")
	case token.KwNull:
		return o.PreludeType("Nothing").withNullable(true)
	}
	return nil
}

// receiverType is the type `this` has inside decl (see resolveThis).
func (o *Oracle) receiverType(decl ast.NodeID) *Type {
	t := o.tree
	switch t.Kind(decl) {
	case ast.KindClass:
		return o.classType(decl)
	case ast.KindFun:
		return o.typeFromRef(t.Child(decl, ast.FunReceiver))
	case ast.KindProperty:
		return o.typeFromRef(t.Child(decl, ast.PropReceiver))
	case ast.KindLambda:
		return o.lambdaReceiver(decl)
	}
	return nil
}

// branchType is the type of a control-structure branch: the last statement of a block.
func (tp *typer) branchType(body ast.NodeID) *Type {
	t := tp.o.tree
	if t.Kind(body) != ast.KindBlock {
		return tp.typeOf(body)
	}
	stmts := t.Children(body)
	if len(stmts) == 0 {
		return tp.o.PreludeType("Unit")
	}
	last := stmts[len(stmts)-1]
	if t.Kind(last).IsDeclaration() {
		return tp.o.PreludeType("Unit")
	}
	return tp.typeOf(last)
}

func (tp *typer) binaryType(e ast.NodeID, n *ast.Node) *Type {
	o := tp.o
	switch n.Op {
	case token.EqEq, token.BangEq, token.EqEqEq, token.BangEqEq, token.Lt, token.Gt, token.LtEq, token.GtEq,
		token.AndAnd, token.OrOr, token.KwIn:
		return o.PreludeType("Boolean")
	case token.DotDot:
		return o.PreludeType("IntRange")
	case token.Elvis:
		if l := tp.typeOf(n.Children[0]); l != nil {
			return l.withNullable(false)
		}
		return tp.typeOf(n.Children[1])
	case token.Ident:
		return tp.callType(e)
	case token.Plus:
		l := tp.typeOf(n.Children[0])
		if l != nil && l.Name == "String" {
			return l
		}
		return tp.arithmetic(l, tp.typeOf(n.Children[1]))
	}
	return tp.arithmetic(tp.typeOf(n.Children[0]), tp.typeOf(n.Children[1]))
}

var numericRank = map[string]int{"Int": 1, "Long": 2, "Float": 3, "Double": 4}

func (tp *typer) arithmetic(l, r *Type) *Type {
	if l == nil || r == nil {
		if l != nil {
			return l
		}
		return r
	}
	if numericRank[r.Name] > numericRank[l.Name] {
		return r
	}
	return l
}

// refType is the type of a reference resolved to r.
func (tp *typer) refType(ref ast.NodeID, r Resolution) *Type {
	o, t := tp.o, tp.o.tree
	d := r.Decl
	switch t.Kind(d) {
	case ast.KindProperty:
		ty := tp.declType(d)
		return tp.memberSubst(ref, d).apply(ty)
	case ast.KindParam:
		if typ := t.Child(d, ast.ParamType); typ != ast.NoNodeID {
			ty := o.typeFromRef(typ)
			if t.Has(d, ast.FlagVararg) {
				ty = &Type{Name: "Array", Args: []*Type{ty}, Decl: o.PreludeType("Array").Decl}
			}
			return tp.memberSubst(ref, d).apply(ty)
		}
		return tp.implicitParamType(d)
	case ast.KindLambda: // it
		if ps := o.expectedParamTypes(d); len(ps) > 0 {
			return ps[0]
		}
	case ast.KindClass:
		return o.classType(d)
	}
	return nil
}

// memberSubst maps class type parameters to the type arguments of the
// explicit receiver through which member is accessed.
func (tp *typer) memberSubst(ref, member ast.NodeID) Subst {
	o, t := tp.o, tp.o.tree
	cls := t.Ancestor(member, ast.KindClass)
	if cls == ast.NoNodeID || t.Kind(t.Parent(member)) == ast.KindBlock {
		return nil
	}
	site := ref
	if p := t.Parent(ref); t.Kind(p) == ast.KindCall && t.Child(p, ast.CallCallee) == ref {
		site = p
	}
	dot := t.Parent(site)
	if t.Kind(dot) != ast.KindDot || t.Child(dot, 1) != site {
		return nil
	}
	recv := tp.typeOf(t.Child(dot, 0))
	return o.classSubst(cls, recv)
}

// classSubst binds cls type parameters from a receiver type (or one of its subclasses).
func (o *Oracle) classSubst(cls ast.NodeID, recv *Type) Subst {
	t := o.tree
	if recv == nil || recv.Decl != cls {
		return nil
	}
	s := Subst{}
	for i, tp := range t.Children(t.Child(cls, ast.ClassTypeParams)) {
		if i < len(recv.Args) {
			s[tp] = recv.Args[i]
		}
	}
	return s
}

// declType is the declared or inferred type of a property.
func (tp *typer) declType(prop ast.NodeID) *Type {
	o, t := tp.o, tp.o.tree
	if typ := t.Child(prop, ast.PropType); typ != ast.NoNodeID {
		return o.typeFromRef(typ)
	}
	if init := t.Child(prop, ast.PropInit); init != ast.NoNodeID {
		return tp.typeOf(init)
	}
	if g := t.Child(prop, ast.PropGetter); g != ast.NoNodeID && t.Has(g, ast.FlagExprBody) {
		return tp.typeOf(t.Child(g, 0))
	}
	return nil
}

// implicitParamType infers lambda and for-loop parameter types from context.
func (tp *typer) implicitParamType(param ast.NodeID) *Type {
	o, t := tp.o, tp.o.tree
	owner := t.Parent(param)
	switch t.Kind(owner) {
	case ast.KindFor:
		iter := tp.typeOf(t.Child(owner, 1))
		if iter == nil {
			return nil
		}
		if iter.Name == "IntRange" {
			return o.PreludeType("Int")
		}
		if len(iter.Args) == 1 {
			return iter.Args[0]
		}
	case ast.KindParams:
		lambda := t.Parent(owner)
		if t.Kind(lambda) != ast.KindLambda {
			return nil
		}
		idx := t.IndexInParent(param)
		if ps := o.expectedParamTypes(lambda); idx >= 0 && idx < len(ps) {
			return ps[idx]
		}
	}
	return nil
}

func (tp *typer) lambdaType(lambda ast.NodeID) *Type {
	o, t := tp.o, tp.o.tree
	ty := &Type{Name: FunctionTypeName, Receiver: o.lambdaReceiver(lambda)}
	if params := t.Child(lambda, ast.LambdaParams); params != ast.NoNodeID {
		for _, p := range t.Children(params) {
			if typ := t.Child(p, ast.ParamType); typ != ast.NoNodeID {
				ty.Args = append(ty.Args, o.typeFromRef(typ))
			} else {
				ty.Args = append(ty.Args, tp.implicitParamType(p))
			}
		}
	} else {
		ty.Args = append(ty.Args, o.expectedParamTypes(lambda)...)
	}
	ty.Args = append(ty.Args, tp.branchType(t.Child(lambda, ast.LambdaBlock)))
	return ty
}

// expectedFunType returns the function type lambda is passed as, with type
// arguments inferred from the other arguments of the call.
func (o *Oracle) expectedFunType(lambda ast.NodeID) *Type {
	t := o.tree
	arg := lambda
	if p := t.Parent(lambda); t.Kind(p) == ast.KindArg {
		arg = p
	}
	call := t.Parent(arg)
	if t.Kind(call) == ast.KindArgs {
		call = t.Parent(call)
	}
	if t.Kind(call) != ast.KindCall {
		return nil
	}
	info, ok := o.ResolveCall(call)
	if !ok {
		return nil
	}
	for _, m := range info.Params {
		for _, a := range m.Args {
			if a != arg {
				continue
			}
			typ := o.typeFromRef(t.Child(m.Param, ast.ParamType))
			if !typ.IsFunction() {
				return nil
			}
			return o.inferCall(info, true).apply(typ)
		}
	}
	return nil
}

func (o *Oracle) expectedParamTypes(lambda ast.NodeID) []*Type {
	return o.expectedFunType(lambda).Params()
}

// lambdaReceiver returns the receiver type of a lambda passed where a
// function type with receiver is expected.
func (o *Oracle) lambdaReceiver(lambda ast.NodeID) *Type {
	if ft := o.expectedFunType(lambda); ft != nil {
		return ft.Receiver
	}
	return nil
}

// LambdaReceiver returns the implicit receiver type of lambda, or nil.
func (o *Oracle) LambdaReceiver(lambda ast.NodeID) *Type { return o.lambdaReceiver(lambda) }

// LambdaArity returns the number of parameters lambda is expected to take.
func (o *Oracle) LambdaArity(lambda ast.NodeID) int { return o.lambdaArity(lambda) }

// lambdaArity is the expected number of lambda parameters; 1 when unknown.
func (o *Oracle) lambdaArity(lambda ast.NodeID) int {
	if ft := o.expectedFunType(lambda); ft != nil {
		return len(ft.Params())
	}
	return 1
}

func (tp *typer) callType(call ast.NodeID) *Type {
	o, t := tp.o, tp.o.tree
	info, ok := o.ResolveCall(call)
	if !ok {
		r := o.ResolveFull(call)
		if k := t.Kind(r.Decl); k == ast.KindProperty || k == ast.KindParam || k == ast.KindLambda {
			return tp.refType(t.Child(call, ast.CallCallee), r).Return()
		}
		return nil
	}
	s := o.inferCall(info, false)
	switch t.Kind(info.Callee) {
	case ast.KindClass:
		return s.apply(o.classType(info.Callee))
	case ast.KindConstructor:
		return s.apply(o.classType(t.Ancestor(info.Callee, ast.KindClass)))
	case ast.KindFun:
		fun := info.Callee
		if ret := t.Child(fun, ast.FunRetType); ret != ast.NoNodeID {
			return s.apply(o.typeFromRef(ret))
		}
		if t.Has(fun, ast.FlagExprBody) {
			return s.apply(tp.typeOf(t.Child(fun, ast.FunBody)))
		}
		return o.PreludeType("Unit")
	}
	return nil
}

// inferCall binds the callee's type parameters: explicit type arguments
// first, then from the receiver and argument types. Lambda arguments are
// skipped when skipLambdas is set.
func (o *Oracle) inferCall(info *CallInfo, skipLambdas bool) Subst {
	t := o.tree
	s := Subst{}
	var tps []ast.NodeID
	switch t.Kind(info.Callee) {
	case ast.KindFun:
		tps = t.Children(t.Child(info.Callee, ast.FunTypeParams))
		if cls := t.Ancestor(info.Callee, ast.KindClass); cls != ast.NoNodeID && info.Receiver != ast.NoNodeID {
			for k, v := range o.classSubst(cls, o.TypeOf(info.Receiver)) {
				s[k] = v
			}
		}
	case ast.KindClass:
		tps = t.Children(t.Child(info.Callee, ast.ClassTypeParams))
	case ast.KindConstructor:
		tps = t.Children(t.Child(t.Ancestor(info.Callee, ast.KindClass), ast.ClassTypeParams))
	}
	if len(tps) == 0 {
		return s
	}
	if ta := info.TypeArgs; ta != ast.NoNodeID {
		for i, a := range t.Children(ta) {
			if i < len(tps) {
				s[tps[i]] = o.typeFromRef(a)
			}
		}
		return s
	}
	free := make(map[ast.NodeID]bool, len(tps))
	for _, tp := range tps {
		free[tp] = true
	}
	if t.Kind(info.Callee) == ast.KindFun && info.Receiver != ast.NoNodeID {
		if recv := t.Child(info.Callee, ast.FunReceiver); recv != ast.NoNodeID {
			unify(o.typeFromRef(recv), o.TypeOf(info.Receiver), free, s)
		}
	}
	var lambdas []ArgMapping
	for _, m := range info.Params {
		pt := o.typeFromRef(t.Child(m.Param, ast.ParamType))
		for _, a := range m.Args {
			v := ArgValue(t, a)
			if t.Kind(v) == ast.KindLambda {
				lambdas = append(lambdas, m)
				continue
			}
			at := o.TypeOf(v)
			if t.Has(m.Param, ast.FlagVararg) && t.Has(a, ast.FlagSpread) && at != nil && len(at.Args) == 1 {
				at = at.Args[0]
			}
			unify(pt, at, free, s)
		}
	}
	if skipLambdas {
		return s
	}
	for _, m := range lambdas {
		pt := o.typeFromRef(t.Child(m.Param, ast.ParamType))
		for _, a := range m.Args {
			lt := o.TypeOf(ArgValue(t, a))
			if pt.IsFunction() && lt.IsFunction() {
				unify(pt.Return(), lt.Return(), free, s)
			}
		}
	}
	return s
}

func unify(param, arg *Type, free map[ast.NodeID]bool, s Subst) {
	if param == nil || arg == nil {
		return
	}
	if free[param.Decl] {
		if _, done := s[param.Decl]; !done {
			if param.Nullable {
				arg = arg.withNullable(false)
			}
			s[param.Decl] = arg
		}
		return
	}
	if param.Name != arg.Name || len(param.Args) != len(arg.Args) {
		return
	}
	for i := range param.Args {
		unify(param.Args[i], arg.Args[i], free, s)
	}
	unify(param.Receiver, arg.Receiver, free, s)
}

// InferTypeArgs returns the types the call's type parameters are bound to,
// in declaration order, ignoring explicit type arguments. Unknown entries are nil.
func (o *Oracle) InferTypeArgs(call ast.NodeID) ([]*Type, bool) {
	info, ok := o.ResolveCall(call)
	if !ok {
		return nil, false
	}
	t := o.tree
	var tps []ast.NodeID
	switch t.Kind(info.Callee) {
	case ast.KindFun:
		tps = t.Children(t.Child(info.Callee, ast.FunTypeParams))
	case ast.KindClass:
		tps = t.Children(t.Child(info.Callee, ast.ClassTypeParams))
	case ast.KindConstructor:
		tps = t.Children(t.Child(t.Ancestor(info.Callee, ast.KindClass), ast.ClassTypeParams))
	}
	explicit := info.TypeArgs
	info.TypeArgs = ast.NoNodeID
	s := o.inferCall(info, false)
	info.TypeArgs = explicit
	out := make([]*Type, len(tps))
	for i, tp := range tps {
		out[i] = s[tp]
	}
	return out, true
}

// TypeParamBindings returns the substitution for the callee's type
// parameters at call, explicit type arguments first.
func (o *Oracle) TypeParamBindings(call ast.NodeID) Subst {
	info, ok := o.ResolveCall(call)
	if !ok {
		return nil
	}
	return o.inferCall(info, false)
}
