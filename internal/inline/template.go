package inline

import (
	"fmt"
	"maps"
	"slices"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/sema"
	"splice/internal/token"
)

// CodeTemplate is the body of a declaration prepared for substitution. It
// lives in detached nodes of the tree and is never modified after it is
// built; every call site gets its own copy.
type CodeTemplate struct {
	Decl             ast.NodeID
	Main             ast.NodeID // NoNodeID for a value-less body
	StatementsBefore []ast.NodeID
	ImportsToAdd     []string
	// AlwaysKeepMainExpression keeps the main expression even when its
	// value is unused and it looks side-effect free (custom getters).
	AlwaysKeepMainExpression bool
	ExtraComments            *Comments

	Params []TemplateParam
	// TypeParams are the type parameters the body may mention: those of
	// the declaration and, for members, of the enclosing class.
	TypeParams   []ast.NodeID
	HasReceiver  bool
	ReceiverName string

	body    ast.NodeID // Block: StatementsBefore..., Main
	markers *Markers
}

// TemplateParam is a parameter of the inlined declaration.
type TemplateParam struct {
	Name   string
	Decl   ast.NodeID
	Vararg bool

	defaults ast.NodeID // Block holding the prepared default value
	typ      ast.NodeID // Block holding the prepared declared type
}

// HasDefault reports whether the parameter declares a default value.
func (p *TemplateParam) HasDefault() bool { return p.defaults != ast.NoNodeID }

type actionKind uint8

const (
	actParam actionKind = iota + 1
	actReceiverThis
	actImplicitReceiver
	actQualify
	actQualifyType
	actTypeParam
	actArgParam
	actTypeArgs
)

type action struct {
	kind  actionKind
	name  string
	ref   ast.NodeID
	types []*sema.Type
}

type builder struct {
	e      *Engine
	t      *ast.Tree
	o      *sema.Oracle
	decl   ast.NodeID
	owner  ast.NodeID // class of a member declaration
	params map[ast.NodeID]string
	tps    map[ast.NodeID]string
	plan   map[ast.NodeID][]action
	marks  *Markers
	tmpl   *CodeTemplate
	err    error

	lambdaArgs int // аргументов у вызова лямбды на месте; -1 если неизвестно
}

// copyRecorder remembers which node each copy came from.
type copyRecorder struct{ m map[ast.NodeID]ast.NodeID }

func (r *copyRecorder) NodeCopied(src, dst ast.NodeID) { r.m[src] = dst }

func (r *copyRecorder) NodeReplaced(ast.NodeID, ast.NodeID) {}

// PrepareTemplate builds the template of a function, property or secondary
// constructor. A declaration that cannot be inlined yields a *RefusalError.
func (e *Engine) PrepareTemplate(decl ast.NodeID) (*CodeTemplate, error) {
	return e.prepare(decl, -1)
}

func (e *Engine) prepare(decl ast.NodeID, lambdaArgs int) (*CodeTemplate, error) {
	b := &builder{
		e: e, t: e.tree, o: e.oracle, decl: decl,
		params:     make(map[ast.NodeID]string),
		tps:        make(map[ast.NodeID]string),
		plan:       make(map[ast.NodeID][]action),
		marks:      detachedMarkers(e.tree),
		tmpl:       &CodeTemplate{Decl: decl},
		lambdaArgs: lambdaArgs,
	}
	return b.build()
}

func (b *builder) name() string {
	switch b.t.Kind(b.decl) {
	case ast.KindConstructor:
		return "constructor of " + b.t.Text(b.owner)
	case ast.KindLambda:
		return "lambda"
	}
	return b.t.Text(b.decl)
}

// label is the name a labelled return must carry to leave the declaration.
func (b *builder) label() string {
	if b.t.Kind(b.decl) == ast.KindLambda {
		return b.t.Node(b.decl).Alt
	}
	return b.t.Text(b.decl)
}

func (b *builder) refuse(code diag.Code, format string, args ...any) (*CodeTemplate, error) {
	return nil, &RefusalError{Code: code, Span: spanOf(b.t, b.decl), Reason: fmt.Sprintf(format, args...)}
}

func (b *builder) build() (*CodeTemplate, error) {
	t := b.t
	if cb := t.Parent(b.decl); t.Kind(cb) == ast.KindClassBody {
		b.owner = t.Parent(cb)
	}
	var (
		params, typeParams, recv ast.NodeID
		stmts                    []ast.NodeID
		main                     ast.NodeID
		delegation               ast.NodeID
		extra                    = &Comments{}
	)
	switch t.Kind(b.decl) {
	case ast.KindFun:
		params, typeParams, recv = t.Child(b.decl, ast.FunParams), t.Child(b.decl, ast.FunTypeParams), t.Child(b.decl, ast.FunReceiver)
		body := t.Child(b.decl, ast.FunBody)
		if body == ast.NoNodeID {
			return b.refuse(diag.InlineNoBody, "function %s has no body", b.name())
		}
		if t.Has(b.decl, ast.FlagExprBody) {
			main = body
		} else {
			var ok bool
			if stmts, main, ok = b.splitBlock(body, extra); !ok {
				return b.refuse(diag.InlineMultipleReturns, "function %s has return statements that are not its final statement", b.name())
			}
		}
	case ast.KindProperty:
		typeParams, recv = t.Child(b.decl, ast.PropTypeParams), t.Child(b.decl, ast.PropReceiver)
		if t.Has(b.decl, ast.FlagVar) {
			return b.refuse(diag.InlineNotCallable, "property %s is mutable", b.name())
		}
		getter := t.Child(b.decl, ast.PropGetter)
		switch {
		case getter != ast.NoNodeID:
			body := t.Child(getter, 0)
			if body == ast.NoNodeID {
				return b.refuse(diag.InlineNoBody, "getter of %s has no body", b.name())
			}
			b.tmpl.AlwaysKeepMainExpression = true
			if t.Has(getter, ast.FlagExprBody) {
				main = body
				break
			}
			var ok bool
			if stmts, main, ok = b.splitBlock(body, extra); !ok {
				return b.refuse(diag.InlineMultipleReturns, "getter of %s has return statements that are not its final statement", b.name())
			}
		case t.Child(b.decl, ast.PropInit) != ast.NoNodeID:
			main = t.Child(b.decl, ast.PropInit)
		default:
			return b.refuse(diag.InlineNoBody, "property %s has no initializer", b.name())
		}
	case ast.KindConstructor:
		params = t.Child(b.decl, ast.CtorParams)
		if b.owner == ast.NoNodeID {
			b.owner = t.Ancestor(b.decl, ast.KindClass)
		}
		if t.Child(b.decl, ast.CtorBody) != ast.NoNodeID {
			return b.refuse(diag.InlineNotCallable, "%s has a body", b.name())
		}
		delegation = t.Child(b.decl, ast.CtorDelegation)
		if delegation == ast.NoNodeID || t.Text(delegation) != "this" {
			return b.refuse(diag.InlineNotCallable, "%s does not delegate to another constructor of its class", b.name())
		}
	case ast.KindLambda:
		params = t.Child(b.decl, ast.LambdaParams)
		block := t.Child(b.decl, ast.LambdaBlock)
		if len(b.ownReturns(block)) > 0 {
			return b.refuse(diag.InlineMultipleReturns, "lambda returns to its label")
		}
		all := t.Children(block)
		stmts = slices.Clone(all)
		if n := len(all); n > 0 && isValueStatement(t, all[n-1]) {
			main, stmts = all[n-1], stmts[:n-1]
		}
		if params == ast.NoNodeID && (b.lambdaArgs == 1 || b.lambdaArgs < 0) {
			b.params[b.decl] = "it"
		}
	default:
		return b.refuse(diag.InlineNotCallable, "%s declarations cannot be inlined", t.Kind(b.decl))
	}

	for _, p := range t.Children(params) {
		b.params[p] = t.Text(p)
	}
	tps := slices.Clone(t.Children(typeParams))
	if b.owner != ast.NoNodeID {
		tps = append(tps, t.Children(t.Child(b.owner, ast.ClassTypeParams))...)
	}
	for _, tp := range tps {
		b.tps[tp] = t.Text(tp)
		b.tmpl.TypeParams = append(b.tmpl.TypeParams, tp)
	}
	switch {
	case recv != ast.NoNodeID:
		b.tmpl.HasReceiver = true
		b.tmpl.ReceiverName = decapitalize(t.Text(recv))
	case b.owner != ast.NoNodeID && t.Kind(b.decl) != ast.KindConstructor:
		b.tmpl.HasReceiver = true
		b.tmpl.ReceiverName = decapitalize(t.Text(b.owner))
	}

	// анализ на исходных узлах: после копирования разрешение имён недоступно
	roots := slices.Clone(stmts)
	if main != ast.NoNodeID {
		roots = append(roots, main)
	}
	if delegation != ast.NoNodeID {
		roots = append(roots, delegation)
	}
	for _, p := range t.Children(params) {
		roots = append(roots, t.Child(p, ast.ParamType), t.Child(p, ast.ParamDefault))
	}
	for _, r := range roots {
		b.analyze(r)
		if b.err != nil {
			return nil, b.err
		}
	}

	rec := &copyRecorder{m: make(map[ast.NodeID]ast.NodeID)}
	t.AddObserver(rec)
	body := t.NewBlock()
	for _, s := range stmts {
		t.Append(body, t.Copy(s))
	}
	var mainCopy ast.NodeID
	switch {
	case main != ast.NoNodeID:
		mainCopy = t.Copy(main)
		t.Append(body, mainCopy)
	case delegation != ast.NoNodeID:
		mainCopy = b.constructorCall(delegation)
		t.Append(body, mainCopy)
	}
	for _, p := range t.Children(params) {
		tp := TemplateParam{Name: t.Text(p), Decl: p, Vararg: t.Has(p, ast.FlagVararg)}
		if d := t.Child(p, ast.ParamDefault); d != ast.NoNodeID {
			tp.defaults = t.NewBlock(t.Copy(d))
		}
		if typ := t.Child(p, ast.ParamType); typ != ast.NoNodeID {
			tp.typ = t.NewBlock(t.Copy(typ))
		}
		b.tmpl.Params = append(b.tmpl.Params, tp)
	}
	if name, ok := b.params[b.decl]; ok {
		b.tmpl.Params = append(b.tmpl.Params, TemplateParam{Name: name, Decl: b.decl})
	}
	t.RemoveObserver(rec)

	for _, orig := range slices.Sorted(maps.Keys(b.plan)) {
		cp, ok := rec.m[orig]
		if !ok {
			continue
		}
		for _, a := range b.plan[orig] {
			b.apply(cp, a)
		}
	}
	b.moveTrailingLambdas(body)
	for _, p := range b.tmpl.Params {
		b.moveTrailingLambdas(p.defaults)
	}
	b.detachComments(body)

	if b.e.opts.Mapper != nil && mainCopy != ast.NoNodeID && t.Kind(b.decl) != ast.KindLambda {
		if m := b.e.opts.Mapper(t, mainCopy); m != mainCopy && m != ast.NoNodeID {
			if t.Parent(m) != body {
				t.Replace(mainCopy, m)
			}
			mainCopy = m
		}
	}

	b.tmpl.body = body
	b.tmpl.Main = mainCopy
	for _, s := range t.Children(body) {
		if s != mainCopy {
			b.tmpl.StatementsBefore = append(b.tmpl.StatementsBefore, s)
		}
	}
	if !extra.empty() {
		b.tmpl.ExtraComments = extra
	}
	b.tmpl.markers = b.marks
	return b.tmpl, nil
}

// splitBlock separates a block body into leading statements and the value
// of its final return. ok is false when the block returns anywhere else.
func (b *builder) splitBlock(body ast.NodeID, extra *Comments) (stmts []ast.NodeID, main ast.NodeID, ok bool) {
	t := b.t
	all := t.Children(body)
	if n := t.Node(body); len(n.Trailing) > 0 {
		extra.Trailing = append(extra.Trailing, n.Trailing...)
	}
	returns := b.ownReturns(body)
	switch len(returns) {
	case 0:
		return slices.Clone(all), ast.NoNodeID, true
	case 1:
		last := all[len(all)-1]
		if returns[0] != last {
			return nil, ast.NoNodeID, false
		}
		n := t.Node(last)
		extra.Leading = append(extra.Leading, n.Leading...)
		extra.Trailing = append(extra.Trailing, n.Trailing...)
		return slices.Clone(all[:len(all)-1]), t.Child(last, 0), true
	}
	return nil, ast.NoNodeID, false
}

// ownReturns collects the returns that leave the declaration itself.
func (b *builder) ownReturns(body ast.NodeID) []ast.NodeID {
	t := b.t
	var out []ast.NodeID
	t.Walk(body, func(n ast.NodeID) bool {
		switch t.Kind(n) {
		case ast.KindLambda, ast.KindFun, ast.KindClass:
			return n == body
		case ast.KindReturn:
			label := t.Text(n)
			if label == "" && t.Kind(b.decl) != ast.KindLambda || label != "" && label == b.label() {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

func (b *builder) isOwnParam(d ast.NodeID) bool {
	_, ok := b.params[d]
	return ok
}

// ownsReceiver reports whether an implicit or explicit receiver provided by
// x is the receiver of the inlined declaration.
func (b *builder) ownsReceiver(x ast.NodeID) bool {
	if x == ast.NoNodeID {
		return false
	}
	if x == b.decl {
		return true
	}
	return x == b.owner && b.t.Kind(b.decl) != ast.KindConstructor
}

func (b *builder) add(n ast.NodeID, a action) {
	b.plan[n] = append(b.plan[n], a)
}

func (b *builder) addImport(d ast.NodeID) {
	if qn, ok := b.o.QualifiedName(d); ok && !slices.Contains(b.tmpl.ImportsToAdd, qn) {
		b.tmpl.ImportsToAdd = append(b.tmpl.ImportsToAdd, qn)
	}
}

// external reports whether d is a top-level declaration that a call site
// cannot see without qualification or an import.
func (b *builder) external(d ast.NodeID) bool {
	return d != ast.NoNodeID && b.o.IsTopLevel(d) && !b.o.IsPrelude(d) && b.o.PackageOf(d) != ""
}

func (b *builder) analyze(root ast.NodeID) {
	t := b.t
	t.Walk(root, func(n ast.NodeID) bool {
		if b.err != nil {
			return false
		}
		switch t.Kind(n) {
		case ast.KindName, ast.KindStringRef, ast.KindCallableRef:
			b.analyzeRef(n)
		case ast.KindBinary:
			if t.Node(n).Op == token.Ident {
				if d := b.o.Resolve(n); d == b.decl {
					b.recursive(n)
				} else if b.external(d) && b.o.IsExtension(d) {
					b.addImport(d)
				}
			}
		case ast.KindThis:
			if b.ownsReceiver(b.o.Resolve(n)) {
				b.add(n, action{kind: actReceiverThis})
			}
		case ast.KindTypeRef:
			b.analyzeType(n)
		case ast.KindCall, ast.KindDelegation:
			b.analyzeCall(n)
		}
		return true
	})
}

func (b *builder) recursive(at ast.NodeID) {
	b.err = &RefusalError{Code: diag.InlineRecursive, Span: spanOf(b.t, at), Reason: fmt.Sprintf("%s calls itself", b.name())}
}

func (b *builder) analyzeRef(n ast.NodeID) {
	t := b.t
	r := b.o.ResolveFull(n)
	d := r.Decl
	switch {
	case d == ast.NoNodeID:
		return
	case b.isOwnParam(d):
		if t.Kind(n) != ast.KindCallableRef {
			b.add(n, action{kind: actParam, name: b.params[d]})
		}
	case d == b.decl:
		b.recursive(n)
	case b.ownsReceiver(r.ImplicitReceiver):
		if b.external(d) && b.o.IsExtension(d) {
			b.addImport(d)
		}
		if t.Kind(n) != ast.KindCallableRef {
			b.add(n, action{kind: actImplicitReceiver})
		}
	case b.external(d):
		if _, sel := selectorOf(t, calleeSite(t, n)); sel && t.Kind(n) == ast.KindName {
			if b.o.IsExtension(d) {
				b.addImport(d)
			}
			return
		}
		if b.o.IsExtension(d) || t.Kind(n) != ast.KindName {
			b.addImport(d)
			return
		}
		b.add(n, action{kind: actQualify, name: b.o.PackageOf(d)})
	}
}

func (b *builder) analyzeType(n ast.NodeID) {
	d := b.o.Resolve(n)
	if name, ok := b.tps[d]; ok {
		b.add(n, action{kind: actTypeParam, name: name})
		return
	}
	if b.t.Kind(d) == ast.KindClass && b.external(d) && !containsDot(b.t.Text(n)) {
		qn, _ := b.o.QualifiedName(d)
		b.add(n, action{kind: actQualifyType, name: qn})
	}
}

func containsDot(s string) bool { return slices.Contains([]byte(s), '.') }

func (b *builder) analyzeCall(n ast.NodeID) {
	t := b.t
	info, ok := b.o.ResolveCall(n)
	if !ok {
		return
	}
	if info.Callee == b.decl {
		b.recursive(n)
		return
	}
	for _, m := range info.Params {
		for _, a := range m.Args {
			b.add(a, action{kind: actArgParam, name: t.Text(m.Param), ref: t.Child(m.Param, ast.ParamDefault)})
		}
	}
	if t.Kind(n) != ast.KindCall || t.Child(n, ast.CallTypeArgs) != ast.NoNodeID || len(b.tps) == 0 {
		return
	}
	types, ok := b.o.InferTypeArgs(n)
	if !ok || len(types) == 0 || slices.Contains(types, nil) {
		return
	}
	if slices.ContainsFunc(types, func(ty *sema.Type) bool { return mentions(ty, b.tps) }) {
		b.add(n, action{kind: actTypeArgs, types: types})
	}
}

// constructorCall builds `Class(args)` from a `this(args)` delegation.
func (b *builder) constructorCall(delegation ast.NodeID) ast.NodeID {
	t := b.t
	args := t.Copy(t.Child(delegation, 0))
	if args == ast.NoNodeID {
		args = t.NewList(ast.KindArgs)
	}
	call := t.New(ast.Node{Kind: ast.KindCall, Children: []ast.NodeID{t.NewName(t.Text(b.owner)), ast.NoNodeID, args, ast.NoNodeID}})
	if b.external(b.owner) {
		return t.NewDot(qualifiedExpr(t, b.o.PackageOf(b.owner)), call, false)
	}
	return call
}

func (b *builder) apply(cp ast.NodeID, a action) {
	t := b.t
	switch a.kind {
	case actParam:
		b.marks.Add(b.expandStringRef(cp), Marker{Kind: MarkParam, Name: a.name})
	case actReceiverThis:
		t.SetText(cp, "")
		b.marks.Add(cp, Marker{Kind: MarkReceiver})
	case actImplicitReceiver:
		n := b.expandStringRef(cp)
		this := t.New(ast.Node{Kind: ast.KindThis})
		b.marks.Add(this, Marker{Kind: MarkReceiver})
		wrapIn(t, calleeSite(t, n), func(x ast.NodeID) ast.NodeID { return t.NewDot(this, x, false) })
	case actQualify:
		n := b.expandStringRef(cp)
		wrapIn(t, calleeSite(t, n), func(x ast.NodeID) ast.NodeID {
			return t.NewDot(qualifiedExpr(t, a.name), x, false)
		})
	case actQualifyType:
		t.SetText(cp, a.name)
	case actTypeParam:
		b.marks.Add(cp, Marker{Kind: MarkTypeParam, Name: a.name})
	case actArgParam:
		b.marks.Add(cp, Marker{Kind: MarkArgParam, Name: a.name, Ref: a.ref})
	case actTypeArgs:
		args := make([]ast.NodeID, 0, len(a.types))
		for _, ty := range a.types {
			args = append(args, b.typeArg(ty))
		}
		ta := t.NewList(ast.KindTypeArgs, args...)
		t.SetChild(cp, ast.CallTypeArgs, ta)
		b.marks.Add(ta, Marker{Kind: MarkInsertedTypeArgs})
	}
}

// typeArg builds a type argument node, marking the declaration's own type
// parameters so that the binder substitutes them.
func (b *builder) typeArg(ty *sema.Type) ast.NodeID {
	t := b.t
	n := typeNode(t, b.o, ty)
	t.Walk(n, func(x ast.NodeID) bool {
		if t.Kind(x) != ast.KindTypeRef {
			return true
		}
		for tp, name := range b.tps {
			if t.Text(x) == name && t.Text(tp) == name {
				b.marks.Add(x, Marker{Kind: MarkTypeParam, Name: name})
			}
		}
		return true
	})
	return n
}

// expandStringRef turns `$name` into `${name}` so that the name can be
// rewritten; other nodes are returned as is.
func (b *builder) expandStringRef(n ast.NodeID) ast.NodeID {
	return expandStringRef(b.t, n)
}

// moveTrailingLambdas puts trailing lambdas of calls under root into the
// argument list, so that substitution never produces a lambda in a
// position where call sugar is not allowed.
func (b *builder) moveTrailingLambdas(root ast.NodeID) {
	t := b.t
	for _, call := range t.Collect(root, func(n ast.NodeID) bool {
		return t.Kind(n) == ast.KindCall && t.Child(n, ast.CallLambda) != ast.NoNodeID
	}) {
		lambda := t.Child(call, ast.CallLambda)
		t.SetChild(call, ast.CallLambda, ast.NoNodeID)
		arg := t.NewArg("", lambda)
		t.Append(t.Child(call, ast.CallArgs), arg)
		t.SetFlag(call, ast.FlagNoParens, false)
		if mk, ok := b.marks.Get(lambda, MarkArgParam); ok {
			b.marks.Remove(lambda, MarkArgParam)
			b.marks.Add(arg, mk)
		}
		b.marks.Add(arg, Marker{Kind: MarkTrailingLambda})
	}
}

// detachComments moves comments of the top-level statements into markers.
func (b *builder) detachComments(body ast.NodeID) {
	t := b.t
	for _, s := range t.Children(body) {
		n := t.Node(s)
		if len(n.Leading) == 0 && len(n.Trailing) == 0 {
			continue
		}
		c := &Comments{Leading: n.Leading, Trailing: n.Trailing}
		t.SetComments(s, nil, nil)
		b.marks.Add(s, Marker{Kind: MarkComments, Comments: c})
	}
}

// isValueStatement reports whether a statement can be the value of a block.
func isValueStatement(t *ast.Tree, s ast.NodeID) bool {
	switch t.Kind(s) {
	case ast.KindProperty, ast.KindFun, ast.KindClass, ast.KindAssign,
		ast.KindWhile, ast.KindDoWhile, ast.KindFor:
		return false
	}
	return true
}
