package inline

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/format"
	"splice/internal/sema"
	"splice/internal/token"
)

// Binding is a value evaluated once, before the inlined code.
type Binding struct {
	Param string // parameter name; empty for the receiver
	Name  string
	// Decl is the `val` statement, or the value itself for a binding kept
	// only for its side effects.
	Decl           ast.NodeID
	Value          ast.NodeID
	ValueType      ast.NodeID
	SideEffectOnly bool

	pos int
}

// MutableCode is a private copy of a template bound to one usage. It is
// detached from the tree until Splice moves it in.
type MutableCode struct {
	Decl                     ast.NodeID
	Site                     *UsageSite
	Main                     ast.NodeID
	ImportsToAdd             []string
	AlwaysKeepMainExpression bool
	ExtraComments            *Comments
	Bindings                 []*Binding
	// Receiver is the binding of the receiver, if it got one.
	Receiver *Binding
	// ReceiverValue is a detached copy of the explicit receiver of a safe call.
	ReceiverValue ast.NodeID

	body    ast.NodeID
	markers *Markers
	tree    *ast.Tree
}

// Markers returns the marker table of the code. It follows copies until
// Finish closes it.
func (c *MutableCode) Markers() *Markers { return c.markers }

// Body returns the detached block holding the statements and the main expression.
func (c *MutableCode) Body() ast.NodeID { return c.body }

// Statements returns the statements evaluated before the main expression.
func (c *MutableCode) Statements() []ast.NodeID {
	var out []ast.NodeID
	for _, s := range c.tree.Children(c.body) {
		if s != c.Main {
			out = append(out, s)
		}
	}
	return out
}

const (
	receiverPos  = -1
	defaultsBase = 1 << 20
	receiverKey  = "this"
)

type argSource struct {
	nodes    []ast.NodeID // Arg nodes or the trailing Lambda
	trailing bool
	pos      int
}

// boundValue is the value of one parameter or of the receiver.
type boundValue struct {
	param    string
	key      string
	pos      int
	explicit bool
	effect   bool
	trailing bool
	value    ast.NodeID
	typ      ast.NodeID // holder of the declared type
	subst    []ast.NodeID
	binding  *Binding
}

type binder struct {
	e      *Engine
	t      *ast.Tree
	o      *sema.Oracle
	tmpl   *CodeTemplate
	site   *UsageSite
	m      *Markers
	body   ast.NodeID
	pend   ast.NodeID // Block of bindings, in decision order
	values []*boundValue
	names  map[string]bool
	fwd    map[ast.NodeID]ast.NodeID
}

func (b *binder) NodeCopied(ast.NodeID, ast.NodeID) {}

func (b *binder) NodeReplaced(old, repl ast.NodeID) { b.fwd[old] = repl }

// current follows replacements of x made while binding.
func (b *binder) current(x ast.NodeID) ast.NodeID {
	for {
		next, ok := b.fwd[x]
		if !ok {
			return x
		}
		x = next
	}
}

// Bind copies tmpl and substitutes the receiver, the arguments and the type
// arguments of site into the copy.
func (e *Engine) Bind(tmpl *CodeTemplate, site *UsageSite) (code *MutableCode, err error) {
	t := e.tree
	m := NewMarkers(t)
	m.seed(tmpl.markers)
	defer func() {
		for id := range tmpl.markers.m {
			delete(m.m, id)
		}
		if p := recover(); p != nil {
			m.Close()
			panic(p)
		}
		if err != nil {
			m.Close()
		}
	}()

	b := &binder{
		e: e, t: t, o: e.oracle, tmpl: tmpl, site: site, m: m,
		body:  t.Copy(tmpl.body),
		pend:  t.NewBlock(),
		names: make(map[string]bool),
		fwd:   make(map[ast.NodeID]ast.NodeID),
	}
	t.AddObserver(b)
	defer t.RemoveObserver(b)
	code = &MutableCode{
		Decl:                     tmpl.Decl,
		Site:                     site,
		ImportsToAdd:             slices.Clone(tmpl.ImportsToAdd),
		AlwaysKeepMainExpression: tmpl.AlwaysKeepMainExpression,
		ExtraComments:            tmpl.ExtraComments,
		body:                     b.body,
		markers:                  m,
		tree:                     t,
	}
	if tmpl.Main != ast.NoNodeID {
		stmts := t.Children(b.body)
		code.Main = stmts[len(stmts)-1]
	}

	args, err := b.arguments()
	if err != nil {
		return nil, err
	}
	for _, src := range args {
		for _, n := range src.nodes {
			b.markJumps(sema.ArgValue(t, n))
		}
	}
	for i := len(tmpl.Params) - 1; i >= 0; i-- {
		if err := b.bindParam(&tmpl.Params[i], args[i], i); err != nil {
			return nil, err
		}
	}
	if tmpl.HasReceiver {
		if code.ReceiverValue, err = b.bindReceiver(); err != nil {
			return nil, err
		}
	}
	b.fixOrder()
	if err := b.substituteTypeParams(); err != nil {
		return nil, err
	}
	// главное выражение могло само оказаться подставленным параметром
	code.Main = b.current(code.Main)

	// привязки в порядке вычисления: receiver, аргументы, значения по умолчанию
	var bs []*Binding
	for _, v := range b.values {
		if v.binding != nil {
			bs = append(bs, v.binding)
		}
	}
	slices.SortStableFunc(bs, func(x, y *Binding) int { return cmp.Compare(x.pos, y.pos) })
	for i, bd := range bs {
		t.Insert(b.body, i, bd.Decl)
		if bd.Param == "" {
			code.Receiver = bd
		}
	}
	code.Bindings = bs
	return code, nil
}

// arguments maps the call-site arguments to the template parameters.
func (b *binder) arguments() ([]argSource, error) {
	t := b.t
	out := make([]argSource, len(b.tmpl.Params))
	call := b.site.Call
	if call == ast.NoNodeID || len(out) == 0 {
		return out, nil
	}
	pos := func(n ast.NodeID) int {
		if t.Kind(n) == ast.KindLambda && t.Child(call, ast.CallLambda) == n {
			return len(t.Children(sema.ArgsList(t, call)))
		}
		if t.Kind(call) == ast.KindBinary {
			return 0
		}
		return t.IndexInParent(n)
	}
	if t.Kind(b.tmpl.Decl) == ast.KindLambda {
		all := slices.Clone(t.Children(sema.ArgsList(t, call)))
		if l := t.Child(call, ast.CallLambda); l != ast.NoNodeID {
			all = append(all, l)
		}
		for i, n := range all {
			if i < len(out) {
				out[i] = argSource{nodes: []ast.NodeID{n}, pos: i, trailing: t.Kind(t.Parent(n)) == ast.KindCall}
			}
		}
		return out, nil
	}
	info, ok := b.o.ResolveCall(call)
	if !ok {
		return nil, &UsageError{Code: diag.InlineUnsupportedUsage, Span: spanOf(t, call), Msg: "cannot match the arguments of the call to the parameters"}
	}
	for i, p := range b.tmpl.Params {
		mp, ok := info.Mapping(p.Decl)
		if !ok || len(mp.Args) == 0 {
			continue
		}
		out[i] = argSource{nodes: mp.Args, trailing: mp.Trailing, pos: pos(mp.Args[0])}
	}
	return out, nil
}

func (b *binder) bindParam(p *TemplateParam, src argSource, idx int) error {
	t := b.t
	v := &boundValue{param: p.Name, key: p.Name, typ: p.typ, pos: src.pos, trailing: src.trailing}
	switch {
	case p.Vararg:
		v.value, v.explicit = b.packVararg(p.Name, src.nodes), len(src.nodes) > 0
		if !v.explicit {
			v.pos = defaultsBase + idx
		}
	case len(src.nodes) > 0:
		v.value, v.explicit = b.callSiteCopy(p.Name, sema.ArgValue(t, src.nodes[0])), true
	case p.HasDefault():
		v.value = t.Copy(t.Child(p.defaults, 0))
		v.pos = defaultsBase + idx
		b.m.Add(v.value, Marker{Kind: MarkDefaultValue, Ref: t.Child(p.Decl, ast.ParamDefault)})
	default:
		return &UsageError{Code: diag.InlineUnsupportedUsage, Span: spanOf(t, b.site.Element), Msg: fmt.Sprintf("no value for parameter %s", p.Name)}
	}
	b.values = append(b.values, v)
	return b.place(v, b.occurrences(MarkParam, p.Name))
}

// bindReceiver substitutes the receiver and returns the copy of an explicit
// safe-call receiver.
func (b *binder) bindReceiver() (ast.NodeID, error) {
	t := b.t
	site := b.site
	v := &boundValue{param: "", key: receiverKey, pos: receiverPos, explicit: true}
	var safeCopy ast.NodeID
	switch {
	case site.Receiver != ast.NoNodeID:
		v.value = b.callSiteCopy(receiverKey, site.Receiver)
		if site.Safe {
			safeCopy = t.Copy(site.Receiver)
		}
	case site.ImplicitReceiver != ast.NoNodeID:
		v.value = implicitThis(b.o, site.Ref, site.ImplicitReceiver)
	default:
		v.value = t.New(ast.Node{Kind: ast.KindThis})
	}
	b.values = append(b.values, v)
	if err := b.place(v, b.occurrences(MarkReceiver, "")); err != nil {
		return ast.NoNodeID, err
	}
	return safeCopy, nil
}

// occurrences returns the placeholders of kind named name in the body and in
// the bindings made so far.
func (b *binder) occurrences(kind MarkerKind, name string) []ast.NodeID {
	var out []ast.NodeID
	for _, root := range []ast.NodeID{b.pend, b.body} {
		if kind == MarkReceiver {
			out = append(out, b.m.Find(root, kind)...)
			continue
		}
		out = append(out, b.m.FindNamed(root, kind, name)...)
	}
	return out
}

// place decides whether v needs a binding and substitutes its occurrences.
// A lambda whose break or continue leaves it cannot be stored in a variable.
func (b *binder) place(v *boundValue, occs []ast.NodeID) error {
	t := b.t
	count := len(occs)
	if v.key == receiverKey && b.site.Safe {
		count++ // проверка на null
	}
	eff := count
	if len(occs) == 1 && b.repeated(occs[0]) {
		eff = 2
	}
	v.effect = b.hasEffects(v.value)
	keep := ShouldKeepValue(t, v.value, eff)
	if !keep && v.effect && len(occs) == 1 {
		keep = b.risky(occs[0]) || b.effectBefore(occs[0], v)
	}
	if !keep && v.effect && b.boundAfter(v.pos) {
		keep = true
	}
	if keep && len(occs) > 0 && b.carriesJump(v.value) {
		return &UsageError{Code: diag.InlineNonLocalJump, Span: spanOf(t, b.site.Element),
			Msg: fmt.Sprintf("value of %s has a break or continue for an outer loop and cannot be stored in a variable", cmp.Or(v.param, receiverKey))}
	}
	switch {
	case keep:
		b.bind(v, occs)
	case len(occs) == 0:
		// значение без эффектов и без использований пропадает
	default:
		for i, occ := range occs {
			x := v.value
			if i < len(occs)-1 {
				x = t.Copy(v.value)
			}
			b.substitute(v, occ, x)
		}
	}
	return nil
}

// carriesJump reports whether x holds a jump tagged by markJumps.
func (b *binder) carriesJump(x ast.NodeID) bool {
	found := false
	b.t.Walk(x, func(n ast.NodeID) bool {
		if !found && b.m.Has(n, MarkJump) {
			if k := b.t.Kind(n); k == ast.KindBreak || k == ast.KindContinue {
				found = true
			}
		}
		return !found
	})
	return found
}

func (b *binder) substitute(v *boundValue, occ, x ast.NodeID) {
	t := b.t
	if v.key == receiverKey {
		b.m.Add(x, Marker{Kind: MarkReceiver})
	}
	if v.trailing && t.Kind(t.Unparen(x)) == ast.KindLambda {
		if arg := t.Parent(occ); t.Kind(arg) == ast.KindArg && t.IndexInParent(arg) == len(t.Children(t.Parent(arg)))-1 {
			b.m.Set(arg, Marker{Kind: MarkTrailingLambda})
		}
	}
	replaceExpr(t, occ, x)
	v.subst = append(v.subst, x)
}

// bindingName returns a name for a new binding, unique among bindings.
func (b *binder) bindingName(base string) string {
	if base == "" {
		base = "receiver"
	}
	name := base
	for i := 1; b.names[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	b.names[name] = true
	return name
}

func (b *binder) bind(v *boundValue, occs []ast.NodeID) {
	t := b.t
	bd := &Binding{Param: v.param, Value: v.value, pos: v.pos}
	if len(occs) == 0 && !(v.key == receiverKey && b.site.Safe) {
		bd.SideEffectOnly = true
		bd.Decl = v.value
	} else {
		base := v.param
		if v.key == receiverKey {
			base = b.tmpl.ReceiverName
		}
		bd.Name = b.bindingName(base)
		if v.typ != ast.NoNodeID && (isNullLiteral(t, v.value) || t.Kind(t.Unparen(v.value)) == ast.KindLambda) {
			bd.ValueType = t.Copy(t.Child(v.typ, 0))
		}
		bd.Decl = t.NewLocal(bd.Name, false, bd.ValueType, v.value)
		for _, occ := range occs {
			ref := t.NewName(bd.Name)
			b.m.Add(ref, Marker{Kind: MarkBinding, Name: bd.Name})
			b.substitute(v, occ, ref)
		}
		v.subst = nil
	}
	b.m.Add(bd.Decl, Marker{Kind: MarkNewDeclaration})
	t.Append(b.pend, bd.Decl)
	v.binding = bd
	if v.effect {
		b.bindEarlier(v.pos)
	}
}

// rebind turns a value substituted once into a binding.
func (b *binder) rebind(v *boundValue) {
	t := b.t
	x := b.current(v.subst[0])
	if !b.t.IsAncestor(b.body, x) && !b.t.IsAncestor(b.pend, x) {
		invariant("substituted value of %s is gone", v.key)
	}
	hole := t.NewName("")
	at := x
	if p := t.Parent(x); t.Kind(p) == ast.KindParen {
		at = p
	}
	t.Replace(at, hole)
	if at != x {
		t.Delete(x)
	}
	b.m.Remove(x, MarkReceiver)
	v.value = x
	v.subst = nil
	b.bind(v, []ast.NodeID{hole})
}

// bindEarlier binds every substituted effectful value that comes before pos
// in evaluation order.
func (b *binder) bindEarlier(pos int) {
	for _, u := range b.values {
		if u.pos < pos && u.effect && u.binding == nil && len(u.subst) == 1 {
			b.rebind(u)
		}
	}
}

func (b *binder) boundAfter(pos int) bool {
	for _, u := range b.values {
		if u.pos > pos && u.effect && u.binding != nil {
			return true
		}
	}
	return false
}

// fixOrder binds substituted values that would run after an effect that
// follows them at the call site.
func (b *binder) fixOrder() {
	for changed := true; changed; {
		changed = false
		for _, v := range b.values {
			if v.effect && v.binding == nil && len(v.subst) == 1 {
				if x := b.current(v.subst[0]); b.effectBefore(x, v) {
					b.rebind(v)
					changed = true
					break
				}
			}
		}
	}
}

// repeated reports whether occ may be evaluated more than once.
func (b *binder) repeated(occ ast.NodeID) bool {
	t := b.t
	child := occ
	for cur := t.Parent(occ); cur != ast.NoNodeID && cur != b.body && cur != b.pend; child, cur = cur, t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindLambda, ast.KindWhile, ast.KindDoWhile:
			return true
		case ast.KindFor:
			if child != t.Child(cur, 1) {
				return true
			}
		}
	}
	return false
}

// risky reports whether occ may be evaluated zero or many times.
func (b *binder) risky(occ ast.NodeID) bool {
	if b.repeated(occ) {
		return true
	}
	t := b.t
	child := occ
	for cur := t.Parent(occ); cur != ast.NoNodeID && cur != b.body && cur != b.pend; child, cur = cur, t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindIf:
			if child != t.Child(cur, ast.IfCond) {
				return true
			}
		case ast.KindWhen:
			if child != t.Child(cur, 0) {
				return true
			}
		case ast.KindBinary:
			switch t.Node(cur).Op {
			case token.AndAnd, token.OrOr, token.Elvis:
				if child == t.Child(cur, 1) {
					return true
				}
			}
		case ast.KindDot:
			if t.Has(cur, ast.FlagSafe) && child == t.Child(cur, 1) {
				return true
			}
		}
	}
	return false
}

// effectBefore reports whether the body evaluates an effect before occ that
// does not belong to a value passed earlier at the call site.
func (b *binder) effectBefore(occ ast.NodeID, v *boundValue) bool {
	t := b.t
	found, done := false, false
	t.Walk(b.body, func(n ast.NodeID) bool {
		if done {
			return false
		}
		if n == occ {
			done = true
			return false
		}
		if t.Kind(n) == ast.KindLambda && !t.IsAncestor(n, occ) {
			return false
		}
		if mk, ok := b.m.Get(n, MarkCallSiteValue); ok {
			if u := b.value(mk.Name); u != nil && u.pos < v.pos {
				return false
			}
		}
		if isEffect(t, b.m, n) && !t.IsAncestor(n, occ) {
			found, done = true, true
			return false
		}
		return true
	})
	return found
}

func (b *binder) value(key string) *boundValue {
	for _, v := range b.values {
		if v.key == key {
			return v
		}
	}
	return nil
}

// isEffect reports whether evaluating n itself, not counting its operands,
// may have an observable effect.
func isEffect(t *ast.Tree, m *Markers, n ast.NodeID) bool {
	switch t.Kind(n) {
	case ast.KindCall:
		return !m.Has(n, MarkSpread)
	case ast.KindAssign, ast.KindThrow, ast.KindReturn, ast.KindBreak, ast.KindContinue, ast.KindDelegation:
		return true
	case ast.KindPrefix, ast.KindPostfix:
		op := t.Node(n).Op
		return op == token.PlusPlus || op == token.MinusMinus
	case ast.KindBinary:
		return t.Node(n).Op == token.Ident
	}
	return false
}

// hasEffects is hasSideEffects that sees through arrays built for varargs.
func (b *binder) hasEffects(x ast.NodeID) bool {
	t := b.t
	if !b.m.Has(x, MarkSpread) {
		return hasSideEffects(t, x)
	}
	for _, a := range t.Children(t.Child(x, ast.CallArgs)) {
		if hasSideEffects(t, t.Child(a, 0)) {
			return true
		}
	}
	return false
}

func (b *binder) callSiteCopy(key string, x ast.NodeID) ast.NodeID {
	c := b.t.Copy(x)
	b.m.Add(c, Marker{Kind: MarkCallSiteValue, Name: key})
	return c
}

// packVararg builds the array passed for a vararg parameter.
func (b *binder) packVararg(key string, args []ast.NodeID) ast.NodeID {
	t := b.t
	if len(args) == 1 && t.Has(args[0], ast.FlagSpread) {
		return b.callSiteCopy(key, sema.ArgValue(t, args[0]))
	}
	elems := make([]ast.NodeID, 0, len(args))
	for _, a := range args {
		arg := t.NewArg("", b.callSiteCopy(key, sema.ArgValue(t, a)))
		if t.Has(a, ast.FlagSpread) {
			t.SetFlag(arg, ast.FlagSpread, true)
		}
		elems = append(elems, arg)
	}
	call := t.NewCall(t.NewName("arrayOf"), ast.NoNodeID, elems...)
	b.m.Add(call, Marker{Kind: MarkSpread})
	return call
}

// markJumps tags break/continue inside lambdas of value that leave the
// lambda, together with the loop they target.
func (b *binder) markJumps(value ast.NodeID) {
	t := b.t
	t.Walk(value, func(n ast.NodeID) bool {
		if t.Kind(n) != ast.KindLambda {
			return true
		}
		lambda := n
		t.Walk(t.Child(lambda, ast.LambdaBlock), func(j ast.NodeID) bool {
			if k := t.Kind(j); k != ast.KindBreak && k != ast.KindContinue {
				return true
			}
			loop := jumpTarget(t, j)
			if loop == ast.NoNodeID || t.IsAncestor(lambda, loop) {
				return true
			}
			tok := b.e.nextToken()
			b.m.Add(j, Marker{Kind: MarkJump, Token: tok})
			b.m.Add(loop, Marker{Kind: MarkJump, Token: tok})
			return true
		})
		return false
	})
}

// jumpTarget returns the loop a break or continue leaves.
func jumpTarget(t *ast.Tree, jump ast.NodeID) ast.NodeID {
	label := t.Text(jump)
	for cur := t.Parent(jump); cur != ast.NoNodeID; cur = t.Parent(cur) {
		k := t.Kind(cur)
		if k.IsLoop() && (label == "" || t.Node(cur).Alt == label) {
			return cur
		}
		if k == ast.KindFun || k == ast.KindClass {
			return ast.NoNodeID
		}
	}
	return ast.NoNodeID
}

// typeArguments returns the types bound to the template's type parameters
// at the usage, by name. Unknown types are missing.
func (b *binder) typeArguments() map[string]*sema.Type {
	t, o := b.t, b.o
	out := make(map[string]*sema.Type)
	if len(b.tmpl.TypeParams) == 0 {
		return out
	}
	own := b.tmpl.Decl
	if t.Kind(own) == ast.KindConstructor {
		own = t.Ancestor(own, ast.KindClass)
	}
	var ownTPs []ast.NodeID
	for _, tp := range b.tmpl.TypeParams {
		if t.Parent(t.Parent(tp)) == own {
			ownTPs = append(ownTPs, tp)
		}
	}
	call := b.site.Call
	switch t.Kind(call) {
	case ast.KindCall, ast.KindBinary:
		if ta := t.Child(call, ast.CallTypeArgs); t.Kind(call) == ast.KindCall && ta != ast.NoNodeID {
			for i, a := range t.Children(ta) {
				if i < len(ownTPs) {
					out[t.Text(ownTPs[i])] = o.TypeFromRef(a)
				}
			}
			break
		}
		for tp, ty := range o.TypeParamBindings(call) {
			if ty != nil && slices.Contains(b.tmpl.TypeParams, tp) {
				out[t.Text(tp)] = ty
			}
		}
	}
	owner := t.Ancestor(b.tmpl.Decl, ast.KindClass)
	if owner == ast.NoNodeID {
		return out
	}
	classTPs := t.Children(t.Child(owner, ast.ClassTypeParams))
	switch {
	case b.site.Receiver != ast.NoNodeID:
		rt := o.TypeOf(b.site.Receiver)
		if rt == nil || rt.Decl != owner {
			break
		}
		for i, tp := range classTPs {
			if _, done := out[t.Text(tp)]; !done && i < len(rt.Args) && rt.Args[i] != nil {
				out[t.Text(tp)] = rt.Args[i]
			}
		}
	case b.site.ImplicitReceiver == owner:
		for _, tp := range classTPs {
			if _, done := out[t.Text(tp)]; !done {
				out[t.Text(tp)] = &sema.Type{Name: t.Text(tp), Decl: tp}
			}
		}
	}
	return out
}

func (b *binder) substituteTypeParams() error {
	t := b.t
	types := b.typeArguments()
	for _, root := range []ast.NodeID{b.pend, b.body} {
		for _, n := range b.m.Find(root, MarkTypeParam) {
			if !t.IsAncestor(root, n) {
				continue
			}
			mk, _ := b.m.Get(n, MarkTypeParam)
			if ty, ok := types[mk.Name]; ok {
				b.replaceType(n, ty)
				continue
			}
			if ta := t.Ancestor(n, ast.KindTypeArgs); ta != ast.NoNodeID && b.m.Has(ta, MarkInsertedTypeArgs) {
				t.Delete(ta)
				continue
			}
			if p := t.Parent(n); t.Kind(p) == ast.KindProperty && t.Child(p, ast.PropType) == n && t.Kind(t.Parent(p)) == ast.KindBlock {
				t.Delete(n)
				continue
			}
			return &UsageError{Code: diag.InlineUnsupportedUsage, Span: spanOf(t, b.site.Element),
				Msg: fmt.Sprintf("cannot infer type argument %s", mk.Name)}
		}
	}
	return nil
}

func (b *binder) replaceType(n ast.NodeID, ty *sema.Type) {
	t := b.t
	repl := typeNode(t, b.o, ty)
	if t.Has(n, ast.FlagNullable) && t.Kind(repl) != ast.KindStar {
		t.SetFlag(repl, ast.FlagNullable, true)
	}
	if t.Kind(t.Parent(n)) == ast.KindClassLit && t.Kind(repl) == ast.KindTypeRef {
		name := t.Text(repl)
		if name != "Array" && name != "kotlin.Array" {
			repl = t.NewTypeRef(name, false)
		} else {
			t.SetFlag(repl, ast.FlagNullable, false)
		}
	}
	t.Replace(n, repl)
}

// replaceExpr puts x where old is, in parentheses when the position needs them.
func replaceExpr(t *ast.Tree, old, x ast.NodeID) ast.NodeID {
	if p := t.Parent(old); format.NeedsParens(t, p, t.IndexInParent(old), x) {
		x = t.NewParen(x)
	}
	t.Replace(old, x)
	return x
}
