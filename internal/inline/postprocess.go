package inline

import (
	"errors"
	"slices"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/sema"
)

// PostProcess runs the enabled clean-up passes over the range of r, in order.
func (e *Engine) PostProcess(r *Result) {
	p := e.opts.Passes
	if p.RestoreComments {
		e.restoreComments(r)
	}
	if p.NamedArguments {
		e.namedArguments(r)
	}
	if p.TrailingLambdas && r.Shape == ShapePlainExpression {
		e.trailingLambdas(r)
	}
	if p.DropDefaultArguments {
		e.dropDefaults(r)
	}
	if p.RedundantLambdas {
		e.redundantLambdas(r)
	}
	if p.SimplifySpreads {
		e.simplifySpreads(r)
	}
	if p.RedundantTypeArguments {
		e.redundantTypeArgs(r)
	}
	if p.RedundantUnit {
		e.redundantUnit(r)
	}
	e.unwrapAdded(r)
}

// collect returns the nodes under the range of r satisfying pred, in pre-order.
func (e *Engine) collect(r *Result, pred func(ast.NodeID) bool) []ast.NodeID {
	var out []ast.NodeID
	for _, n := range r.Nodes() {
		out = append(out, e.tree.Collect(n, pred)...)
	}
	return out
}

func (e *Engine) restoreComments(r *Result) {
	t := e.tree
	m := r.code.markers
	nodes := r.Nodes()
	for _, n := range e.collect(r, func(id ast.NodeID) bool { return m.Has(id, MarkComments) }) {
		mk, _ := m.Get(n, MarkComments)
		m.Remove(n, MarkComments)
		if mk.Comments.empty() {
			continue
		}
		stmt, _ := t.StatementOf(n)
		if stmt == ast.NoNodeID {
			stmt = n
		}
		attachComments(t, stmt, mk.Comments.Leading, mk.Comments.Trailing)
	}
	if extra := r.code.ExtraComments; !extra.empty() && len(nodes) > 0 {
		first, last := nodes[0], nodes[len(nodes)-1]
		if s, _ := t.StatementOf(first); s != ast.NoNodeID {
			first = s
		}
		if s, _ := t.StatementOf(last); s != ast.NoNodeID {
			last = s
		}
		attachComments(t, first, extra.Leading, nil)
		attachComments(t, last, nil, extra.Trailing)
	}
}

func attachComments(t *ast.Tree, id ast.NodeID, leading, trailing []ast.Comment) {
	if len(leading) == 0 && len(trailing) == 0 {
		return
	}
	n := t.Node(id)
	l := append(slices.Clone(leading), n.Leading...)
	tr := append(slices.Clone(n.Trailing), trailing...)
	t.SetComments(id, l, tr)
}

// droppable reports whether arg passes a value equal to the default of
// its parameter.
func droppable(t *ast.Tree, m *Markers, arg ast.NodeID) bool {
	if t.Kind(arg) != ast.KindArg || t.Has(arg, ast.FlagSpread) {
		return false
	}
	mk, ok := m.Get(arg, MarkArgParam)
	if !ok || mk.Ref == ast.NoNodeID {
		return false
	}
	v := t.Child(arg, 0)
	return m.Has(v, MarkDefaultValue) && t.Equal(v, mk.Ref)
}

// namedArguments names the positional arguments that follow a droppable
// one, so that dropping it keeps the call valid.
func (e *Engine) namedArguments(r *Result) {
	t := e.tree
	m := r.code.markers
	for _, call := range e.collect(r, func(id ast.NodeID) bool { return t.Kind(id) == ast.KindCall }) {
		args := slices.Clone(t.Children(t.Child(call, ast.CallArgs)))
		first := slices.IndexFunc(args, func(a ast.NodeID) bool { return droppable(t, m, a) })
		if first < 0 || !distinctParams(m, args) {
			continue
		}
		rest := args[first+1:]
		ok := true
		for i, a := range rest {
			if t.Text(a) != "" {
				continue
			}
			lastLambda := i == len(rest)-1 && m.Has(a, MarkTrailingLambda)
			if _, has := m.Get(a, MarkArgParam); !has && !lastLambda || t.Has(a, ast.FlagSpread) {
				ok = false
			}
		}
		if !ok {
			continue
		}
		for i, a := range rest {
			if t.Text(a) != "" || i == len(rest)-1 && m.Has(a, MarkTrailingLambda) {
				continue
			}
			mk, _ := m.Get(a, MarkArgParam)
			t.SetText(a, mk.Name)
			m.Add(a, Marker{Kind: MarkNamedArg, Name: mk.Name})
		}
	}
}

// distinctParams reports whether no two arguments go to the same (vararg) parameter.
func distinctParams(m *Markers, args []ast.NodeID) bool {
	seen := make(map[string]bool)
	for _, a := range args {
		if mk, ok := m.Get(a, MarkArgParam); ok {
			if seen[mk.Name] {
				return false
			}
			seen[mk.Name] = true
		}
	}
	return true
}

// trailingLambdas moves lambdas that were trailing at the call site back
// out of the argument list.
func (e *Engine) trailingLambdas(r *Result) {
	t := e.tree
	m := r.code.markers
	for _, arg := range e.collect(r, func(id ast.NodeID) bool { return m.Has(id, MarkTrailingLambda) }) {
		args := t.Parent(arg)
		call := t.Parent(args)
		if t.Kind(call) != ast.KindCall || t.Child(call, ast.CallLambda) != ast.NoNodeID {
			continue
		}
		if t.Text(arg) != "" || t.Has(arg, ast.FlagSpread) || t.IndexInParent(arg) != len(t.Children(args))-1 {
			continue
		}
		lambda := t.Child(arg, 0)
		if t.Kind(lambda) != ast.KindLambda {
			continue
		}
		m.Remove(arg, MarkTrailingLambda)
		t.Delete(arg)
		t.SetChild(call, ast.CallLambda, lambda)
		if len(t.Children(args)) == 0 {
			t.SetFlag(call, ast.FlagNoParens, true)
		}
	}
}

// dropDefaults removes arguments equal to the default value of their
// parameter when no positional argument follows them.
func (e *Engine) dropDefaults(r *Result) {
	t := e.tree
	m := r.code.markers
	for _, call := range e.collect(r, func(id ast.NodeID) bool { return t.Kind(id) == ast.KindCall }) {
		args := slices.Clone(t.Children(t.Child(call, ast.CallArgs)))
		if !distinctParams(m, args) {
			continue
		}
		for i := len(args) - 1; i >= 0; i-- {
			a := args[i]
			if !droppable(t, m, a) {
				if t.Text(a) == "" {
					break
				}
				continue
			}
			t.Delete(a)
		}
		if len(t.Children(t.Child(call, ast.CallArgs))) == 0 && t.Child(call, ast.CallLambda) != ast.NoNodeID {
			t.SetFlag(call, ast.FlagNoParens, true)
		}
	}
}

var errJumpMismatch = errors.New("non-local jump changes its target")

// redundantLambdas inlines lambdas that are called in place: `{ x -> f(x) }(a)`.
func (e *Engine) redundantLambdas(r *Result) {
	t := e.tree
	m := r.code.markers
	calls := e.collect(r, func(id ast.NodeID) bool {
		return t.Kind(id) == ast.KindCall && t.Child(id, ast.CallTypeArgs) == ast.NoNodeID &&
			t.Kind(t.Unparen(t.Child(id, ast.CallCallee))) == ast.KindLambda
	})
	// внутренние вызовы раньше внешних
	slices.Reverse(calls)
	for _, call := range calls {
		if !t.IsAttached(call) {
			continue
		}
		cp := t.Checkpoint()
		snap := m.snapshot()
		err := e.inlineLambdaCall(r, call)
		if err == nil && !e.jumpsKeepTargets(r) {
			err = errJumpMismatch
		}
		if err != nil {
			t.Rollback(cp)
			m.restore(snap)
			if errors.Is(err, errJumpMismatch) {
				diag.ReportWarning(e.reporter(), diag.InlineNonLocalJump, spanOf(t, call),
					"lambda call left in place: a break or continue in it would jump to another loop").Emit()
			}
			continue
		}
		t.Commit(cp)
	}
}

func (e *Engine) inlineLambdaCall(r *Result, call ast.NodeID) error {
	t := e.tree
	lambda := t.Unparen(t.Child(call, ast.CallCallee))
	nargs := len(t.Children(sema.ArgsList(t, call)))
	if t.Child(call, ast.CallLambda) != ast.NoNodeID {
		nargs++
	}
	tmpl, err := e.prepare(lambda, nargs)
	if err != nil {
		return err
	}
	site := &UsageSite{Shape: ShapePlainExpression, Element: call, Call: call, Ref: lambda}
	code, err := e.Bind(tmpl, site)
	if err != nil {
		return err
	}
	defer func() {
		code.markers.Reset()
		code.markers.Close()
	}()
	inner, err := e.Splice(code)
	if err != nil {
		return err
	}
	e.unwrapAdded(inner)
	r.ptrs = append(r.ptrs, inner.ptrs...)
	for _, imp := range code.ImportsToAdd {
		if !slices.Contains(r.code.ImportsToAdd, imp) {
			r.code.ImportsToAdd = append(r.code.ImportsToAdd, imp)
		}
	}
	return nil
}

// jumpsKeepTargets reports whether every marked jump in the range still
// leaves to the loop it left at the call site.
func (e *Engine) jumpsKeepTargets(r *Result) bool {
	t := e.tree
	m := r.code.markers
	for _, j := range e.collect(r, func(id ast.NodeID) bool {
		k := t.Kind(id)
		return (k == ast.KindBreak || k == ast.KindContinue) && m.Has(id, MarkJump)
	}) {
		mk, _ := m.Get(j, MarkJump)
		if !m.hasToken(jumpTarget(t, j), mk.Token) {
			return false
		}
	}
	return true
}

// simplifySpreads turns `*arrayOf(a, b)` arguments built for varargs back into `a, b`.
func (e *Engine) simplifySpreads(r *Result) {
	t := e.tree
	m := r.code.markers
	for _, arg := range e.collect(r, func(id ast.NodeID) bool {
		return t.Kind(id) == ast.KindArg && t.Has(id, ast.FlagSpread) && t.Text(id) == "" && m.Has(t.Child(id, 0), MarkSpread)
	}) {
		if !t.IsAttached(arg) {
			continue
		}
		arr := t.Child(arg, 0)
		elems := slices.Clone(t.Children(t.Child(arr, ast.CallArgs)))
		at := t.IndexInParent(arg)
		list := t.Parent(arg)
		t.Delete(arg)
		for i, el := range elems {
			t.Insert(list, at+i, el)
		}
	}
}

// redundantTypeArgs removes type arguments made explicit by the template
// builder when the call infers the same ones.
func (e *Engine) redundantTypeArgs(r *Result) {
	t := e.tree
	m := r.code.markers
	for _, ta := range e.collect(r, func(id ast.NodeID) bool { return m.Has(id, MarkInsertedTypeArgs) }) {
		call := t.Parent(ta)
		if t.Kind(call) != ast.KindCall {
			continue
		}
		inferred, ok := e.oracle.InferTypeArgs(call)
		explicit := t.Children(ta)
		if !ok || len(inferred) != len(explicit) {
			continue
		}
		same := true
		for i, x := range explicit {
			if inferred[i] == nil || !sema.Same(inferred[i], e.oracle.TypeFromRef(x)) {
				same = false
				break
			}
		}
		if same {
			t.Delete(ta)
		}
	}
}

// redundantUnit removes `Unit` statements whose value nobody reads.
func (e *Engine) redundantUnit(r *Result) {
	t := e.tree
	for _, u := range e.collect(r, func(id ast.NodeID) bool {
		return t.Kind(id) == ast.KindName && t.Text(id) == "Unit" && t.Kind(t.Parent(id)) == ast.KindBlock
	}) {
		blk := t.Parent(u)
		stmts := t.Children(blk)
		if stmts[len(stmts)-1] == u && e.oracle.UsedAsExpression(u) {
			continue
		}
		t.Delete(u)
	}
}

// unwrapAdded removes braces, block bodies and run calls added by the
// splicer that turned out to hold a single expression.
func (e *Engine) unwrapAdded(r *Result) {
	t := e.tree
	for i := len(r.added) - 1; i >= 0; i-- {
		a := r.added[i]
		n := a.node.Get()
		if n == ast.NoNodeID {
			continue
		}
		switch a.kind {
		case addedBraces:
			stmts := t.Children(n)
			if t.Kind(n) != ast.KindBlock || len(stmts) != 1 {
				continue
			}
			switch t.Kind(stmts[0]) {
			case ast.KindProperty, ast.KindFun, ast.KindClass:
			default:
				t.Replace(n, stmts[0])
			}
		case addedBody:
			e.unwrapBody(n, a.retType)
		case addedRun:
			lambda := t.Child(n, ast.CallLambda)
			stmts := t.Children(t.Child(lambda, ast.LambdaBlock))
			if len(stmts) == 1 && isValueStatement(t, stmts[0]) && t.Kind(stmts[0]) != ast.KindReturn {
				replaceExpr(t, n, stmts[0])
			}
		}
	}
}

func (e *Engine) unwrapBody(owner ast.NodeID, retType bool) {
	t := e.tree
	slot := ast.FunBody
	if t.Kind(owner) == ast.KindGetter {
		slot = 0
	}
	blk := t.Child(owner, slot)
	stmts := t.Children(blk)
	if len(stmts) != 1 || len(t.Node(blk).Trailing) > 0 {
		return
	}
	s := stmts[0]
	var value ast.NodeID
	switch {
	case t.Kind(s) == ast.KindReturn && t.Text(s) == "" && t.Child(s, 0) != ast.NoNodeID:
		value = t.Child(s, 0)
	case t.Kind(s) != ast.KindReturn && isValueStatement(t, s):
		value = s
	default:
		return
	}
	t.SetComments(value, append(slices.Clone(t.Node(s).Leading), t.Node(value).Leading...), append(slices.Clone(t.Node(value).Trailing), t.Node(s).Trailing...))
	t.Replace(blk, value)
	t.SetFlag(owner, ast.FlagExprBody, true)
	if retType {
		if t.Kind(owner) == ast.KindFun {
			t.SetChild(owner, ast.FunRetType, ast.NoNodeID)
		} else {
			t.SetChild(t.Parent(owner), ast.PropType, ast.NoNodeID)
		}
	}
}
