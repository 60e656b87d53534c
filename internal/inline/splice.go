package inline

import (
	"slices"
	"strconv"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/sema"
	"splice/internal/token"
)

// Result is the range of nodes that replaced a usage.
type Result struct {
	Shape Shape
	// Empty is set when the usage disappeared without leaving code behind.
	Empty bool

	ptrs  []*ast.Pointer
	added []addedBlock
	code  *MutableCode
	file  ast.NodeID
}

// Nodes returns the current nodes of the range; nodes removed by later
// rewrites are skipped.
func (r *Result) Nodes() []ast.NodeID {
	var out []ast.NodeID
	for _, p := range r.ptrs {
		if id := p.Get(); id != ast.NoNodeID && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// File returns the file root the usage belongs to.
func (r *Result) File() ast.NodeID { return r.file }

// Code returns the bound code the range was built from.
func (r *Result) Code() *MutableCode { return r.code }

type addedKind uint8

const (
	addedBraces  addedKind = iota + 1 // block around a single-statement body
	addedBody                         // block body of an expression-bodied function or getter
	addedRun                          // run { } around an expression
)

type addedBlock struct {
	kind    addedKind
	node    *ast.Pointer // Block, Fun/Getter or the run call
	retType bool         // a return type was written for the block body
}

type splicer struct {
	e    *Engine
	t    *ast.Tree
	o    *sema.Oracle
	code *MutableCode
	m    *Markers
	res  *Result
}

// Splice moves bound code into the tree in place of its usage.
func (e *Engine) Splice(code *MutableCode) (*Result, error) {
	s := &splicer{e: e, t: e.tree, o: e.oracle, code: code, m: code.markers,
		res: &Result{Shape: code.Site.Shape, code: code, file: e.tree.FileOf(code.Site.Element)}}
	var err error
	switch code.Site.Shape {
	case ShapeAnnotationArgument:
		err = s.annotation()
	case ShapeSuperConstructorDelegation:
		err = s.superDelegation()
	default:
		err = s.expression()
	}
	if err != nil {
		return nil, err
	}
	s.res.Empty = len(s.res.Nodes()) == 0
	return s.res, nil
}

func (s *splicer) track(id ast.NodeID) {
	if id != ast.NoNodeID {
		s.res.ptrs = append(s.res.ptrs, s.t.Pointer(id))
	}
}

func (s *splicer) expression() error {
	t := s.t
	site := s.code.Site
	elem := site.Element
	if !t.IsAttached(elem) {
		invariant("usage element %d is not in the tree", elem)
	}
	if t.Kind(elem) == ast.KindStringRef {
		elem = expandStringRef(t, elem)
	}
	used := s.o.UsedAsExpression(elem)
	if site.Safe {
		return s.safeCall(elem, used)
	}
	s.place(elem, s.code.Statements(), s.code.Main, used, false)
	return nil
}

// place inserts stmts before the statement containing elem and puts main
// where elem is.
func (s *splicer) place(elem ast.NodeID, stmts []ast.NodeID, main ast.NodeID, used, keepMain bool) {
	t := s.t
	if len(stmts) > 0 {
		anchor := s.anchor(elem)
		s.renameConflicts(anchor, stmts)
		for _, st := range stmts {
			t.InsertBefore(anchor, st)
			s.track(st)
		}
	}
	keep := keepMain || s.code.AlwaysKeepMainExpression
	switch {
	case main == ast.NoNodeID, !used && !keep && !hasSideEffects(t, main):
		if used {
			unit := t.NewUnit()
			replaceExpr(t, elem, unit)
			s.track(unit)
			return
		}
		s.remove(elem)
	case s.mergeString(elem, main):
	default:
		s.track(replaceExpr(t, elem, main))
	}
}

// mergeString splices the parts of a string main into the template that
// contains elem.
func (s *splicer) mergeString(elem, main ast.NodeID) bool {
	t := s.t
	inner := t.Unparen(main)
	entry := t.Parent(elem)
	outer := t.Parent(entry)
	if t.Kind(inner) != ast.KindString || t.Kind(entry) != ast.KindStringExpr || t.Kind(outer) != ast.KindString {
		return false
	}
	if t.Has(inner, ast.FlagRaw) != t.Has(outer, ast.FlagRaw) {
		return false
	}
	at := t.IndexInParent(entry)
	t.Delete(entry)
	for i, part := range slices.Clone(t.Children(inner)) {
		t.Insert(outer, at+i, part)
	}
	mergeTexts(t, outer)
	s.track(outer)
	return true
}

// mergeTexts joins adjacent text chunks of a string template.
func mergeTexts(t *ast.Tree, str ast.NodeID) {
	parts := slices.Clone(t.Children(str))
	for i := len(parts) - 1; i > 0; i-- {
		a, b := parts[i-1], parts[i]
		if t.Kind(a) == ast.KindStringText && t.Kind(b) == ast.KindStringText {
			t.SetText(a, t.Text(a)+t.Text(b))
			t.Delete(b)
		}
	}
}

// remove deletes a usage whose value is not needed.
func (s *splicer) remove(elem ast.NodeID) {
	t := s.t
	x := elem
	for t.Kind(t.Parent(x)) == ast.KindParen {
		x = t.Parent(x)
	}
	p := t.Parent(x)
	switch t.Kind(p) {
	case ast.KindBlock:
		t.Delete(x)
	case ast.KindIf, ast.KindWhile, ast.KindDoWhile, ast.KindFor, ast.KindWhenEntry:
		t.Replace(x, t.NewBlock())
	case ast.KindFun, ast.KindGetter:
		t.Replace(x, t.NewBlock())
		t.SetFlag(p, ast.FlagExprBody, false)
	default:
		unit := t.NewUnit()
		t.Replace(x, unit)
		s.track(unit)
	}
}

// anchor returns the statement before which the leading statements go,
// creating a block when elem is not inside one.
func (s *splicer) anchor(elem ast.NodeID) ast.NodeID {
	t := s.t
	child := elem
	for cur := t.Parent(elem); cur != ast.NoNodeID; child, cur = cur, t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindBlock:
			if s.effectBefore(child, elem) {
				return s.wrapInRun(elem)
			}
			return child
		case ast.KindIf:
			if child != t.Child(cur, ast.IfCond) {
				return s.addBraces(child)
			}
		case ast.KindWhile:
			if child == t.Child(cur, 0) {
				return s.wrapInRun(elem)
			}
			return s.addBraces(child)
		case ast.KindDoWhile:
			if child == t.Child(cur, 1) {
				return s.wrapInRun(elem)
			}
			return s.addBraces(child)
		case ast.KindFor:
			if child == t.Child(cur, 2) {
				return s.addBraces(child)
			}
		case ast.KindWhenEntry:
			if child == t.Child(cur, 1) {
				return s.addBraces(child)
			}
			return s.wrapInRun(elem)
		case ast.KindBinary:
			switch t.Node(cur).Op {
			case token.AndAnd, token.OrOr, token.Elvis:
				if child == t.Child(cur, 1) {
					return s.wrapInRun(elem)
				}
			}
		case ast.KindDot:
			if t.Has(cur, ast.FlagSafe) && child == t.Child(cur, 1) {
				return s.wrapInRun(elem)
			}
		case ast.KindProperty:
			if child != t.Child(cur, ast.PropInit) || t.Kind(t.Parent(cur)) != ast.KindBlock {
				return s.wrapInRun(elem)
			}
		case ast.KindFun:
			if child == t.Child(cur, ast.FunBody) {
				if a, ok := s.blockBody(cur, child, t.Child(cur, ast.FunRetType)); ok {
					return a
				}
			}
			return s.wrapInRun(elem)
		case ast.KindGetter:
			prop := t.Parent(cur)
			if a, ok := s.blockBody(cur, child, t.Child(prop, ast.PropType)); ok {
				return a
			}
			return s.wrapInRun(elem)
		case ast.KindLambda, ast.KindClass, ast.KindClassBody, ast.KindFile, ast.KindParam,
			ast.KindConstructor, ast.KindDelegation, ast.KindSuperCall, ast.KindAnnotation:
			return s.wrapInRun(elem)
		}
	}
	invariant("no statement contains usage %d", elem)
	return ast.NoNodeID
}

// effectBefore reports whether stmt evaluates an effect before elem.
func (s *splicer) effectBefore(stmt, elem ast.NodeID) bool {
	t := s.t
	found, done := false, false
	t.Walk(stmt, func(n ast.NodeID) bool {
		if done {
			return false
		}
		if n == elem {
			done = true
			return false
		}
		if t.Kind(n) == ast.KindLambda && !t.IsAncestor(n, elem) {
			return false
		}
		if isEffect(t, s.m, n) && !t.IsAncestor(n, elem) {
			found, done = true, true
		}
		return !done
	})
	return found
}

// addBraces wraps a single-statement body into a block.
func (s *splicer) addBraces(body ast.NodeID) ast.NodeID {
	t := s.t
	if t.Kind(body) == ast.KindBlock {
		invariant("body %d is already a block", body)
	}
	blk := wrapIn(t, body, func(x ast.NodeID) ast.NodeID { return t.NewBlock(x) })
	s.res.added = append(s.res.added, addedBlock{kind: addedBraces, node: t.Pointer(blk)})
	return body
}

// wrapInRun puts elem into `run { elem }` and returns elem.
func (s *splicer) wrapInRun(elem ast.NodeID) ast.NodeID {
	t := s.t
	call := wrapIn(t, elem, func(x ast.NodeID) ast.NodeID {
		return t.New(ast.Node{Kind: ast.KindCall, Flags: ast.FlagNoParens, Children: []ast.NodeID{
			t.NewName("run"), ast.NoNodeID, t.NewList(ast.KindArgs), t.NewLambda(nil, x),
		}})
	})
	s.res.added = append(s.res.added, addedBlock{kind: addedRun, node: t.Pointer(call)})
	return elem
}

// blockBody turns the expression body of a function or getter into a
// block. ok is false when the body type is unknown and no type is written.
func (s *splicer) blockBody(owner, body, declared ast.NodeID) (ast.NodeID, bool) {
	t := s.t
	unit := t.Text(declared) == "Unit"
	var ty *sema.Type
	if declared == ast.NoNodeID {
		if ty = s.o.TypeOf(body); ty == nil {
			return ast.NoNodeID, false
		}
		unit = ty.Name == "Unit" && !ty.Nullable
	}
	stmt := body
	wrapIn(t, body, func(x ast.NodeID) ast.NodeID {
		if !unit {
			stmt = t.NewReturn("", x)
			return t.NewBlock(stmt)
		}
		return t.NewBlock(x)
	})
	t.SetFlag(owner, ast.FlagExprBody, false)
	ab := addedBlock{kind: addedBody, node: t.Pointer(owner)}
	if declared == ast.NoNodeID && !unit {
		if t.Kind(owner) == ast.KindFun {
			t.SetChild(owner, ast.FunRetType, typeNode(t, s.o, ty))
		} else {
			t.SetChild(t.Parent(owner), ast.PropType, typeNode(t, s.o, ty))
		}
		ab.retType = true
	}
	s.res.added = append(s.res.added, ab)
	return stmt, true
}

// renameConflicts renames declarations introduced by stmts whose names are
// already taken at anchor or are used by values from the call site.
func (s *splicer) renameConflicts(anchor ast.NodeID, stmts []ast.NodeID) {
	t := s.t
	taken := s.o.VisibleNames(anchor)
	for _, v := range s.m.Find(s.code.body, MarkCallSiteValue) {
		t.Walk(v, func(n ast.NodeID) bool {
			if k := t.Kind(n); k == ast.KindName || k == ast.KindStringRef {
				taken[t.Text(n)] = true
			}
			return true
		})
	}
	declared := make(map[string]bool)
	for _, st := range stmts {
		switch t.Kind(st) {
		case ast.KindProperty, ast.KindFun, ast.KindClass:
			declared[t.Text(st)] = true
		}
	}
	for _, st := range stmts {
		switch t.Kind(st) {
		case ast.KindProperty, ast.KindFun, ast.KindClass:
		default:
			continue
		}
		old := t.Text(st)
		if !taken[old] {
			continue
		}
		name := old
		for i := 1; taken[name] || declared[name]; i++ {
			name = old + strconv.Itoa(i)
		}
		taken[name] = true
		declared[name] = true
		s.rename(st, old, name)
	}
}

// rename renames decl and the references to it in the inlined code.
func (s *splicer) rename(decl ast.NodeID, old, name string) {
	t := s.t
	t.SetText(decl, name)
	for _, bd := range s.code.Bindings {
		if bd.Decl == decl {
			bd.Name = name
		}
	}
	t.Walk(s.code.body, func(n ast.NodeID) bool {
		if s.m.Has(n, MarkCallSiteValue) {
			return false
		}
		if k := t.Kind(n); (k == ast.KindName || k == ast.KindStringRef) && t.Text(n) == old {
			if dot, ok := selectorOf(t, calleeSite(t, n)); ok && t.Child(dot, 0) != n {
				return true
			}
			t.SetText(n, name)
			if s.m.Has(n, MarkBinding) {
				s.m.Set(n, Marker{Kind: MarkBinding, Name: name})
			}
		}
		return true
	})
}

// safeCall splices code bound to `r?.f()`.
func (s *splicer) safeCall(elem ast.NodeID, used bool) error {
	t := s.t
	code := s.code
	recv := code.Receiver
	var stmts []ast.NodeID
	for _, st := range code.Statements() {
		if recv == nil || st != recv.Decl {
			stmts = append(stmts, st)
		}
	}
	main := code.Main
	occs := s.m.Find(code.body, MarkReceiver)

	// r?.sel
	if len(stmts) == 0 && main != ast.NoNodeID && len(occs) == 1 {
		if dot := t.Unparen(main); t.Kind(dot) == ast.KindDot && t.Child(dot, 0) == occs[0] {
			if recv != nil {
				value := recv.Value
				t.Replace(occs[0], value)
				t.Delete(recv.Decl)
			}
			t.SetFlag(dot, ast.FlagSafe, true)
			t.Delete(main)
			s.track(replaceExpr(t, elem, dot))
			return nil
		}
	}

	receiverExpr := func() ast.NodeID {
		if recv != nil {
			return t.NewName(recv.Name)
		}
		return code.ReceiverValue
	}

	// r?.let { ... }
	if used && len(stmts) == 0 && main != ast.NoNodeID {
		r := code.ReceiverValue
		if recv != nil {
			r = recv.Value
			t.Delete(recv.Decl)
			occs = append(occs, s.m.FindNamed(code.body, MarkBinding, recv.Name)...)
		}
		param := "it"
		var params []string
		if s.mentions(code.body, "it") {
			param = s.freshName(s.receiverName())
			params = []string{param}
		}
		for _, occ := range occs {
			if t.IsAncestor(code.body, occ) {
				ref := t.NewName(param)
				replaceExpr(t, occ, ref)
			}
		}
		t.Delete(main)
		lambda := t.NewLambda(params, main)
		let := t.New(ast.Node{Kind: ast.KindCall, Flags: ast.FlagNoParens, Children: []ast.NodeID{
			t.NewName("let"), ast.NoNodeID, t.NewList(ast.KindArgs), lambda,
		}})
		s.track(replaceExpr(t, elem, t.NewDot(r, let, true)))
		return nil
	}

	// if (r != null) { ... }
	then := t.NewBlock()
	for _, st := range stmts {
		t.Append(then, st)
	}
	switch {
	case main != ast.NoNodeID:
		t.Append(then, main)
	case used:
		t.Append(then, t.NewUnit())
	}
	var els ast.NodeID
	if used {
		els = t.NewNull()
	}
	cond := t.NewBinary(token.BangEq, "!=", receiverExpr(), t.NewNull())
	ifNode := t.NewIf(cond, then, els)
	var outside []ast.NodeID
	if recv != nil {
		outside = append(outside, recv.Decl)
	}
	s.place(elem, outside, ifNode, used, true)
	return nil
}

// receiverName picks a lambda parameter name for the receiver of a safe call.
func (s *splicer) receiverName() string {
	if s.code.Receiver != nil {
		return s.code.Receiver.Name
	}
	if ty := s.o.TypeOf(s.code.Site.Receiver); ty != nil && !ty.IsFunction() {
		if name := decapitalize(ty.Name); name != "" {
			return name
		}
	}
	return "receiver"
}

// mentions reports whether a Name called name occurs under root.
func (s *splicer) mentions(root ast.NodeID, name string) bool {
	t := s.t
	found := false
	t.Walk(root, func(n ast.NodeID) bool {
		if k := t.Kind(n); (k == ast.KindName || k == ast.KindStringRef) && t.Text(n) == name {
			found = true
		}
		return !found
	})
	return found
}

func (s *splicer) freshName(base string) string {
	taken := s.o.VisibleNames(s.code.Site.Element)
	name := base
	for i := 1; taken[name] || s.mentions(s.code.body, name); i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// annotation splices a constructor call into an annotation usage.
func (s *splicer) annotation() error {
	t := s.t
	code := s.code
	call, name, err := s.constructorCall()
	if err != nil {
		return err
	}
	elem := code.Site.Element
	ann := t.New(ast.Node{Kind: ast.KindAnnotation, Text: name, Alt: code.Site.UseSiteTarget,
		Children: []ast.NodeID{t.Child(call, ast.CallArgs)}})
	t.Replace(elem, ann)
	s.track(ann)
	return nil
}

// superDelegation splices a constructor call into `: Super(args)` or a
// constructor delegation.
func (s *splicer) superDelegation() error {
	t := s.t
	code := s.code
	call, name, err := s.constructorCall()
	if err != nil {
		return err
	}
	elem := code.Site.Element
	args := t.Child(call, ast.CallArgs)
	var repl ast.NodeID
	if t.Kind(elem) == ast.KindDelegation {
		repl = t.New(ast.Node{Kind: ast.KindDelegation, Text: t.Text(elem), Children: []ast.NodeID{args}})
	} else {
		repl = t.New(ast.Node{Kind: ast.KindSuperCall, Children: []ast.NodeID{t.NewTypeRef(name, false), args}})
	}
	t.Replace(elem, repl)
	s.track(repl)
	return nil
}

// constructorCall checks that the code is a single constructor call and
// returns it with the (qualified) class name. Trailing lambdas go back
// into the argument list.
func (s *splicer) constructorCall() (call ast.NodeID, name string, err error) {
	t := s.t
	code := s.code
	refuse := func(msg string) (ast.NodeID, string, error) {
		return ast.NoNodeID, "", &UsageError{Code: diag.InlineUnsupportedUsage, Span: spanOf(t, code.Site.Element), Msg: msg}
	}
	if len(code.Statements()) > 0 {
		return refuse("the inlined code needs statements that cannot be placed here")
	}
	main := t.Unparen(code.Main)
	call = main
	var qual string
	if t.Kind(main) == ast.KindDot {
		q, ok := t.QualifiedName(t.Child(main, 0))
		if !ok {
			return refuse("the inlined code is not a constructor call")
		}
		qual, call = q+".", t.Child(main, 1)
	}
	if t.Kind(call) != ast.KindCall || t.Kind(t.Child(call, ast.CallCallee)) != ast.KindName {
		return refuse("the inlined code is not a constructor call")
	}
	if l := t.Child(call, ast.CallLambda); l != ast.NoNodeID {
		t.SetChild(call, ast.CallLambda, ast.NoNodeID)
		t.Append(t.Child(call, ast.CallArgs), t.NewArg("", l))
		t.SetFlag(call, ast.FlagNoParens, false)
	}
	return call, qual + t.CalleeName(call), nil
}
