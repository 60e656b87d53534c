package sema

import (
	"strings"

	"splice/internal/ast"
	"splice/internal/token"
)

// Resolution is what a reference denotes.
type Resolution struct {
	Decl ast.NodeID
	// ImplicitReceiver is set when the reference reaches a member through an
	// implicit `this`: the Class, the extension Fun/Property or the Lambda
	// with receiver that provides it.
	ImplicitReceiver ast.NodeID
}

type lookup struct {
	name     string
	call     ast.NodeID // call whose callee is the reference
	wantType bool
	callable bool
}

type implicitRecv struct {
	decl ast.NodeID
	typ  *Type
}

// Resolve returns the declaration ref refers to, or NoNodeID.
func (o *Oracle) Resolve(ref ast.NodeID) ast.NodeID {
	return o.ResolveFull(ref).Decl
}

// ResolveFull resolves names, calls, string references, callable references,
// type and annotation references, `this`, imports and infix calls.
func (o *Oracle) ResolveFull(ref ast.NodeID) Resolution {
	t := o.tree
	switch t.Kind(ref) {
	case ast.KindName:
		return o.resolveName(ref)
	case ast.KindCall:
		if callee := t.Child(ref, ast.CallCallee); t.Kind(callee) == ast.KindName {
			return o.resolveName(callee)
		}
	case ast.KindDot:
		return o.ResolveFull(t.Child(ref, 1))
	case ast.KindStringRef:
		return o.lookupScopes(ref, lookup{name: t.Text(ref)})
	case ast.KindCallableRef:
		lk := lookup{name: t.Text(ref), callable: true}
		if recv := t.Child(ref, 0); recv != ast.NoNodeID {
			return o.lookupMember(ref, recv, lk)
		}
		return o.lookupScopes(ref, lk)
	case ast.KindTypeRef, ast.KindAnnotation:
		return Resolution{Decl: o.resolveTypeRef(ref)}
	case ast.KindThis:
		return Resolution{Decl: o.resolveThis(ref)}
	case ast.KindImport:
		return Resolution{Decl: o.resolveImport(ref)}
	case ast.KindBinary:
		if t.Node(ref).Op == token.Ident {
			return o.lookupMember(ref, t.Child(ref, 0), lookup{name: t.Text(ref), call: ref})
		}
	}
	return Resolution{}
}

func (o *Oracle) resolveName(ref ast.NodeID) Resolution {
	t := o.tree
	lk := lookup{name: t.Text(ref)}
	site := ref
	if p := t.Parent(ref); t.Kind(p) == ast.KindCall && t.Child(p, ast.CallCallee) == ref {
		lk.call = p
		site = p
	}
	if dot := t.Parent(site); t.Kind(dot) == ast.KindDot && t.Child(dot, 1) == site {
		return o.lookupMember(ref, t.Child(dot, 0), lk)
	}
	return o.lookupScopes(ref, lk)
}

// lookupMember resolves lk.name selected from the expression recv.
func (o *Oracle) lookupMember(ref, recv ast.NodeID, lk lookup) Resolution {
	t := o.tree
	if pkg, ok := o.packageRef(recv); ok {
		return o.pick(o.TopLevel(pkg, lk.name), lk)
	}
	if base := t.Unparen(recv); t.Kind(base) == ast.KindName || t.Kind(base) == ast.KindDot {
		if d := o.Resolve(base); t.Kind(d) == ast.KindClass {
			return o.pick(o.members(d, lk.name), lk)
		}
	}
	typ := o.TypeOf(recv)
	if cls := o.classOf(typ); cls != ast.NoNodeID {
		if r := o.pick(o.members(cls, lk.name), lk); r.Decl != ast.NoNodeID {
			return r
		}
	}
	file := t.FileOf(ref)
	for _, tier := range o.fileTiers(file, lk.name) {
		for _, d := range tier {
			if o.IsExtension(d) && o.fits(d, lk) && o.receiverMatches(d, typ) {
				return Resolution{Decl: d}
			}
		}
	}
	return Resolution{}
}

// packageRef reports whether recv is a chain of names spelling a package.
func (o *Oracle) packageRef(recv ast.NodeID) (string, bool) {
	t := o.tree
	qn, ok := t.QualifiedName(recv)
	if !ok || !o.IsPackage(qn) {
		return "", false
	}
	first := recv
	for t.Kind(first) == ast.KindDot {
		first = t.Child(first, 0)
	}
	if o.lookupScopes(first, lookup{name: t.Text(first)}).Decl != ast.NoNodeID {
		return "", false // имя перекрыто локальной декларацией
	}
	return qn, true
}

func (o *Oracle) pick(cands []ast.NodeID, lk lookup) Resolution {
	for _, d := range cands {
		if o.fits(d, lk) {
			return Resolution{Decl: d}
		}
	}
	return Resolution{}
}

// fits reports whether decl can be what the reference described by lk means.
func (o *Oracle) fits(decl ast.NodeID, lk lookup) bool {
	t := o.tree
	k := t.Kind(decl)
	if lk.wantType {
		return k == ast.KindClass || k == ast.KindTypeParam
	}
	switch {
	case k == ast.KindTypeParam:
		return false
	case lk.callable:
		return k == ast.KindFun || k == ast.KindProperty || k == ast.KindClass || k == ast.KindParam
	case lk.call != ast.NoNodeID:
		switch k {
		case ast.KindFun:
			_, ok := o.mapArgs(t.Child(decl, ast.FunParams), lk.call)
			return ok
		case ast.KindClass:
			return o.constructorFor(decl, lk.call) != ast.NoNodeID
		case ast.KindProperty:
			typ := t.Child(decl, ast.PropType)
			return typ == ast.NoNodeID || t.Kind(typ) == ast.KindFunType
		case ast.KindParam:
			typ := t.Child(decl, ast.ParamType)
			return typ == ast.NoNodeID || t.Kind(typ) == ast.KindFunType
		case ast.KindLambda:
			return true
		}
		return false
	}
	return k != ast.KindFun && k != ast.KindConstructor
}

// constructorFor returns the constructor of cls (the Class itself for the
// primary one) that accepts the arguments of call.
func (o *Oracle) constructorFor(cls, call ast.NodeID) ast.NodeID {
	t := o.tree
	primary := t.Child(cls, ast.ClassParams)
	var secondary []ast.NodeID
	for _, m := range t.Children(t.Child(cls, ast.ClassBody)) {
		if t.Kind(m) == ast.KindConstructor {
			secondary = append(secondary, m)
		}
	}
	if primary != ast.NoNodeID || len(secondary) == 0 {
		if _, ok := o.mapArgs(primary, call); ok {
			return cls
		}
	}
	for _, c := range secondary {
		if _, ok := o.mapArgs(t.Child(c, ast.CtorParams), call); ok {
			return c
		}
	}
	return ast.NoNodeID
}

// lookupScopes walks the scopes enclosing ref from the inside out.
func (o *Oracle) lookupScopes(ref ast.NodeID, lk lookup) Resolution {
	t := o.tree
	var receivers []implicitRecv
	child := ref
	for cur := t.Parent(ref); cur != ast.NoNodeID; child, cur = cur, t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindBlock:
			if d := o.localBefore(cur, child, lk); d != ast.NoNodeID {
				return Resolution{Decl: d}
			}
		case ast.KindLambda:
			if lk.wantType {
				continue
			}
			if params := t.Child(cur, ast.LambdaParams); params != ast.NoNodeID {
				if d := o.paramNamed(params, lk); d != ast.NoNodeID {
					return Resolution{Decl: d}
				}
			} else if lk.name == "it" && o.fits(cur, lk) && o.lambdaArity(cur) == 1 {
				return Resolution{Decl: cur}
			}
			if rt := o.lambdaReceiver(cur); rt != nil {
				if r, ok := o.implicitMember(cur, rt, lk); ok {
					return r
				}
				receivers = append(receivers, implicitRecv{decl: cur, typ: rt})
			}
		case ast.KindFor:
			if child == t.Child(cur, 2) && !lk.wantType {
				if p := t.Child(cur, 0); t.Text(p) == lk.name && o.fits(p, lk) {
					return Resolution{Decl: p}
				}
			}
		case ast.KindFun:
			if child == t.Child(cur, ast.FunAnnots) {
				continue
			}
			if d := o.typeParamNamed(t.Child(cur, ast.FunTypeParams), lk); d != ast.NoNodeID {
				return Resolution{Decl: d}
			}
			if !lk.wantType {
				if d := o.paramNamed(t.Child(cur, ast.FunParams), lk); d != ast.NoNodeID {
					return Resolution{Decl: d}
				}
			}
			if recv := t.Child(cur, ast.FunReceiver); recv != ast.NoNodeID && child != recv {
				rt := o.typeFromRef(recv)
				if r, ok := o.implicitMember(cur, rt, lk); ok {
					return r
				}
				receivers = append(receivers, implicitRecv{decl: cur, typ: rt})
			}
		case ast.KindProperty:
			if d := o.typeParamNamed(t.Child(cur, ast.PropTypeParams), lk); d != ast.NoNodeID {
				return Resolution{Decl: d}
			}
			if recv := t.Child(cur, ast.PropReceiver); recv != ast.NoNodeID && child != recv {
				rt := o.typeFromRef(recv)
				if r, ok := o.implicitMember(cur, rt, lk); ok {
					return r
				}
				receivers = append(receivers, implicitRecv{decl: cur, typ: rt})
			}
		case ast.KindConstructor:
			if !lk.wantType {
				if d := o.paramNamed(t.Child(cur, ast.CtorParams), lk); d != ast.NoNodeID {
					return Resolution{Decl: d}
				}
			}
		case ast.KindClass:
			if d := o.typeParamNamed(t.Child(cur, ast.ClassTypeParams), lk); d != ast.NoNodeID {
				return Resolution{Decl: d}
			}
			// параметры первичного конструктора видны в инициализаторах
			if !lk.wantType && o.seesPrimaryParams(cur, child, ref) {
				if d := o.paramNamed(t.Child(cur, ast.ClassParams), lk); d != ast.NoNodeID {
					return Resolution{Decl: d}
				}
			}
			if child == t.Child(cur, ast.ClassSupers) {
				// супертипы и аргументы super-вызова не видят членов класса
				continue
			}
			ct := o.classType(cur)
			if r, ok := o.implicitMember(cur, ct, lk); ok {
				return r
			}
			receivers = append(receivers, implicitRecv{decl: cur, typ: ct})
		case ast.KindFile:
			return o.fileScope(cur, lk, receivers)
		}
	}
	return Resolution{}
}

// seesPrimaryParams reports whether ref, reached from the class through
// child, is inside an initializer where constructor parameters are in scope.
func (o *Oracle) seesPrimaryParams(cls, child, ref ast.NodeID) bool {
	t := o.tree
	switch child {
	case t.Child(cls, ast.ClassParams), t.Child(cls, ast.ClassSupers):
		return true
	case t.Child(cls, ast.ClassBody):
		for cur := ref; cur != ast.NoNodeID; cur = t.Parent(cur) {
			if t.Parent(cur) == child {
				return t.Kind(cur) == ast.KindProperty && !t.IsAncestor(t.Child(cur, ast.PropGetter), ref)
			}
		}
	}
	return false
}

func (o *Oracle) implicitMember(owner ast.NodeID, typ *Type, lk lookup) (Resolution, bool) {
	cls := o.classOf(typ)
	if cls == ast.NoNodeID {
		return Resolution{}, false
	}
	for _, m := range o.members(cls, lk.name) {
		if o.fits(m, lk) {
			return Resolution{Decl: m, ImplicitReceiver: owner}, true
		}
	}
	return Resolution{}, false
}

func (o *Oracle) localBefore(block, child ast.NodeID, lk lookup) ast.NodeID {
	t := o.tree
	stmts := t.Children(block)
	end := len(stmts)
	for i, s := range stmts {
		if s == child {
			end = i
			if t.Kind(s) == ast.KindFun {
				end = i + 1 // локальная функция видит себя
			}
			break
		}
	}
	for i := end - 1; i >= 0; i-- {
		s := stmts[i]
		switch t.Kind(s) {
		case ast.KindProperty, ast.KindFun, ast.KindClass:
			if t.Text(s) == lk.name && o.fits(s, lk) {
				return s
			}
		}
	}
	return ast.NoNodeID
}

func (o *Oracle) paramNamed(params ast.NodeID, lk lookup) ast.NodeID {
	for _, p := range o.tree.Children(params) {
		if o.tree.Text(p) == lk.name && o.fits(p, lk) {
			return p
		}
	}
	return ast.NoNodeID
}

func (o *Oracle) typeParamNamed(params ast.NodeID, lk lookup) ast.NodeID {
	if !lk.wantType {
		return ast.NoNodeID
	}
	for _, p := range o.tree.Children(params) {
		if o.tree.Text(p) == lk.name {
			return p
		}
	}
	return ast.NoNodeID
}

func (o *Oracle) fileScope(file ast.NodeID, lk lookup, receivers []implicitRecv) Resolution {
	for _, tier := range o.fileTiers(file, lk.name) {
		for _, d := range tier {
			if !o.fits(d, lk) {
				continue
			}
			if !o.IsExtension(d) {
				return Resolution{Decl: d}
			}
			for _, r := range receivers {
				if o.receiverMatches(d, r.typ) {
					return Resolution{Decl: d, ImplicitReceiver: r.decl}
				}
			}
		}
	}
	return Resolution{}
}

// fileTiers returns candidates for name visible in file, by priority:
// explicit imports, the file's package, star imports, default imports.
func (o *Oracle) fileTiers(file ast.NodeID, name string) [][]ast.NodeID {
	t := o.tree
	var explicit, star []ast.NodeID
	for _, item := range t.Children(file) {
		if t.Kind(item) != ast.KindImport {
			continue
		}
		path := t.Text(item)
		if pkg, ok := strings.CutSuffix(path, ".*"); ok {
			star = append(star, o.TopLevel(pkg, name)...)
			continue
		}
		pkg, last := parentPackage(path), lastSegment(path)
		alias := t.Node(item).Alt
		if alias == name || (alias == "" && last == name) {
			explicit = append(explicit, o.TopLevel(pkg, last)...)
		}
	}
	var defaults []ast.NodeID
	for _, pkg := range DefaultImports {
		defaults = append(defaults, o.TopLevel(pkg, name)...)
	}
	return [][]ast.NodeID{explicit, o.TopLevel(t.Text(file), name), star, defaults}
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// members returns members of cls called name, including inherited ones and
// properties declared by primary constructor parameters.
func (o *Oracle) members(cls ast.NodeID, name string) []ast.NodeID {
	return o.membersRec(cls, name, 0)
}

func (o *Oracle) membersRec(cls ast.NodeID, name string, depth int) []ast.NodeID {
	t := o.tree
	if depth > 8 {
		return nil
	}
	var out []ast.NodeID
	for _, p := range t.Children(t.Child(cls, ast.ClassParams)) {
		if t.Text(p) == name && t.Has(p, ast.FlagValParam|ast.FlagVarParam) {
			out = append(out, p)
		}
	}
	for _, m := range t.Children(t.Child(cls, ast.ClassBody)) {
		switch t.Kind(m) {
		case ast.KindFun, ast.KindProperty, ast.KindClass:
			if t.Text(m) == name {
				out = append(out, m)
			}
		}
	}
	for _, sup := range o.supers(cls) {
		out = append(out, o.membersRec(sup, name, depth+1)...)
	}
	return out
}

// supers returns the resolved super classes of cls.
func (o *Oracle) supers(cls ast.NodeID) []ast.NodeID {
	t := o.tree
	var out []ast.NodeID
	for _, s := range t.Children(t.Child(cls, ast.ClassSupers)) {
		ref := s
		if t.Kind(s) == ast.KindSuperCall {
			ref = t.Child(s, 0)
		}
		if d := o.resolveTypeRef(ref); t.Kind(d) == ast.KindClass && d != cls {
			out = append(out, d)
		}
	}
	return out
}

// IsSubclass reports whether cls is target or inherits from it.
func (o *Oracle) IsSubclass(cls, target ast.NodeID) bool {
	return o.isSubclass(cls, target, 0)
}

func (o *Oracle) isSubclass(cls, target ast.NodeID, depth int) bool {
	if cls == target {
		return true
	}
	if depth > 8 {
		return false
	}
	for _, s := range o.supers(cls) {
		if o.isSubclass(s, target, depth+1) {
			return true
		}
	}
	return false
}

// receiverMatches reports whether an extension declared on ext's receiver
// type applies to a value of type typ. Unknown types match.
func (o *Oracle) receiverMatches(ext ast.NodeID, typ *Type) bool {
	t := o.tree
	slot, tps := ast.FunReceiver, ast.FunTypeParams
	if t.Kind(ext) == ast.KindProperty {
		slot, tps = ast.PropReceiver, ast.PropTypeParams
	}
	recv := t.Child(ext, slot)
	for _, tp := range t.Children(t.Child(ext, tps)) {
		if t.Text(tp) == t.Text(recv) {
			return true
		}
	}
	if typ == nil {
		return true
	}
	want := o.resolveTypeRef(recv)
	if t.Kind(want) != ast.KindClass {
		return true
	}
	if o.IsPrelude(want) && t.Text(want) == "Any" {
		return true
	}
	cls := o.classOf(typ)
	return cls != ast.NoNodeID && o.IsSubclass(cls, want)
}

// resolveTypeRef resolves a (possibly qualified) type name.
func (o *Oracle) resolveTypeRef(ref ast.NodeID) ast.NodeID {
	t := o.tree
	name := t.Text(ref)
	if !strings.Contains(name, ".") {
		return o.lookupScopes(ref, lookup{name: name, wantType: true}).Decl
	}
	segs := strings.Split(name, ".")
	var cur ast.NodeID
	rest := segs
	for i := len(segs) - 1; i > 0; i-- {
		pkg := strings.Join(segs[:i], ".")
		if !o.IsPackage(pkg) {
			continue
		}
		for _, d := range o.TopLevel(pkg, segs[i]) {
			if t.Kind(d) == ast.KindClass {
				cur = d
				break
			}
		}
		rest = segs[i+1:]
		break
	}
	if cur == ast.NoNodeID {
		cur = o.lookupScopes(ref, lookup{name: segs[0], wantType: true}).Decl
		rest = segs[1:]
	}
	for _, seg := range rest {
		next := ast.NoNodeID
		for _, m := range o.members(cur, seg) {
			if t.Kind(m) == ast.KindClass {
				next = m
				break
			}
		}
		if next == ast.NoNodeID {
			return ast.NoNodeID
		}
		cur = next
	}
	return cur
}

// resolveThis returns the Class, extension declaration or Lambda whose
// receiver `this` (or `this@label`) denotes.
func (o *Oracle) resolveThis(this ast.NodeID) ast.NodeID {
	t := o.tree
	label := t.Text(this)
	for cur := t.Parent(this); cur != ast.NoNodeID; cur = t.Parent(cur) {
		switch t.Kind(cur) {
		case ast.KindLambda:
			if o.lambdaReceiver(cur) != nil && (label == "" || label == t.Node(cur).Alt) {
				return cur
			}
		case ast.KindFun, ast.KindProperty:
			if o.IsExtension(cur) && (label == "" || label == t.Text(cur)) {
				return cur
			}
		case ast.KindClass:
			if label == "" || label == t.Text(cur) {
				return cur
			}
		}
	}
	return ast.NoNodeID
}

func (o *Oracle) resolveImport(imp ast.NodeID) ast.NodeID {
	path := o.tree.Text(imp)
	if strings.HasSuffix(path, ".*") {
		return ast.NoNodeID
	}
	if ds := o.TopLevel(parentPackage(path), lastSegment(path)); len(ds) > 0 {
		return ds[0]
	}
	return ast.NoNodeID
}
