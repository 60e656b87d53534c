package sema_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/parser"
	"splice/internal/sema"
	"splice/internal/source"
)

type fixture struct {
	tree  *ast.Tree
	o     *sema.Oracle
	roots map[string]ast.NodeID
}

func load(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	tree := ast.NewTree(256)
	prelude, err := sema.LoadPrelude(fs, tree)
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	f := &fixture{tree: tree, o: sema.New(tree, prelude), roots: make(map[string]ast.NodeID)}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		bag := diag.NewBag(16)
		id := fs.AddVirtual(p, []byte(files[p]))
		f.roots[p] = parser.ParseFile(tree, fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		if bag.HasErrors() {
			t.Fatalf("%s: %v", p, bag.Items())
		}
	}
	return f
}

func (f *fixture) names(file, text string) []ast.NodeID {
	return f.tree.Collect(f.roots[file], func(n ast.NodeID) bool {
		return f.tree.Kind(n) == ast.KindName && f.tree.Text(n) == text
	})
}

func (f *fixture) decl(file string, kind ast.Kind, name string) ast.NodeID {
	found := f.tree.Collect(f.roots[file], func(n ast.NodeID) bool {
		return f.tree.Kind(n) == kind && f.tree.Text(n) == name
	})
	if len(found) == 0 {
		return ast.NoNodeID
	}
	return found[0]
}

func TestResolveLocalsAndParams(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

val x = 1

fun f(x: Int): Int {
    val y = x + 1
    return y
}

fun g() = x
`})
	param := f.decl("a.kt", ast.KindParam, "x")
	local := f.decl("a.kt", ast.KindProperty, "y")
	top := f.tree.Child(f.roots["a.kt"], 0)
	xs := f.names("a.kt", "x")
	if len(xs) != 2 {
		t.Fatalf("want 2 references to x, got %d", len(xs))
	}
	if got := f.o.Resolve(xs[0]); got != param {
		t.Errorf("x inside f resolved to %s, want the parameter", f.tree.Kind(got))
	}
	if got := f.o.Resolve(xs[1]); got != top {
		t.Errorf("x inside g resolved to %d, want top-level %d", got, top)
	}
	if got := f.o.Resolve(f.names("a.kt", "y")[0]); got != local {
		t.Errorf("y resolved to %d, want local %d", got, local)
	}
	if qn, ok := f.o.QualifiedName(top); !ok || qn != "demo.x" {
		t.Errorf("QualifiedName = %q, %v", qn, ok)
	}
}

func TestResolveAcrossPackagesAndImports(t *testing.T) {
	f := load(t, map[string]string{
		"lib.kt": "package lib\n\nfun helper(a: Int) = a\n",
		"app.kt": `package app

import lib.helper
import lib.helper as h

fun main() {
    helper(1)
    lib.helper(2)
    h(3)
}
`,
	})
	helper := f.decl("lib.kt", ast.KindFun, "helper")
	for _, name := range []string{"helper", "h"} {
		for _, ref := range f.names("app.kt", name) {
			if got := f.o.Resolve(ref); got != helper {
				t.Errorf("%s at %d resolved to %d, want %d", name, ref, got, helper)
			}
		}
	}
	refs, err := f.o.FindReferences(context.Background(), helper, []ast.NodeID{f.roots["app.kt"]})
	if err != nil {
		t.Fatal(err)
	}
	var imports, names int
	for _, r := range refs {
		switch f.tree.Kind(r) {
		case ast.KindImport:
			imports++
		case ast.KindName:
			names++
		}
	}
	if imports != 2 || names != 3 {
		t.Errorf("FindReferences: %d imports, %d names; want 2 and 3", imports, names)
	}
}

func TestOverloadsByArity(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

fun g() = 1
fun g(a: Int, b: Int = 2) = a + b

fun main() {
    g()
    g(1)
    g(a = 1, b = 3)
}
`})
	var funs []ast.NodeID
	for _, item := range f.tree.Children(f.roots["a.kt"]) {
		if f.tree.Kind(item) == ast.KindFun && f.tree.Text(item) == "g" {
			funs = append(funs, item)
		}
	}
	refs := f.names("a.kt", "g")
	want := []ast.NodeID{funs[0], funs[1], funs[1]}
	for i, ref := range refs {
		if got := f.o.Resolve(ref); got != want[i] {
			t.Errorf("call %d resolved to %d, want %d", i, got, want[i])
		}
	}
	info, ok := f.o.ResolveCall(f.tree.Parent(refs[1]))
	if !ok {
		t.Fatal("ResolveCall failed")
	}
	if len(info.Params) != 2 || len(info.Params[0].Args) != 1 || len(info.Params[1].Args) != 0 {
		t.Errorf("unexpected mapping %+v", info.Params)
	}
	info, _ = f.o.ResolveCall(f.tree.Parent(refs[2]))
	if !info.Params[1].Named {
		t.Error("b should be mapped as a named argument")
	}
}

func TestLambdaItAndInferredTypes(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

fun main() {
    val xs = listOf(1, 2)
    val ys = xs.map { it + 1 }
    val s = "abc".let { it.length }
}
`})
	it := f.names("a.kt", "it")
	if len(it) != 2 {
		t.Fatalf("want 2 uses of it, got %d", len(it))
	}
	if k := f.tree.Kind(f.o.Resolve(it[0])); k != ast.KindLambda {
		t.Errorf("it resolved to %s, want Lambda", k)
	}
	if got := f.o.TypeOf(it[0]).String(); got != "Int" {
		t.Errorf("type of it = %q, want Int", got)
	}
	if got := f.o.TypeOf(it[1]).String(); got != "String" {
		t.Errorf("type of it in let = %q, want String", got)
	}
	ys := f.decl("a.kt", ast.KindProperty, "ys")
	if got := f.o.TypeOf(f.tree.Child(ys, ast.PropInit)).String(); got != "List<Int>" {
		t.Errorf("type of xs.map = %q, want List<Int>", got)
	}
	s := f.decl("a.kt", ast.KindProperty, "s")
	if got := f.o.TypeOf(f.tree.Child(s, ast.PropInit)).String(); got != "Int" {
		t.Errorf("type of let = %q, want Int", got)
	}
}

func TestImplicitReceivers(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

class Box(val v: Int) {
    fun get() = v
}

fun Box.twice() = v * 2

fun Box.four() = twice() * 2
`})
	v := f.names("a.kt", "v")
	box := f.decl("a.kt", ast.KindClass, "Box")
	twice := f.decl("a.kt", ast.KindFun, "twice")
	four := f.decl("a.kt", ast.KindFun, "four")
	if r := f.o.ResolveFull(v[0]); r.ImplicitReceiver != box || f.tree.Kind(r.Decl) != ast.KindParam {
		t.Errorf("v in get: %+v", r)
	}
	if r := f.o.ResolveFull(v[1]); r.ImplicitReceiver != twice {
		t.Errorf("v in twice: receiver %d, want %d", r.ImplicitReceiver, twice)
	}
	if r := f.o.ResolveFull(f.names("a.kt", "twice")[0]); r.Decl != twice || r.ImplicitReceiver != four {
		t.Errorf("twice() in four: %+v", r)
	}
}

func TestInheritedMembers(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

open class A(val n: Int) {
    fun base() = n
}

fun one() = 1

class B : A(1) {
    fun m() = one()
    fun k() = base() + n
}
`})
	a := f.decl("a.kt", ast.KindClass, "A")
	b := f.decl("a.kt", ast.KindClass, "B")
	if !f.o.IsSubclass(b, a) {
		t.Fatalf("B must be a subclass of A")
	}
	if r := f.o.ResolveFull(f.names("a.kt", "one")[0]); r.Decl != f.decl("a.kt", ast.KindFun, "one") || r.ImplicitReceiver != ast.NoNodeID {
		t.Errorf("one() in B: %+v", r)
	}
	if r := f.o.ResolveFull(f.names("a.kt", "base")[0]); r.Decl != f.decl("a.kt", ast.KindFun, "base") || r.ImplicitReceiver != b {
		t.Errorf("base() in B: %+v", r)
	}
	ns := f.names("a.kt", "n")
	if r := f.o.ResolveFull(ns[len(ns)-1]); f.tree.Kind(r.Decl) != ast.KindParam || r.ImplicitReceiver != b {
		t.Errorf("n in B: %+v", r)
	}
}

func TestUsedAsExpression(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

fun f() = 1

fun main() {
    val a = f()
    f()
    println(f())
    run { f() }
    val b = run { f() }
    if (f() > 0) f() else f()
}
`})
	calls := f.names("a.kt", "f")
	want := []bool{true, false, true, false, true, true, false, false}
	if len(calls) != len(want) {
		t.Fatalf("want %d calls, got %d", len(want), len(calls))
	}
	for i, c := range calls {
		if got := f.o.UsedAsExpression(f.tree.Parent(c)); got != want[i] {
			t.Errorf("call %d: UsedAsExpression = %v, want %v", i, got, want[i])
		}
	}
}

func TestFindReferencesHonoursCancellation(t *testing.T) {
	f := load(t, map[string]string{"a.kt": "package demo\n\nfun f() = 1\nval y = f()\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.o.FindReferences(ctx, f.decl("a.kt", ast.KindFun, "f"), []ast.NodeID{f.roots["a.kt"]})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestVisibleNamesAndStability(t *testing.T) {
	f := load(t, map[string]string{"a.kt": `package demo

fun main(p: Int) {
    val a = 1
    var b = 2
    println(a + b + p)
    val c = 3
}
`})
	call := f.tree.Parent(f.names("a.kt", "println")[0])
	names := f.o.VisibleNames(call)
	for _, n := range []string{"a", "b", "c", "p"} {
		if !names[n] {
			t.Errorf("%s should be visible", n)
		}
	}
	if !f.o.IsStable(f.names("a.kt", "a")[0]) {
		t.Error("val a should be stable")
	}
	if f.o.IsStable(f.names("a.kt", "b")[0]) {
		t.Error("var b should not be stable")
	}
}
