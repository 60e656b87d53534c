package parser_test

import (
	"strings"
	"testing"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/parser"
	"splice/internal/source"
)

func parseSource(t *testing.T, src string) (*ast.Tree, ast.NodeID, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kt", []byte(src))
	bag := diag.NewBag(32)
	tree := ast.NewTree(64)
	root := parser.ParseFile(tree, fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return tree, root, bag
}

func mustParse(t *testing.T, src string) (*ast.Tree, ast.NodeID) {
	t.Helper()
	tree, root, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics for %q: %v", src, bag.Items())
	}
	return tree, root
}

func parseExpr(t *testing.T, src string) string {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("expr.kt", []byte(src))
	bag := diag.NewBag(8)
	tree := ast.NewTree(16)
	e, ok := parser.ParseExpression(tree, fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if !ok {
		t.Fatalf("parse %q failed: %v", src, bag.Items())
	}
	return tree.Dump(e)
}

func TestExpressionPrecedence(t *testing.T) {
	cases := []struct{ src, want string }{
		{"a + b * c", "(Binary + (Name a) (Binary * (Name b) (Name c)))"},
		{"a || b && c", "(Binary || (Name a) (Binary && (Name b) (Name c)))"},
		{"a ?: b + 1", "(Binary ?: (Name a) (Binary + (Name b) (Literal 1)))"},
		{"x in 1..n", "(Binary in (Name x) (Binary .. (Literal 1) (Name n)))"},
		{"a !in b", "(Binary !in [neg] (Name a) (Name b))"},
		{"a to b", "(Binary to (Name a) (Name b))"},
		{"-a.b!!", "(Prefix - (Postfix !! (Dot (Name a) (Name b))))"},
		{"x as? String", "(As [safe] (Name x) (TypeRef String))"},
		{"x as String", "(As (Name x) (TypeRef String))"},
		{"a as? B ?: c", "(Binary ?: (As [safe] (Name a) (TypeRef B)) (Name c))"},
		{"x !is List<Int>", "(Is [neg] (Name x) (TypeRef List (TypeRef Int)))"},
		{"a < b", "(Binary < (Name a) (Name b))"},
	}
	for _, tc := range cases {
		if got := parseExpr(t, tc.src); got != tc.want {
			t.Errorf("%s:\n got  %s\n want %s", tc.src, got, tc.want)
		}
	}
}

func TestCallsAndLambdas(t *testing.T) {
	cases := []struct{ src, want string }{
		{"f(1, x = 2)", "(Call (Name f) _ (Args (Arg (Literal 1)) (Arg x (Literal 2))) _)"},
		{"a.b(*xs)", "(Dot (Name a) (Call (Name b) _ (Args (Arg [spread] (Name xs))) _))"},
		{"listOf<Int>()", "(Call (Name listOf) (TypeArgs (TypeRef Int)) (Args) _)"},
		{"xs.map { it + 1 }", "(Dot (Name xs) (Call [noparens] (Name map) _ (Args) (Lambda _ (Block (Binary + (Name it) (Literal 1))))))"},
		{"run(1) { a, b -> a }", "(Call (Name run) _ (Args (Arg (Literal 1))) (Lambda (Params (Param a _ _) (Param b _ _)) (Block (Name a))))"},
		{"a?.b", "(Dot [safe] (Name a) (Name b))"},
		{"xs[0]", "(Index (Name xs) (Args (Arg (Literal 0))))"},
		{"String::class", "(ClassLit (Name String))"},
		{"::foo", "(CallableRef foo _)"},
	}
	for _, tc := range cases {
		if got := parseExpr(t, tc.src); got != tc.want {
			t.Errorf("%s:\n got  %s\n want %s", tc.src, got, tc.want)
		}
	}
}

func TestTrailingLambdaNotAcrossNewline(t *testing.T) {
	tree, root := mustParse(t, "fun f() {\n    g()\n    { x }\n}\n")
	fn := tree.Children(root)[0]
	body := tree.Child(fn, ast.FunBody)
	stmts := tree.Children(body)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %s", len(stmts), tree.Dump(body))
	}
	if tree.Kind(stmts[1]) != ast.KindLambda {
		t.Fatalf("expected lambda statement, got %s", tree.Kind(stmts[1]))
	}
}

func TestFunctionDeclaration(t *testing.T) {
	src := `package demo

import kotlin.math.max as mx

/** doc */
inline fun <T> List<T>.second(): T = this[1]

fun sum(vararg xs: Int, start: Int = 0): Int {
    var acc = start
    for (x in xs) acc += x
    return acc
}
`
	tree, root := mustParse(t, src)
	if got := tree.Text(root); got != "demo" {
		t.Fatalf("package = %q", got)
	}
	items := tree.Children(root)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	imp := tree.Node(items[0])
	if imp.Kind != ast.KindImport || imp.Text != "kotlin.math.max" || imp.Alt != "mx" {
		t.Fatalf("bad import: %s", tree.Dump(items[0]))
	}
	second := tree.Node(items[1])
	if second.Alt != "inline" || !second.Has(ast.FlagExprBody) {
		t.Fatalf("bad second(): %s", tree.Dump(items[1]))
	}
	if len(second.Leading) != 1 || second.Leading[0].Text != "/** doc */" {
		t.Fatalf("doc comment not attached: %+v", second.Leading)
	}
	if recv := tree.Child(items[1], ast.FunReceiver); tree.Text(recv) != "List" {
		t.Fatalf("receiver = %s", tree.Dump(recv))
	}
	params := tree.Children(tree.Child(items[2], ast.FunParams))
	if len(params) != 2 || !tree.Node(params[0]).Has(ast.FlagVararg) {
		t.Fatalf("bad params: %s", tree.Dump(tree.Child(items[2], ast.FunParams)))
	}
	if def := tree.Child(params[1], ast.ParamDefault); tree.Text(def) != "0" {
		t.Fatalf("default = %s", tree.Dump(def))
	}
	body := tree.Children(tree.Child(items[2], ast.FunBody))
	if len(body) != 3 || tree.Kind(body[1]) != ast.KindFor || tree.Kind(body[2]) != ast.KindReturn {
		t.Fatalf("bad body: %s", tree.Dump(tree.Child(items[2], ast.FunBody)))
	}
}

func TestWhenAndIf(t *testing.T) {
	src := `fun f(x: Any): Int {
    val y = if (x is String) 1 else 2
    return when (x) {
        is Int, in 1..3 -> 1
        !is String -> { 2 }
        else -> y
    }
}
`
	tree, root := mustParse(t, src)
	fn := tree.Children(root)[0]
	stmts := tree.Children(tree.Child(fn, ast.FunBody))
	init := tree.Child(stmts[0], ast.PropInit)
	if tree.Kind(init) != ast.KindIf || tree.Child(init, ast.IfElse) == ast.NoNodeID {
		t.Fatalf("bad if: %s", tree.Dump(init))
	}
	when := tree.Child(stmts[1], 0)
	if tree.Kind(when) != ast.KindWhen {
		t.Fatalf("expected when, got %s", tree.Dump(stmts[1]))
	}
	entries := tree.Children(when)[1:]
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	conds := tree.Children(tree.Child(entries[0], 0))
	if len(conds) != 2 || tree.Kind(conds[0]) != ast.KindWhenIs || tree.Kind(conds[1]) != ast.KindWhenIn {
		t.Fatalf("bad conds: %s", tree.Dump(entries[0]))
	}
	if !tree.Node(tree.Children(tree.Child(entries[1], 0))[0]).Has(ast.FlagNegated) {
		t.Fatalf("expected negated is: %s", tree.Dump(entries[1]))
	}
	if tree.Child(entries[2], 0) != ast.NoNodeID {
		t.Fatalf("else entry has conditions: %s", tree.Dump(entries[2]))
	}
}

func TestLabelsAndJumps(t *testing.T) {
	src := `fun f(xs: List<Int>) {
    outer@ for (x in xs) {
        xs.forEach inner@{ if (it == x) return@inner }
        if (x > 2) break@outer else continue
    }
}
`
	tree, root := mustParse(t, src)
	fn := tree.Children(root)[0]
	loop := tree.Children(tree.Child(fn, ast.FunBody))[0]
	if n := tree.Node(loop); n.Kind != ast.KindFor || n.Alt != "outer" {
		t.Fatalf("bad loop: %s", tree.Dump(loop))
	}
	var labels []string
	tree.Walk(loop, func(id ast.NodeID) bool {
		n := tree.Node(id)
		switch n.Kind {
		case ast.KindLambda:
			labels = append(labels, "lambda@"+n.Alt)
		case ast.KindReturn, ast.KindBreak, ast.KindContinue:
			labels = append(labels, n.Kind.String()+"@"+n.Text)
		}
		return true
	})
	want := "lambda@inner Return@inner Break@outer Continue@"
	if got := strings.Join(labels, " "); got != want {
		t.Fatalf("labels = %q, want %q", got, want)
	}
}

func TestStringTemplate(t *testing.T) {
	got := parseExpr(t, `"a $b ${c + 1}!"`)
	want := `(String (StringText "a ") (StringRef b) (StringText " ") (StringExpr (Binary + (Name c) (Literal 1))) (StringText !))`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestClassDeclaration(t *testing.T) {
	src := `open class Box<T>(val value: T) : Base(value), Comparable<Box<T>> {
    val size: Int get() = 1

    constructor() : this(null)

    // tail
}
`
	tree, root := mustParse(t, src)
	cls := tree.Children(root)[0]
	if n := tree.Node(cls); n.Kind != ast.KindClass || n.Alt != "open" || n.Text != "Box" {
		t.Fatalf("bad class: %s", tree.Dump(cls))
	}
	supers := tree.Children(tree.Child(cls, ast.ClassSupers))
	if len(supers) != 2 || tree.Kind(supers[0]) != ast.KindSuperCall {
		t.Fatalf("bad supers: %s", tree.Dump(tree.Child(cls, ast.ClassSupers)))
	}
	body := tree.Child(cls, ast.ClassBody)
	members := tree.Children(body)
	if len(members) != 2 || tree.Kind(members[1]) != ast.KindConstructor {
		t.Fatalf("bad members: %s", tree.Dump(body))
	}
	if tree.Child(members[0], ast.PropGetter) == ast.NoNodeID {
		t.Fatalf("getter missing: %s", tree.Dump(members[0]))
	}
	if tail := tree.Node(body).Trailing; len(tail) != 1 || tail[0].Text != "// tail" {
		t.Fatalf("trailing comment lost: %+v", tail)
	}
}

func TestSyntaxErrorsRecover(t *testing.T) {
	tree, root, bag := parseSource(t, "fun a( {\n}\n\nfun b() = 1\n")
	if !bag.HasErrors() {
		t.Fatal("expected syntax errors")
	}
	var names []string
	for _, it := range tree.Children(root) {
		if tree.Kind(it) == ast.KindFun {
			names = append(names, tree.Text(it))
		}
	}
	if len(names) == 0 || names[len(names)-1] != "b" {
		t.Fatalf("parser did not recover to fun b: %v", names)
	}
}

func TestStatementSeparators(t *testing.T) {
	_, _, bag := parseSource(t, "fun f() { val a = 1 val b = 2 }\n")
	if !bag.HasErrors() {
		t.Fatal("expected an error for two statements on one line")
	}
	mustParse(t, "fun f() { val a = 1; val b = 2 }\n")
}
