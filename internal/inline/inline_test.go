package inline_test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/format"
	"splice/internal/inline"
	"splice/internal/parser"
	"splice/internal/sema"
	"splice/internal/source"
	"splice/internal/testkit"
)

type fixture struct {
	fs    *source.FileSet
	tree  *ast.Tree
	o     *sema.Oracle
	e     *inline.Engine
	bag   *diag.Bag
	roots map[string]ast.NodeID
	order []ast.NodeID
}

func load(t *testing.T, passes inline.Passes, files map[string]string) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	tree := ast.NewTree(256)
	prelude, err := sema.LoadPrelude(fs, tree)
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	f := &fixture{fs: fs, tree: tree, o: sema.New(tree, prelude), bag: diag.NewBag(64), roots: make(map[string]ast.NodeID)}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		bag := diag.NewBag(16)
		id := fs.AddVirtual(p, []byte(files[p]))
		root := parser.ParseFile(tree, fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		if bag.HasErrors() {
			t.Fatalf("%s: %v", p, bag.Items())
		}
		f.roots[p] = root
		f.order = append(f.order, root)
	}
	f.e = inline.NewEngine(f.o, inline.Options{Passes: passes, Reporter: diag.BagReporter{Bag: f.bag}})
	return f
}

func (f *fixture) fun(t *testing.T, file, name string) ast.NodeID {
	t.Helper()
	found := f.tree.Collect(f.roots[file], func(n ast.NodeID) bool {
		return f.tree.Kind(n) == ast.KindFun && f.tree.Text(n) == name
	})
	if len(found) == 0 {
		t.Fatalf("%s: fun %s not found", file, name)
	}
	return found[0]
}

// inlineAll inlines decl at every reference, right to left.
func (f *fixture) inlineAll(t *testing.T, decl ast.NodeID) []*inline.Result {
	t.Helper()
	ctx := context.Background()
	tmpl, err := f.e.PrepareTemplate(decl)
	if err != nil {
		t.Fatalf("PrepareTemplate: %v", err)
	}
	refs, err := f.o.FindReferences(ctx, decl, f.order)
	if err != nil {
		t.Fatalf("FindReferences: %v", err)
	}
	refs = slices.DeleteFunc(refs, func(r ast.NodeID) bool { return f.tree.Kind(r) == ast.KindImport })
	slices.SortFunc(refs, func(a, b ast.NodeID) int {
		return cmp.Compare(f.tree.Node(b).Span.Start, f.tree.Node(a).Span.Start)
	})
	var results []*inline.Result
	for _, ref := range refs {
		site, err := inline.SiteFor(f.o, ref)
		if err != nil {
			t.Fatalf("SiteFor: %v", err)
		}
		r, err := f.e.ApplyAtSingleSite(ctx, tmpl, site)
		if err != nil {
			t.Fatalf("ApplyAtSingleSite: %v", err)
		}
		results = append(results, r)
	}
	f.e.Finish(ctx, results)
	return results
}

func (f *fixture) render(t *testing.T, file, name string) string {
	t.Helper()
	return format.Node(f.tree, f.fun(t, file, name))
}

func TestInlineAtUsage(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		inline string
		want   string
	}{
		{
			name:   "pure compound argument is duplicated",
			src:    "package demo\n\nfun sq(x: Int) = x * x\n\nfun use(a: Int): Int = sq(a + 1)\n",
			inline: "sq",
			want:   "fun use(a: Int): Int = (a + 1) * (a + 1)",
		},
		{
			name:   "call argument used twice gets a binding",
			src:    "package demo\n\nfun next(): Int = 1\n\nfun twice(x: Int) = x + x\n\nfun use(): Int = twice(next())\n",
			inline: "twice",
			want:   "fun use(): Int {\n    val x = next()\n    return x + x\n}",
		},
		{
			name:   "single use needs no binding",
			src:    "package demo\n\nfun id(y: Int) = y\n\nfun use(b: Int) = id(b)\n",
			inline: "id",
			want:   "fun use(b: Int) = b",
		},
		{
			name:   "arguments keep their evaluation order",
			src:    "package demo\n\nfun first(): Int = 1\n\nfun second(): Int = 2\n\nfun sub(a: Int, b: Int) = b - a\n\nfun use(): Int = sub(first(), second())\n",
			inline: "sub",
			want:   "fun use(): Int {\n    val a = first()\n    return second() - a\n}",
		},
		{
			name:   "statement body goes before the usage",
			src:    "package demo\n\nfun log(x: Int) {\n    println(x)\n}\n\nfun use() {\n    log(1)\n}\n",
			inline: "log",
			want:   "fun use() {\n    println(1)\n}",
		},
		{
			name:   "string template is merged",
			src:    "package demo\n\nfun greet(name: String) = \"Hello, $name!\"\n\nfun use(u: String) = \"[${greet(u)}]\"\n",
			inline: "greet",
			want:   "fun use(u: String) = \"[Hello, $u!]\"",
		},
		{
			name:   "safe call keeps the selector",
			src:    "package demo\n\nclass Box(val v: Int)\n\nfun Box.value(): Int = this.v\n\nfun use(b: Box?) = b?.value()\n",
			inline: "value",
			want:   "fun use(b: Box?) = b?.v",
		},
		{
			name:   "safe call used as value becomes let",
			src:    "package demo\n\nclass Box(val v: Int)\n\nfun Box.inc(): Int = this.v + 1\n\nfun use(b: Box?) = b?.inc()\n",
			inline: "inc",
			want:   "fun use(b: Box?) = b?.let { it.v + 1 }",
		},
		{
			name:   "unused safe call becomes a null check",
			src:    "package demo\n\nclass Box(val v: Int)\n\nfun Box.inc(): Int = this.v + 1\n\nfun use(b: Box?) {\n    b?.inc()\n}\n",
			inline: "inc",
			want:   "fun use(b: Box?) {\n    if (b != null) {\n        b.v + 1\n    }\n}",
		},
		{
			name:   "argument equal to the default is dropped",
			src:    "package demo\n\nfun base(a: Int, b: Int = 0) = a + b\n\nfun wrap(x: Int, y: Int = 0) = base(x, y)\n\nfun use() = wrap(5)\n",
			inline: "wrap",
			want:   "fun use() = base(5)",
		},
		{
			name:   "lambda called in place is inlined",
			src:    "package demo\n\nfun apply2(x: Int, f: (Int) -> Int) = f(x)\n\nfun use() = apply2(3) { it + 1 }\n",
			inline: "apply2",
			want:   "fun use() = 3 + 1",
		},
		{
			name:   "parameterless lambda called in place is inlined",
			src:    "package demo\n\nfun once(f: () -> Int) = f()\n\nfun use() = once { 42 }\n",
			inline: "once",
			want:   "fun use() = 42",
		},
		{
			name:   "extension returning its receiver",
			src:    "package demo\n\nfun Int.me() = this\n\nfun use(b: Int) = b.me()\n",
			inline: "me",
			want:   "fun use(b: Int) = b",
		},
		{
			name:   "unused argument with an effect still runs",
			src:    "package demo\n\nfun next(): Int = 1\n\nfun ignore(x: Int) = 5\n\nfun use(): Int = ignore(next())\n",
			inline: "ignore",
			want:   "fun use(): Int {\n    next()\n    return 5\n}",
		},
		{
			name:   "unused pure argument disappears",
			src:    "package demo\n\nfun ignore(x: Int) = 5\n\nfun use(a: Int): Int = ignore(a)\n",
			inline: "ignore",
			want:   "fun use(a: Int): Int = 5",
		},
		{
			name: "unused argument runs before the returned one",
			src: "package demo\n\nfun first(): Int = 1\n\nfun second(): Int = 2\n\nfun pickSecond(a: Int, b: Int) = b\n\n" +
				"fun use(): Int = pickSecond(first(), second())\n",
			inline: "pickSecond",
			want:   "fun use(): Int {\n    first()\n    return second()\n}",
		},
		{
			name: "block body returning a parameter after an effect",
			src: "package demo\n\nfun first(): Int = 1\n\nfun g(a: Int): Int {\n    println(0)\n    return a\n}\n\n" +
				"fun use(): Int = g(first())\n",
			inline: "g",
			want:   "fun use(): Int {\n    val a = first()\n    println(0)\n    return a\n}",
		},
		{
			name: "safe call with statements becomes an if expression",
			src: "package demo\n\nclass Box(val v: Int)\n\nfun Box.show(): Int {\n    println(v)\n    return v + 1\n}\n\n" +
				"fun use(b: Box?) = b?.show()\n",
			inline: "show",
			want:   "fun use(b: Box?) = if (b != null) {\n    println(b.v)\n    b.v + 1\n} else null",
		},
		{
			name:   "raw string is merged into a raw string",
			src:    "package demo\n\nfun greet(name: String) = \"\"\"Hi $name\"\"\"\n\nfun use(u: String) = \"\"\"[${greet(u)}]\"\"\"\n",
			inline: "greet",
			want:   "fun use(u: String) = \"\"\"[Hi $u]\"\"\"",
		},
		{
			name:   "raw string stays nested in a plain string",
			src:    "package demo\n\nfun greet(name: String) = \"\"\"Hi $name\"\"\"\n\nfun use(u: String) = \"[${greet(u)}]\"\n",
			inline: "greet",
			want:   "fun use(u: String) = \"[${\"\"\"Hi $u\"\"\"}]\"",
		},
		{
			name:   "usage next to a subclass",
			src:    "package demo\n\nopen class A(val n: Int)\n\nfun one() = 1\n\nclass B : A(1) {\n    fun m() = one()\n}\n\nfun use() = one()\n",
			inline: "one",
			want:   "fun use() = 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, inline.AllPasses(), map[string]string{"a.kt": tt.src})
			results := f.inlineAll(t, f.fun(t, "a.kt", tt.inline))
			if len(results) == 0 {
				t.Fatalf("no usage inlined")
			}
			if diff := gocmp.Diff(tt.want, f.render(t, "a.kt", "use")); diff != "" {
				t.Fatalf("inlined code mismatch (-want +got):\n%s", diff)
			}
			root := f.roots["a.kt"]
			if err := testkit.CheckTreeInvariants(f.tree, root, f.fs.Get(f.tree.Node(root).Span.File)); err != nil {
				t.Fatalf("tree invariants: %v", err)
			}
			for _, r := range results {
				if n := r.Code().Markers().Len(); n != 0 {
					t.Fatalf("markers left after Finish: %d", n)
				}
			}
		})
	}
}

func (f *fixture) node(t *testing.T, file string, kind ast.Kind, name string) ast.NodeID {
	t.Helper()
	found := f.tree.Collect(f.roots[file], func(n ast.NodeID) bool {
		return f.tree.Kind(n) == kind && f.tree.Text(n) == name
	})
	if len(found) == 0 {
		t.Fatalf("%s: %v %s not found", file, kind, name)
	}
	return found[0]
}

func (f *fixture) constructor(t *testing.T, file, class string) ast.NodeID {
	t.Helper()
	found := f.tree.Collect(f.node(t, file, ast.KindClass, class), func(n ast.NodeID) bool {
		return f.tree.Kind(n) == ast.KindConstructor
	})
	if len(found) == 0 {
		t.Fatalf("%s: class %s has no secondary constructor", file, class)
	}
	return found[0]
}

func TestInlineConstructorUsages(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		class string
		want  map[string]string // узел по имени -> ожидаемый текст
	}{
		{
			name: "annotation arguments keep the use-site target",
			src: "package demo\n\n@file:Tag(\"f\")\n\nclass Tag(val name: String, val level: Int) {\n" +
				"    constructor(name: String) : this(name, 1)\n}\n\n@Tag(\"x\")\nfun use() = 1\n",
			class: "Tag",
			want: map[string]string{
				"@file": "@file:Tag(\"f\", 1)",
				"use":   "@Tag(\"x\", 1)\nfun use() = 1",
			},
		},
		{
			name: "super call keeps lambdas in parentheses",
			src: "package demo\n\nopen class Base(val n: Int, val f: () -> Int) {\n    constructor(f: () -> Int) : this(1, f)\n}\n\n" +
				"class Child : Base({ 5 })\n\nfun make() = Base { 5 }\n",
			class: "Base",
			want: map[string]string{
				"Child": "class Child : Base(1, { 5 })",
				"make":  "fun make() = Base(1) { 5 }",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, inline.AllPasses(), map[string]string{"a.kt": tt.src})
			results := f.inlineAll(t, f.constructor(t, "a.kt", tt.class))
			if len(results) != len(tt.want) {
				t.Fatalf("inlined %d usages, want %d", len(results), len(tt.want))
			}
			root := f.roots["a.kt"]
			got := make(map[string]string)
			for key := range tt.want {
				var n ast.NodeID
				switch key {
				case "@file":
					n = f.tree.Child(root, 0)
				case "Child":
					n = f.node(t, "a.kt", ast.KindClass, key)
				default:
					n = f.node(t, "a.kt", ast.KindFun, key)
				}
				got[key] = format.Node(f.tree, n)
			}
			if diff := gocmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("inlined code mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisabledPassKeepsDefaultArgument(t *testing.T) {
	passes := inline.AllPasses()
	passes.DropDefaultArguments = false
	src := "package demo\n\nfun base(a: Int, b: Int = 0) = a + b\n\nfun wrap(x: Int, y: Int = 0) = base(x, y)\n\nfun use() = wrap(5)\n"
	f := load(t, passes, map[string]string{"a.kt": src})
	f.inlineAll(t, f.fun(t, "a.kt", "wrap"))
	if got := f.render(t, "a.kt", "use"); got != "fun use() = base(5, 0)" {
		t.Fatalf("got %q", got)
	}
}

func TestPrepareTemplateRefuses(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fun  string
		code diag.Code
	}{
		{
			name: "return in the middle",
			src:  "package demo\n\nfun pick(x: Int): Int {\n    if (x > 0) return 1\n    return 2\n}\n",
			fun:  "pick",
			code: diag.InlineMultipleReturns,
		},
		{
			name: "recursion",
			src:  "package demo\n\nfun loop(x: Int): Int = loop(x)\n",
			fun:  "loop",
			code: diag.InlineRecursive,
		},
		{
			name: "no body",
			src:  "package demo\n\nfun ext(x: Int): Int\n",
			fun:  "ext",
			code: diag.InlineNoBody,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, inline.AllPasses(), map[string]string{"a.kt": tt.src})
			_, err := f.e.PrepareTemplate(f.fun(t, "a.kt", tt.fun))
			if !errors.Is(err, inline.ErrNotInlinable) {
				t.Fatalf("expected ErrNotInlinable, got %v", err)
			}
			var refusal *inline.RefusalError
			if !errors.As(err, &refusal) || refusal.Code != tt.code {
				t.Fatalf("expected refusal %v, got %v", tt.code, err)
			}
		})
	}
}

func TestNonLocalJumpLeavesLambdaCall(t *testing.T) {
	src := `package demo

fun pick(f: (Int) -> List<Int>) {
    for (x in f(0)) println(x)
}

fun use(xs: List<Int>) {
    while (true) {
        pick { if (it > 0) break else xs }
    }
}
`
	f := load(t, inline.AllPasses(), map[string]string{"a.kt": src})
	f.inlineAll(t, f.fun(t, "a.kt", "pick"))
	got := f.render(t, "a.kt", "use")
	if strings.Contains(got, "pick") {
		t.Fatalf("usage was not inlined:\n%s", got)
	}
	// break внутри for шаблона ушёл бы к другому циклу
	if !strings.Contains(got, "break") || !strings.Contains(got, "(0)") {
		t.Fatalf("lambda call must stay in place:\n%s", got)
	}
	if !hasDiag(f.bag, diag.InlineNonLocalJump) {
		t.Fatalf("expected %v warning, got %v", diag.InlineNonLocalJump, f.bag.Items())
	}
}

func TestJumpingLambdaIsNotStored(t *testing.T) {
	src := `package demo

fun each(xs: List<Int>, f: (Int) -> Unit) {
    for (x in xs) f(x)
}

fun use(xs: List<Int>) {
    while (true) {
        each(xs) { if (it > 0) break }
    }
}
`
	f := load(t, inline.AllPasses(), map[string]string{"a.kt": src})
	decl := f.fun(t, "a.kt", "each")
	tmpl, err := f.e.PrepareTemplate(decl)
	if err != nil {
		t.Fatalf("PrepareTemplate: %v", err)
	}
	refs, err := f.o.FindReferences(context.Background(), decl, f.order)
	if err != nil || len(refs) != 1 {
		t.Fatalf("FindReferences: %v %v", refs, err)
	}
	site, err := inline.SiteFor(f.o, refs[0])
	if err != nil {
		t.Fatalf("SiteFor: %v", err)
	}
	before := f.render(t, "a.kt", "use")
	_, err = f.e.ApplyAtSingleSite(context.Background(), tmpl, site)
	var ue *inline.UsageError
	if !errors.As(err, &ue) || ue.Code != diag.InlineNonLocalJump {
		t.Fatalf("expected %v usage error, got %v", diag.InlineNonLocalJump, err)
	}
	if got := f.render(t, "a.kt", "use"); got != before {
		t.Fatalf("usage changed:\n%s", got)
	}
}

func hasDiag(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCallableReferenceIsUnsupported(t *testing.T) {
	src := "package demo\n\nfun one() = 1\n\nfun use() = ::one\n"
	f := load(t, inline.AllPasses(), map[string]string{"a.kt": src})
	refs, err := f.o.FindReferences(context.Background(), f.fun(t, "a.kt", "one"), f.order)
	if err != nil || len(refs) != 1 {
		t.Fatalf("FindReferences: %v %v", refs, err)
	}
	_, err = inline.SiteFor(f.o, refs[0])
	var ue *inline.UsageError
	if !errors.As(err, &ue) || ue.Code != diag.InlineCallableReference {
		t.Fatalf("expected callable reference error, got %v", err)
	}
}

func TestApplyAtSingleSiteHonoursCancellation(t *testing.T) {
	src := "package demo\n\nfun id(y: Int) = y\n\nfun use(b: Int) = id(b)\n"
	f := load(t, inline.AllPasses(), map[string]string{"a.kt": src})
	decl := f.fun(t, "a.kt", "id")
	tmpl, err := f.e.PrepareTemplate(decl)
	if err != nil {
		t.Fatalf("PrepareTemplate: %v", err)
	}
	refs, _ := f.o.FindReferences(context.Background(), decl, f.order)
	site, err := inline.SiteFor(f.o, refs[0])
	if err != nil {
		t.Fatalf("SiteFor: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.e.ApplyAtSingleSite(ctx, tmpl, site); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := f.render(t, "a.kt", "use"); got != "fun use(b: Int) = id(b)" {
		t.Fatalf("cancelled inline changed the tree: %q", got)
	}
}
