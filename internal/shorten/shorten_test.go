package shorten_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/format"
	"splice/internal/parser"
	"splice/internal/sema"
	"splice/internal/shorten"
	"splice/internal/source"
)

const lib = "package lib\n\nclass Box(val v: Int)\n\nfun helper() = 1\n"

func parse(t *testing.T, files ...string) (*sema.Oracle, []ast.NodeID) {
	t.Helper()
	fs := source.NewFileSet()
	tree := ast.NewTree(128)
	prelude, err := sema.LoadPrelude(fs, tree)
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	var roots []ast.NodeID
	for i := 0; i+1 < len(files); i += 2 {
		bag := diag.NewBag(16)
		id := fs.AddVirtual(files[i], []byte(files[i+1]))
		roots = append(roots, parser.ParseFile(tree, fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}}))
		if bag.HasErrors() {
			t.Fatalf("%s: %v", files[i], bag.Items())
		}
	}
	return sema.New(tree, prelude), roots
}

func fun(t *testing.T, tree *ast.Tree, root ast.NodeID, name string) ast.NodeID {
	t.Helper()
	found := tree.Collect(root, func(n ast.NodeID) bool {
		return tree.Kind(n) == ast.KindFun && tree.Text(n) == name
	})
	if len(found) == 0 {
		t.Fatalf("fun %s not found", name)
	}
	return found[0]
}

func imports(tree *ast.Tree, root ast.NodeID) []string {
	var out []string
	for _, c := range tree.Children(root) {
		if tree.Kind(c) == ast.KindImport {
			out = append(out, tree.Text(c))
		}
	}
	return out
}

func TestShorten(t *testing.T) {
	tests := []struct {
		name        string
		app         string
		want        string
		wantImports []string
		wantStats   shorten.Stats
	}{
		{
			name:        "adds import for call",
			app:         "package app\n\nfun use() = lib.helper()\n",
			want:        "fun use() = helper()",
			wantImports: []string{"lib.helper"},
			wantStats:   shorten.Stats{Shortened: 1, Imported: 1},
		},
		{
			name:        "existing import",
			app:         "package app\n\nimport lib.helper\n\nfun use() = lib.helper()\n",
			want:        "fun use() = helper()",
			wantImports: []string{"lib.helper"},
			wantStats:   shorten.Stats{Shortened: 1},
		},
		{
			name:      "local declaration wins",
			app:       "package app\n\nfun helper() = 2\n\nfun use() = lib.helper()\n",
			want:      "fun use() = lib.helper()",
			wantStats: shorten.Stats{},
		},
		{
			name:        "type reference",
			app:         "package app\n\nfun use(b: lib.Box) = 0\n",
			want:        "fun use(b: Box) = 0",
			wantImports: []string{"lib.Box"},
			wantStats:   shorten.Stats{Shortened: 1, Imported: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, roots := parse(t, "app.kt", tt.app, "lib.kt", lib)
			tree := o.Tree()
			use := fun(t, tree, roots[0], "use")
			st := shorten.Shorten(o, []shorten.Request{{Nodes: []ast.NodeID{use}}})
			if diff := cmp.Diff(tt.wantStats, st); diff != "" {
				t.Fatalf("stats mismatch (-want +got):\n%s", diff)
			}
			if got := format.Node(tree, use); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if diff := cmp.Diff(tt.wantImports, imports(tree, roots[0])); diff != "" {
				t.Fatalf("imports mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShortenKeepsAmbiguousNames(t *testing.T) {
	o, roots := parse(t,
		"app.kt", "package app\n\nfun use() = lib.helper() + other.helper()\n",
		"lib.kt", lib,
		"other.kt", "package other\n\nfun helper() = 3\n",
	)
	tree := o.Tree()
	use := fun(t, tree, roots[0], "use")
	st := shorten.Shorten(o, []shorten.Request{{Nodes: []ast.NodeID{use}}})
	if st != (shorten.Stats{}) {
		t.Fatalf("unexpected stats %+v", st)
	}
	if got := format.Node(tree, use); got != "fun use() = lib.helper() + other.helper()" {
		t.Fatalf("got %q", got)
	}
}

func TestExplicitImports(t *testing.T) {
	o, roots := parse(t, "app.kt", "package app\n\nimport lib.Box\n\nfun use() = 0\n", "lib.kt", lib)
	tree := o.Tree()
	req := shorten.Request{File: roots[0], Imports: []string{"lib.helper", "lib.Box", "kotlin.println"}}
	if st := shorten.Shorten(o, []shorten.Request{req}); st.Imported != 1 {
		t.Fatalf("expected one import, got %+v", st)
	}
	if diff := cmp.Diff([]string{"lib.Box", "lib.helper"}, imports(tree, roots[0])); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
	if st := shorten.Shorten(o, []shorten.Request{req}); st.Imported != 0 {
		t.Fatalf("second run must not import again, got %+v", st)
	}
}
