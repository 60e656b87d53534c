package inline_test

import (
	"testing"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/inline"
	"splice/internal/parser"
	"splice/internal/source"
)

func TestShouldKeepValue(t *testing.T) {
	tests := []struct {
		expr  string
		count int
		want  bool
	}{
		{"f()", 1, false},
		{"f()", 0, true},
		{"f()", 2, true},
		{"x", 2, false},
		{"42", 3, false},
		{"a.b", 2, false},
		{"a.f()", 2, true},
		{"a + b", 2, false},
		{"(x)", 3, false},
		{"i++", 0, true},
		{`"$x"`, 2, true},
		{`"$x"`, 0, false},
		{`"${f()}"`, 0, true},
		{"{ x }", 2, true},
		{"{ x }", 0, false},
		{"a[0]", 2, true},
		{"a[0]", 0, false},
		{"a[f()]", 0, true},
		{"if (c) a else b", 2, true},
		{"if (c) a else b", 0, false},
	}
	for _, tt := range tests {
		fs := source.NewFileSet()
		tree := ast.NewTree(16)
		bag := diag.NewBag(4)
		e, ok := parser.ParseExpression(tree, fs.Get(fs.AddVirtual("e.kt", []byte(tt.expr))), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		if !ok || bag.HasErrors() {
			t.Fatalf("%s: parse failed: %v", tt.expr, bag.Items())
		}
		if got := inline.ShouldKeepValue(tree, e, tt.count); got != tt.want {
			t.Errorf("ShouldKeepValue(%s, %d) = %v, want %v", tt.expr, tt.count, got, tt.want)
		}
	}
}
