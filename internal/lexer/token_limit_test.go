package lexer

import (
	"strings"
	"testing"

	"splice/internal/diag"
	"splice/internal/source"
	"splice/internal/token"
)

func TestOverlongTokenStopsLexing(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"identifier", strings.Repeat("a", maxTokenLength+1)},
		{"number", strings.Repeat("7", maxTokenLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			bag := diag.NewBag(4)
			lx := New(fs.Get(fs.AddVirtual("long.kt", []byte(tt.src))), Options{Reporter: diag.BagReporter{Bag: bag}})

			if tok := lx.Next(); tok.Kind != token.Invalid {
				t.Fatalf("got %v, want Invalid", tok.Kind)
			}
			items := bag.Items()
			if len(items) != 1 || items[0].Code != diag.LexTokenTooLong {
				t.Fatalf("unexpected diagnostics %+v", items)
			}
			if tok := lx.Next(); tok.Kind != token.EOF {
				t.Fatalf("got %v after overlong token, want EOF", tok.Kind)
			}
		})
	}
}
