package lexer

import (
	"testing"

	"splice/internal/source"
)

func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kt", []byte(content))
	return fs.Get(id)
}

func TestCursorPeekAndBump(t *testing.T) {
	c := NewCursor(createFile("a\nb"))
	for _, want := range []byte{'a', '\n', 'b'} {
		if c.EOF() {
			t.Fatalf("unexpected EOF before %q", want)
		}
		if got := c.Peek(); got != want {
			t.Fatalf("Peek = %q, want %q", got, want)
		}
		if got := c.Bump(); got != want {
			t.Fatalf("Bump = %q, want %q", got, want)
		}
	}
	if !c.EOF() || c.Peek() != 0 || c.Bump() != 0 {
		t.Fatalf("expected EOF, got off=%d", c.Off)
	}
}

func TestCursorPeekAtRespectsLimit(t *testing.T) {
	c := NewCursor(createFile("abcdef"))
	c.Off, c.Limit = 1, 4
	tests := []struct {
		i    uint32
		want byte
	}{{0, 'b'}, {1, 'c'}, {2, 'd'}, {3, 0}, {10, 0}}
	for _, tt := range tests {
		if got := c.PeekAt(tt.i); got != tt.want {
			t.Errorf("PeekAt(%d) = %q, want %q", tt.i, got, tt.want)
		}
	}
	if c.HasPrefix("bcde") {
		t.Error("HasPrefix must not look past Limit")
	}
}

func TestCursorMatch(t *testing.T) {
	c := NewCursor(createFile("?.?:"))
	if c.Match("?:") {
		t.Fatal("Match(?:) should fail at ?.")
	}
	if c.Off != 0 {
		t.Fatalf("failed Match moved cursor to %d", c.Off)
	}
	if !c.Match("?.") || !c.Match("?:") {
		t.Fatalf("Match failed at %d", c.Off)
	}
	if !c.EOF() || c.Match("x") {
		t.Fatal("expected EOF")
	}
}

func TestCursorEat(t *testing.T) {
	c := NewCursor(createFile("ab"))
	if c.Eat('x') {
		t.Fatal("Eat(x) should fail")
	}
	if !c.Eat('a') || !c.Eat('b') {
		t.Fatalf("Eat failed at %d", c.Off)
	}
	if c.Eat('b') {
		t.Fatal("Eat at EOF should fail")
	}
}

func TestCursorRunes(t *testing.T) {
	c := NewCursor(createFile("жa"))
	r, sz := c.PeekRune()
	if r != 'ж' || sz != 2 {
		t.Fatalf("PeekRune = %q/%d", r, sz)
	}
	c.BumpRune()
	if c.Off != 2 {
		t.Fatalf("BumpRune moved to %d", c.Off)
	}
	c.BumpRune()
	c.BumpRune()
	if _, sz := c.PeekRune(); sz != 0 || c.Off != 3 {
		t.Fatalf("expected EOF at 3, off=%d size=%d", c.Off, sz)
	}
}

func TestCursorEatIdent(t *testing.T) {
	tests := []struct {
		src  string
		ok   bool
		want string
	}{
		{"foo.bar", true, "foo"},
		{"_x1 ", true, "_x1"},
		{"имя2+", true, "имя2"},
		{"1abc", false, ""},
		{"+", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		f := createFile(tt.src)
		c := NewCursor(f)
		start := c.Mark()
		ok := c.EatIdent()
		sp := c.SpanFrom(start)
		if ok != tt.ok || string(f.Content[sp.Start:sp.End]) != tt.want {
			t.Errorf("EatIdent(%q) = %v %q, want %v %q", tt.src, ok, f.Content[sp.Start:sp.End], tt.ok, tt.want)
		}
	}
}

func TestCursorMarkReset(t *testing.T) {
	c := NewCursor(createFile("hello"))
	c.Bump()
	m := c.Mark()
	c.Bump()
	c.Bump()
	if sp := c.SpanFrom(m); sp.Start != 1 || sp.End != 3 {
		t.Fatalf("SpanFrom = %v", sp)
	}
	c.Reset(m)
	if c.Peek() != 'e' {
		t.Fatalf("after Reset Peek = %q", c.Peek())
	}
}
