package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetKeepsVersionsPerPath(t *testing.T) {
	fs := NewFileSet()
	id1 := fs.Add("a.kt", []byte("fun a() = 1"), 0)
	id2 := fs.Add("a.kt", []byte("fun a() = 2"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("a.kt")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "fun a() = 1" {
		t.Fatalf("old version lost: %q", got)
	}
	if fs.Get(FileID(42)) != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestLoadNormalizesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.kt")
	// BOM + CRLF + decomposed "é" (e + U+0301)
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("val é = 1\r\n")...)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if got, want := string(f.Content), "val é = 1\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	for _, flag := range []FileFlags{FileHadBOM, FileNormalizedCRLF, FileNormalizedNFC} {
		if f.Flags&flag == 0 {
			t.Fatalf("flag %d not set (flags=%b)", flag, f.Flags)
		}
	}
}

func TestResolveAndOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.kt", []byte("fun a() {\n    b()\n}\n"))
	off, err := fs.Offset(id, LineCol{Line: 2, Col: 5})
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if off != 14 {
		t.Fatalf("offset = %d, want 14", off)
	}
	start, _ := fs.Resolve(Span{File: id, Start: off, End: off + 1})
	if start != (LineCol{Line: 2, Col: 5}) {
		t.Fatalf("Resolve = %+v", start)
	}
	if _, err := fs.Offset(id, LineCol{Line: 9, Col: 1}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestSpanRelations(t *testing.T) {
	outer := Span{File: 1, Start: 10, End: 30}
	inner := Span{File: 1, Start: 12, End: 20}
	other := Span{File: 2, Start: 12, End: 20}
	if !outer.Contains(inner) || inner.Contains(outer) {
		t.Fatalf("Contains is wrong")
	}
	if outer.Contains(other) || outer.Intersects(other) {
		t.Fatalf("spans of different files must not relate")
	}
	if !outer.Intersects(Span{File: 1, Start: 29, End: 40}) {
		t.Fatalf("expected intersection")
	}
	if !inner.Within(20) || inner.Within(19) {
		t.Fatalf("Within is wrong for %v", inner)
	}
	if got := outer.Cover(Span{File: 1, Start: 5, End: 12}); got != (Span{File: 1, Start: 5, End: 30}) {
		t.Fatalf("Cover = %v", got)
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "other", "file.kt")
	got, err := RelativePath(target, filepath.Join(tmp, "base"))
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if got != normalizePath(target) {
		t.Fatalf("got %q, want absolute %q", got, normalizePath(target))
	}
	got, err = RelativePath(filepath.Join(tmp, "base", "n", "f.kt"), filepath.Join(tmp, "base"))
	if err != nil || got != "n/f.kt" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestLineRange(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("lines.kt", []byte("ab\n\ncd")))
	tests := []struct {
		line       uint32
		start, end uint32
		ok         bool
		text       string
	}{
		{0, 0, 0, false, ""},
		{1, 0, 2, true, "ab"},
		{2, 3, 3, true, ""},
		{3, 4, 6, true, "cd"},
		{4, 0, 0, false, ""},
	}
	for _, tt := range tests {
		start, end, ok := f.LineRange(tt.line)
		if start != tt.start || end != tt.end || ok != tt.ok {
			t.Errorf("LineRange(%d) = %d %d %v, want %d %d %v", tt.line, start, end, ok, tt.start, tt.end, tt.ok)
		}
		if got := f.GetLine(tt.line); got != tt.text {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.text)
		}
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	got, crlf := normalizeCRLF([]byte("a\r\nb\rc\r\n"))
	if string(got) != "a\nb\rc\n" || !crlf {
		t.Fatalf("normalizeCRLF = %q %v", got, crlf)
	}
	got, bom := removeBOM([]byte("\xEF\xBB\xBFfun"))
	if string(got) != "fun" || !bom {
		t.Fatalf("removeBOM = %q %v", got, bom)
	}
}
