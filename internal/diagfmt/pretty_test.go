package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"splice/internal/diag"
	"splice/internal/fix"
	"splice/internal/source"
)

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/src/a.kt", []byte("val s = \"unterminated\n"))
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.LexUnterminatedString, source.Span{File: fileID, Start: 8, End: 21}, "Unterminated string literal"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "absolute", mode: PathModeAbsolute, contains: "/home/user/project/src/a.kt:1:9"},
		{name: "relative", mode: PathModeRelative, contains: "src/a.kt:1:9"},
		{name: "basename", mode: PathModeBasename, contains: "a.kt:1:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			out := buf.String()
			for _, want := range []string{tt.contains, "ERROR", "LEX1002", "Unterminated string literal"} {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out)
				}
			}
		})
	}
}

func TestPrettyContextUnderline(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.kt", []byte("fun a() {\n    foo(1)\n}\n"))
	bag := diag.NewBag(2)
	bag.Add(diag.New(diag.SevWarning, diag.InlineUsageSkipped, source.Span{File: fileID, Start: 14, End: 20}, "usage left unchanged"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})
	want := "a.kt:2:5: WARNING INL4004: usage left unchanged\n" +
		"  1 | fun a() {\n" +
		"  2 |     foo(1)\n" +
		"    |     ^~~~~~\n" +
		"  3 | }\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("import lib.foo\n")
	fileID := fs.AddVirtual("a.kt", content)
	sf := fs.Get(fileID)

	primary := source.Span{File: fileID, Start: 7, End: 14}
	d := diag.New(diag.SevWarning, diag.SemaUnresolvedReference, primary, "unresolved import")
	d = d.WithNote(source.Span{File: fileID, Start: 11, End: 14}, "foo was inlined")
	d.Fixes = append(d.Fixes,
		fix.DeleteSpan("remove import", source.Span{File: fileID, Start: 0, End: 15}, "import lib.foo\n", fix.WithID("drop-import")),
		fix.RewriteFile("rewrite", sf, []byte("\n")),
	)

	bag := diag.NewBag(4)
	bag.Add(d)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true, ShowPreview: true})
	out := buf.String()

	for _, want := range []string{
		"note: a.kt:1:12: foo was inlined",
		"fix #1: remove import [always-safe] id=drop-import",
		`apply=""`,
		"fix #2: rewrite",
		"- import lib.foo",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestPrettyClipsWideLines(t *testing.T) {
	if got := clip("val x = 1234567890", 10); got != "val x =..." {
		t.Fatalf("clip = %q", got)
	}
	if got := clip("short", 0); got != "short" {
		t.Fatalf("clip = %q", got)
	}
}
