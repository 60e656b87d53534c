package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/diag"
	"splice/internal/source"
)

func decode(t *testing.T, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	t.Helper()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	return out
}

func TestJSONPositionsAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("fun a() {\n    return 1\n    return 2\n}\n")
	fileID := fs.AddVirtual("/tmp/proj/a.kt", content)

	bag := diag.NewBag(4)
	d := diag.New(diag.SevError, diag.InlineMultipleReturns, source.Span{File: fileID, Start: 14, End: 22}, "cannot inline a")
	d = d.WithNote(source.Span{File: fileID, Start: 27, End: 35}, "second return")
	bag.Add(d)

	out := decode(t, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true})
	want := DiagnosticsOutput{
		Count: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "INL4001",
			Message:  "cannot inline a",
			Location: LocationJSON{File: "a.kt", StartByte: 14, EndByte: 22, StartLine: 2, StartCol: 5, EndLine: 2, EndCol: 13},
			Notes: []NoteJSON{{
				Message:  "second return",
				Location: LocationJSON{File: "a.kt", StartByte: 27, EndByte: 35, StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 13},
			}},
		}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONFixesAndPreview(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.kt", []byte("val x = foo(1)\n"))
	bag := diag.NewBag(2)
	span := source.Span{File: fileID, Start: 8, End: 14}
	d := diag.New(diag.SevInfo, diag.InlineInfo, span, "inline foo")
	d = d.WithFix("inline call", diag.TextEdit{Span: span, NewText: "1", OldText: "foo(1)"})
	bag.Add(d)

	out := decode(t, bag, fs, JSONOpts{PathMode: PathModeBasename, IncludeFixes: true, IncludePreviews: true})
	fixes := out.Diagnostics[0].Fixes
	if len(fixes) != 1 || len(fixes[0].Edits) != 1 {
		t.Fatalf("unexpected fixes: %+v", fixes)
	}
	want := FixEditJSON{
		Location:    LocationJSON{File: "a.kt", StartByte: 8, EndByte: 14},
		NewText:     "1",
		OldText:     "foo(1)",
		BeforeLines: []string{"val x = foo(1)"},
		AfterLines:  []string{"val x = 1"},
	}
	if diff := cmp.Diff(want, fixes[0].Edits[0]); diff != "" {
		t.Fatalf("edit mismatch (-want +got):\n%s", diff)
	}
	if fixes[0].Applicability != "always-safe" {
		t.Fatalf("applicability = %q", fixes[0].Applicability)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.kt", []byte("fun a() = 1\n"))
	bag := diag.NewBag(10)
	for i := range 5 {
		bag.Add(diag.New(diag.SevWarning, diag.InlineUsageSkipped, source.Span{File: fileID, Start: uint32(i), End: uint32(i + 1)}, "skipped"))
	}
	out := decode(t, bag, fs, JSONOpts{Max: 3})
	if out.Count != 3 || len(out.Diagnostics) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", out.Count)
	}
	if out.Diagnostics[0].Notes != nil || out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("notes and positions must be omitted: %+v", out.Diagnostics[0])
	}
}
