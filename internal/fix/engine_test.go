package fix

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/diag"
	"splice/internal/source"
)

func virtualFile(t *testing.T, content string) (*source.FileSet, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.kt", []byte(content))
	return fs, fs.Get(id)
}

func TestApplyEditsRightToLeft(t *testing.T) {
	fs, f := virtualFile(t, "val x = foo(1) + foo(2)")
	fixes := []diag.Fix{
		ReplaceSpan("first", source.Span{File: f.ID, Start: 8, End: 14}, "1", "foo(1)"),
		ReplaceSpan("second", source.Span{File: f.ID, Start: 17, End: 23}, "2", "foo(2)"),
	}
	res, err := Apply(fs, fixes, Options{DryRun: true, AllowVirtual: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(res.Changes))
	}
	if diff := cmp.Diff("val x = 1 + 2", string(res.Changes[0].After)); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
	if res.Changes[0].EditCount != 2 {
		t.Fatalf("expected 2 edits, got %d", res.Changes[0].EditCount)
	}
}

func TestApplySkipsStaleGuard(t *testing.T) {
	fs, f := virtualFile(t, "val x = 1")
	fixes := []diag.Fix{ReplaceSpan("stale", source.Span{File: f.ID, Start: 0, End: 3}, "var", "let")}
	res, err := Apply(fs, fixes, Options{DryRun: true, AllowVirtual: true})
	if !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}

func TestApplySkipsOverlappingFix(t *testing.T) {
	fs, f := virtualFile(t, "abcdef")
	fixes := []diag.Fix{
		ReplaceSpan("a", source.Span{File: f.ID, Start: 0, End: 4}, "X", ""),
		ReplaceSpan("b", source.Span{File: f.ID, Start: 2, End: 6}, "Y", ""),
	}
	res, err := Apply(fs, fixes, Options{DryRun: true, AllowVirtual: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := string(res.Changes[0].After); got != "Xef" {
		t.Fatalf("expected %q, got %q", "Xef", got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Title != "b" {
		t.Fatalf("expected fix b to be skipped, got %+v", res.Skipped)
	}
}

func TestApplyRefusesVirtualFiles(t *testing.T) {
	fs, f := virtualFile(t, "x")
	_, err := Apply(fs, []diag.Fix{InsertText("ins", source.Span{File: f.ID}, "y")}, Options{DryRun: true})
	if !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
}

func TestRewriteFileGuardsLoadedContent(t *testing.T) {
	fs, f := virtualFile(t, "fun a() = 1\n")
	fx := RewriteFile("rewrite", f, []byte("fun a() = 2\n"))
	if len(fx.Edits) != 1 || fx.Edits[0].OldText != "fun a() = 1\n" {
		t.Fatalf("unexpected edits: %+v", fx.Edits)
	}
	res, err := Apply(fs, []diag.Fix{fx}, Options{DryRun: true, AllowVirtual: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := string(res.Changes[0].After); got != "fun a() = 2\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestNonSafeFixIsSkipped(t *testing.T) {
	fs, f := virtualFile(t, "x")
	fx := InsertText("ins", source.Span{File: f.ID}, "y", WithApplicability(diag.FixApplicabilityManualReview), WithID("ins-1"))
	res, _ := Apply(fs, []diag.Fix{fx}, Options{DryRun: true, AllowVirtual: true})
	if len(res.Skipped) != 1 || res.Skipped[0].ID != "ins-1" {
		t.Fatalf("expected manual-review fix to be skipped, got %+v", res.Skipped)
	}
}
