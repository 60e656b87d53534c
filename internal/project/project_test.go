package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/ast"
	"splice/internal/trace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func literal(t *testing.T, ws *Workspace, root ast.NodeID, text string) ast.NodeID {
	t.Helper()
	found := ws.Tree.Collect(root, func(n ast.NodeID) bool {
		return ws.Tree.Kind(n) == ast.KindLiteral && ws.Tree.Text(n) == text
	})
	if len(found) == 0 {
		t.Fatalf("literal %s not found", text)
	}
	return found[0]
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\n")
	nested := filepath.Join(root, "src", "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, ok, err := FindProjectRoot(nested)
	if err != nil || !ok {
		t.Fatalf("FindProjectRoot: ok=%v err=%v", ok, err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Fatalf("expected root %q, got %q", want, got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
[project]
name = "demo"

[inline]
search_jobs = 3

[postprocess]
named_arguments = false
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultConfig()
	want.Project.Name = "demo"
	want.Inline.SearchJobs = 3
	want.PostProcess.NamedArguments = false
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Passes().NamedArguments || !cfg.Passes().RestoreComments {
		t.Fatalf("unexpected passes: %+v", cfg.Passes())
	}
	if cfg.Jobs() != 3 {
		t.Fatalf("expected 3 jobs, got %d", cfg.Jobs())
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown key", content: "[inline]\nfoo = 1\n", want: "unknown keys: inline.foo"},
		{name: "negative jobs", content: "[inline]\nsearch_jobs = -1\n", want: "search_jobs"},
		{name: "trace level", content: "[trace]\nlevel = \"loud\"\n", want: "invalid [trace].level"},
		{name: "absolute source", content: "[project]\nsources = [\"/abs\"]\n", want: "must be relative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, tt.content)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTraceConfigResolvesOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trace.Level = "phase"
	cfg.Trace.Output = "out/trace.ndjson"
	tc, err := cfg.TraceConfig("/proj")
	if err != nil {
		t.Fatalf("TraceConfig: %v", err)
	}
	if tc.Level != trace.LevelPhase || tc.OutputPath != filepath.Join("/proj", "out/trace.ndjson") {
		t.Fatalf("unexpected trace config: %+v", tc)
	}
}

func TestOpenMissingManifest(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir())
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
}

func TestTransactionRollbackAndUndo(t *testing.T) {
	ws, err := New(t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := ws.AddSource("a.kt", []byte("package demo\n\nfun a() = 1\n"))
	lit := literal(t, ws, root, "1")
	ctx := context.Background()

	boom := errors.New("boom")
	err = ws.RunAsTransaction(ctx, "failing", func(context.Context) error {
		ws.Tree.SetText(lit, "2")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := ws.Tree.Text(lit); got != "1" {
		t.Fatalf("failed transaction left %q", got)
	}

	if err := ws.RunAsTransaction(ctx, "edit", func(context.Context) error {
		ws.Tree.SetText(lit, "3")
		return nil
	}); err != nil {
		t.Fatalf("RunAsTransaction: %v", err)
	}
	if len(ws.DirtyRoots()) != 1 {
		t.Fatalf("expected one dirty root")
	}
	label, ok := ws.Undo()
	if !ok || label != "edit" {
		t.Fatalf("Undo: label=%q ok=%v", label, ok)
	}
	if got := ws.Tree.Text(lit); got != "1" {
		t.Fatalf("undo left %q", got)
	}
	if _, ok := ws.Undo(); ok {
		t.Fatalf("expected empty undo stack")
	}
}

func TestTransactionPanicRollsBack(t *testing.T) {
	ws, err := New(t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := ws.AddSource("a.kt", []byte("package demo\n\nfun a() = 1\n"))
	lit := literal(t, ws, root, "1")
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = ws.RunAsTransaction(context.Background(), "panics", func(context.Context) error {
			ws.Tree.SetText(lit, "2")
			panic("boom")
		})
	}()
	if got := ws.Tree.Text(lit); got != "1" {
		t.Fatalf("panicking transaction left %q", got)
	}
}

func TestSaveWritesJournalAndUndoRestores(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nsources = [\"src\"]\n")
	src := filepath.Join(root, "src", "a.kt")
	before := "package demo\n\nfun a() = 1\n"
	writeFile(t, src, before)
	writeFile(t, filepath.Join(root, "src", "b.kt"), "package demo\n\nfun b() = a()\n")

	ctx := context.Background()
	ws, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(ws.Roots()); got != 2 {
		t.Fatalf("expected 2 files, got %d", got)
	}
	fileRoot := ws.Roots()[0]
	if !strings.HasSuffix(ws.File(fileRoot).Path, "a.kt") {
		fileRoot = ws.Roots()[1]
	}
	lit := literal(t, ws, fileRoot, "1")
	if err := ws.RunAsTransaction(ctx, "bump", func(context.Context) error {
		ws.Tree.SetText(lit, "2")
		return nil
	}); err != nil {
		t.Fatalf("RunAsTransaction: %v", err)
	}

	res, err := ws.Save(ctx, SaveOptions{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(res.Changes) != 1 || res.Journal == "" {
		t.Fatalf("unexpected save result: %+v", res)
	}
	after, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(after), "fun a() = 2") {
		t.Fatalf("saved content %q", after)
	}
	if err := ws.RunAsTransaction(ctx, "late", func(context.Context) error { return nil }); !errors.Is(err, ErrSaved) {
		t.Fatalf("expected ErrSaved, got %v", err)
	}

	j, err := UndoFromJournal(root)
	if err != nil {
		t.Fatalf("UndoFromJournal: %v", err)
	}
	if j.Label != "bump" {
		t.Fatalf("unexpected journal label %q", j.Label)
	}
	restored, _ := os.ReadFile(src)
	if diff := cmp.Diff(before, string(restored)); diff != "" {
		t.Fatalf("restored content mismatch (-want +got):\n%s", diff)
	}
	if _, err := ReadJournal(root); !errors.Is(err, ErrNoJournal) {
		t.Fatalf("expected journal to be removed, got %v", err)
	}
}

func TestUndoRefusesStaleFiles(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.kt")
	writeFile(t, src, "edited by hand")
	if _, err := WriteJournal(root, &Journal{Label: "x", Files: []JournalFile{{Path: src, Before: []byte("old"), After: []byte("new")}}}); err != nil {
		t.Fatalf("WriteJournal: %v", err)
	}
	if _, err := UndoFromJournal(root); !errors.Is(err, ErrJournalStale) {
		t.Fatalf("expected ErrJournalStale, got %v", err)
	}
	got, _ := os.ReadFile(src)
	if string(got) != "edited by hand" {
		t.Fatalf("stale undo must not write, got %q", got)
	}
}

func TestSaveDryRunKeepsWorkspaceOpen(t *testing.T) {
	ws, err := New(t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := ws.AddSource("a.kt", []byte("package demo\n\nfun a() = 1\n"))
	lit := literal(t, ws, root, "1")
	ctx := context.Background()
	if err := ws.RunAsTransaction(ctx, "edit", func(context.Context) error {
		ws.Tree.SetText(lit, "5")
		return nil
	}); err != nil {
		t.Fatalf("RunAsTransaction: %v", err)
	}
	res, err := ws.Save(ctx, SaveOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(res.Changes) != 1 || !strings.Contains(string(res.Changes[0].After), "= 5") {
		t.Fatalf("unexpected dry-run result: %+v", res)
	}
	if _, ok := ws.Undo(); !ok {
		t.Fatalf("dry run must keep the undo stack")
	}
}
