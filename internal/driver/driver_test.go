package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.kt", "fun f(a: Int) = a + 1\n")
	bad := writeFile(t, dir, "bad.kt", "fun f(a: Int = \n")

	res, err := Parse(ok, 16)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if !strings.Contains(res.Tree.Dump(res.Root), "Fun") {
		t.Fatalf("dump has no function:\n%s", res.Tree.Dump(res.Root))
	}

	res, err = Parse(bad, 16)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected syntax errors")
	}

	if _, err := Parse(filepath.Join(dir, "missing.kt"), 16); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFormatPaths(t *testing.T) {
	dir := t.TempDir()
	messy := writeFile(t, dir, "a.kt", "fun  f( a:Int )=a+1\n")
	clean := writeFile(t, dir, "sub/b.kt", "fun g(a: Int) = a + 1\n")
	writeFile(t, dir, ".hidden/c.kt", "fun  h( )=1\n")
	writeFile(t, dir, "notes.txt", "fun  x( )=1\n")

	results, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{Check: true})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	type row struct {
		Path    string
		Changed bool
	}
	var got []row
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Path, r.Err)
		}
		got = append(got, row{r.Path, r.Changed})
	}
	want := []row{{messy, true}, {clean, false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("check results (-want +got):\n%s", diff)
	}
	if data, _ := os.ReadFile(messy); string(data) != "fun  f( a:Int )=a+1\n" {
		t.Fatalf("check rewrote the file: %q", data)
	}

	results, err = FormatPaths(context.Background(), []string{messy}, FormatOptions{Stdout: true})
	if err != nil {
		t.Fatalf("stdout: %v", err)
	}
	if got := string(results[0].Formatted); got != "fun f(a: Int) = a + 1\n" {
		t.Fatalf("formatted = %q", got)
	}

	if _, err := FormatPaths(context.Background(), []string{messy, messy}, FormatOptions{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if data, _ := os.ReadFile(messy); string(data) != "fun f(a: Int) = a + 1\n" {
		t.Fatalf("file not rewritten: %q", data)
	}
}

func TestFormatPathsRejectsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.kt", "fun f(\n")
	results, err := FormatPaths(context.Background(), []string{bad}, FormatOptions{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected a per-file error, got %+v", results)
	}
	if data, _ := os.ReadFile(bad); string(data) != "fun f(\n" {
		t.Fatalf("broken file rewritten: %q", data)
	}
}

func TestFormatPathsWithoutSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "# nothing\n")
	if _, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{}); err == nil {
		t.Fatal("expected an error when no sources are found")
	}
}
