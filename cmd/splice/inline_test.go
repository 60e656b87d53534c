package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/ast"
	"splice/internal/driver"
	"splice/internal/project"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		arg     string
		path    string
		line    uint32
		col     uint32
		wantErr bool
	}{
		{arg: "a.kt:3:7", path: "a.kt", line: 3, col: 7},
		{arg: "C:/src/a.kt:1:1", path: "C:/src/a.kt", line: 1, col: 1},
		{arg: "dir/x:y.kt:10:2", path: "dir/x:y.kt", line: 10, col: 2},
		{arg: "a.kt:3", wantErr: true},
		{arg: "a.kt", wantErr: true},
		{arg: ":1:1", wantErr: true},
		{arg: "a.kt:0:1", wantErr: true},
		{arg: "a.kt:1:x", wantErr: true},
	}
	for _, tt := range tests {
		path, line, col, err := parseLocation(tt.arg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLocation(%q): expected error", tt.arg)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLocation(%q): %v", tt.arg, err)
			continue
		}
		if path != tt.path || line != tt.line || col != tt.col {
			t.Errorf("parseLocation(%q) = %q %d %d, want %q %d %d", tt.arg, path, line, col, tt.path, tt.line, tt.col)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	ws, err := project.New(t.TempDir(), project.DefaultConfig())
	if err != nil {
		t.Fatalf("project.New: %v", err)
	}
	ws.AddSource("a.kt", []byte("fun sq(x: Int) = x * x\nfun use() = sq(3)\n"))
	if ws.Diags.HasErrors() {
		t.Fatalf("parse: %v", ws.Diags.Items())
	}

	tests := []struct {
		name      string
		line, col uint32
		wantUsage bool
	}{
		{"callee", 2, 13, true},
		{"declaration name", 1, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ws.ReferenceAt("a.kt", tt.line, tt.col)
			if err != nil {
				t.Fatalf("ReferenceAt: %v", err)
			}
			decl, usage := resolveTarget(ws.Oracle, ref)
			if ws.Tree.Kind(decl) != ast.KindFun || ws.Tree.Text(decl) != "sq" {
				t.Fatalf("decl = %v %q, want fun sq", ws.Tree.Kind(decl), ws.Tree.Text(decl))
			}
			if got := usage != ast.NoNodeID; got != tt.wantUsage {
				t.Fatalf("usage found = %v, want %v", got, tt.wantUsage)
			}
			if tt.wantUsage && ws.Tree.Kind(usage) != ast.KindName {
				t.Fatalf("usage kind = %v, want name", ws.Tree.Kind(usage))
			}
		})
	}
}

func TestWriteInlineSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	saved := &project.SaveResult{}
	err := writeInlineSummary(&buf, inlineFlags{format: "json", dryRun: true}, "sq", nil, saved, t.TempDir())
	if err != nil {
		t.Fatalf("writeInlineSummary: %v", err)
	}
	var got inlineSummary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	want := inlineSummary{Declaration: "sq", Files: []string{}, DryRun: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRenderFmtText(t *testing.T) {
	results := []driver.FormatResult{
		{Path: "a.kt", Changed: true},
		{Path: "b.kt"},
		{Path: "c.kt", Err: errTest("boom")},
	}
	var out, errOut bytes.Buffer
	hasErrors, hasChanges := renderFmtText(&out, &errOut, results, true, false)
	if !hasErrors || !hasChanges {
		t.Fatalf("hasErrors=%v hasChanges=%v", hasErrors, hasChanges)
	}
	if out.String() != "a.kt\n" {
		t.Fatalf("stdout = %q", out.String())
	}
	if errOut.String() != "fmt: c.kt: boom\n" {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
