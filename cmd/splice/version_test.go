package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"splice/internal/version"
)

func TestWriteVersionJSON(t *testing.T) {
	info := buildInfo{Version: "1.2.3", Commit: "abc123", Built: "unknown"}
	var buf bytes.Buffer
	if err := writeVersion(&buf, info, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got buildInfo
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(info, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestCurrentBuildVerbose(t *testing.T) {
	origVersion, origCommit, origNoColor := version.Version, version.GitCommit, color.NoColor
	t.Cleanup(func() { version.Version, version.GitCommit, color.NoColor = origVersion, origCommit, origNoColor })
	version.Version, version.GitCommit = "2.0.1", " deadbeef "
	color.NoColor = true

	if diff := cmp.Diff(buildInfo{Version: "2.0.1"}, currentBuild(false)); diff != "" {
		t.Fatalf("short (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := writeVersion(&buf, currentBuild(true), false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "splice 2.0.1\n  commit:  deadbeef\n  message: unknown\n  built:   unknown\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
