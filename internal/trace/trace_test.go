package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"off", LevelOff, false},
		{"PHASE", LevelPhase, false},
		{"Detail", LevelDetail, false},
		{"debug", LevelDebug, false},
		{"verbose", LevelOff, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestShouldEmit(t *testing.T) {
	scopes := []Scope{ScopeCommand, ScopePhase, ScopeFile, ScopeUsage}
	tests := []struct {
		level Level
		want  []bool
	}{
		{LevelOff, []bool{false, false, false, false}},
		{LevelError, []bool{false, false, false, false}},
		{LevelPhase, []bool{true, true, false, false}},
		{LevelDetail, []bool{true, true, true, false}},
		{LevelDebug, []bool{true, true, true, true}},
	}
	for _, tt := range tests {
		var got []bool
		for _, s := range scopes {
			got = append(got, tt.level.ShouldEmit(s))
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%v (-want +got):\n%s", tt.level, diff)
		}
	}
}

func TestRingKeepsNewestEvents(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopePhase, Name: name})
	}
	var got []string
	for _, ev := range r.Snapshot() {
		got = append(got, ev.Name)
	}
	if diff := cmp.Diff([]string{"b", "c", "d"}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestSpansNestThroughContext(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), r)

	ctx, cmd := Start(ctx, ScopeCommand, "inline sq")
	fctx, file := Start(ctx, ScopeFile, "a.kt")
	_, usage := Start(fctx, ScopeUsage, "a.kt:2:13")
	usage.End("")
	file.WithExtra("usages", "1").End("done")
	cmd.End("")

	evs := r.Snapshot()
	if len(evs) != 4 {
		t.Fatalf("expected 4 events (usage filtered), got %d", len(evs))
	}
	if evs[1].ParentID != evs[0].SpanID {
		t.Fatalf("file span parent = %d, want %d", evs[1].ParentID, evs[0].SpanID)
	}
	if evs[2].Kind != KindSpanEnd || evs[2].Detail != "done" || evs[2].Extra["usages"] != "1" {
		t.Fatalf("unexpected file end event %+v", evs[2])
	}
}

func TestFormatEvent(t *testing.T) {
	ev := &Event{
		Time:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Seq:    7,
		Kind:   KindSpanEnd,
		Scope:  ScopePhase,
		SpanID: 3,
		Name:   "save",
		Detail: "2 files",
		Extra:  map[string]string{"b": "2", "a": "1"},
	}
	if got := string(FormatEvent(ev, FormatText)); got != "03:04:05.000 [phase] < save (2 files) {a=1, b=2}\n" {
		t.Fatalf("text = %q", got)
	}
	var decoded map[string]any
	line := FormatEvent(ev, FormatNDJSON)
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatalf("ndjson: %v", err)
	}
	if decoded["kind"] != "end" || decoded["name"] != "save" || decoded["scope"] != "phase" {
		t.Fatalf("unexpected ndjson %s", line)
	}
}

func TestStreamTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Format: FormatText, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithTracer(context.Background(), tr)
	_, sp := Start(ctx, ScopePhase, "load")
	sp.End("")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := strings.Count(buf.String(), "load"); n != 2 {
		t.Fatalf("expected begin and end lines, got:\n%s", buf.String())
	}
}

func TestParseModeAndFormat(t *testing.T) {
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	for in, want := range map[string]Format{"": FormatAuto, "TEXT": FormatText, "json": FormatNDJSON} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if got := formatFor(FormatAuto, "run.ndjson"); got != FormatNDJSON {
		t.Errorf("formatFor(.ndjson) = %v", got)
	}
}

func TestOffLevelIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatal("off tracer must be disabled")
	}
	sp := Begin(tr, ScopeCommand, "noop", 0)
	if d := sp.End(""); d != 0 || sp.ID() != 0 {
		t.Fatalf("expected inert span, got id=%d d=%v", sp.ID(), d)
	}
}

func TestCrashDumpOnlyForRing(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithTracer(context.Background(), tr)
	_, sp := Start(ctx, ScopeFile, "b.kt")
	sp.End("failed")

	var buf bytes.Buffer
	if err := CrashDump(tr, &buf); err != nil {
		t.Fatalf("CrashDump: %v", err)
	}
	if !strings.Contains(buf.String(), "last 2 events") || !strings.Contains(buf.String(), "< b.kt (failed)") {
		t.Fatalf("unexpected dump:\n%s", buf.String())
	}

	buf.Reset()
	stream := NewStreamTracer(&bytes.Buffer{}, LevelPhase, FormatText)
	if err := CrashDump(stream, &buf); err != nil || buf.Len() != 0 {
		t.Fatalf("stream tracer must not dump, got %q, %v", buf.String(), err)
	}
}

func TestHeartbeatBeatsUntilStopped(t *testing.T) {
	r := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	n := len(r.Snapshot())
	if n == 0 || r.Snapshot()[0].Kind != KindHeartbeat {
		t.Fatalf("expected heartbeat events, got %d", n)
	}
	time.Sleep(5 * time.Millisecond)
	if got := len(r.Snapshot()); got != n {
		t.Fatalf("heartbeat kept beating after Stop: %d -> %d", n, got)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("disabled tracer must not start a heartbeat")
	}
}
