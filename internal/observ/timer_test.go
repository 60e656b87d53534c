package observ

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimerReport(t *testing.T) {
	clock := time.Unix(0, 0)
	tm := NewTimer()
	tm.now = func() time.Time { return clock }

	load := tm.Begin("load")
	clock = clock.Add(2 * time.Millisecond)
	tm.End(load, "3 files")
	err := tm.Measure("inline", func() error {
		clock = clock.Add(500 * time.Microsecond)
		return errors.New("cancelled")
	})
	if err == nil {
		t.Fatalf("Measure must return fn error")
	}

	want := Report{
		TotalMS: 2.5,
		Phases: []PhaseReport{
			{Name: "load", DurationMS: 2, Note: "3 files"},
			{Name: "inline", DurationMS: 0.5, Note: "cancelled"},
		},
	}
	if diff := cmp.Diff(want, tm.Report()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if s := tm.Summary(); !strings.Contains(s, "// 3 files") || !strings.Contains(s, "total") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}

func TestNilTimerIsNoop(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported phases")
	}
}
