package ui

import (
	"strings"
	"testing"

	"splice/internal/refactor"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan refactor.Event)
	m := NewProgressModel("inline", []string{"a.kt"}, events).(*progressModel)

	m.applyEvent(refactor.Event{Title: "Inline foo", Stage: refactor.StageSearch, Status: refactor.StatusQueued})
	m.applyEvent(refactor.Event{File: "a.kt", Stage: refactor.StageSearch, Status: refactor.StatusDone, Usages: 2})
	m.applyEvent(refactor.Event{File: "b.kt", Stage: refactor.StageReplace, Status: refactor.StatusWorking, Usages: 1})
	m.applyEvent(refactor.Event{File: "a.kt", Stage: refactor.StageReplace, Status: refactor.StatusSkipped, Usages: 2, Replaced: 1})

	if m.title != "Inline foo" {
		t.Fatalf("title = %q", m.title)
	}
	if len(m.items) != 2 {
		t.Fatalf("expected a row per file, got %d", len(m.items))
	}
	a, b := m.items[0], m.items[1]
	if a.status != "skipped" || a.replaced != 1 || a.usages != 2 {
		t.Fatalf("unexpected row a: %+v", a)
	}
	if b.status != "inlining" {
		t.Fatalf("unexpected row b: %+v", b)
	}
	view := m.View()
	if !strings.Contains(view, "1/2") || !strings.Contains(view, "Inline foo (queued)") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/app/main.kt", 10); got != "interna..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a.kt", 10); got != "a.kt" {
		t.Fatalf("truncate = %q", got)
	}
}
