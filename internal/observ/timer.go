// Package observ measures command phases for --timings.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
}

// Timer records named phases of one command. A nil *Timer records nothing,
// so callers do not branch on --timings. Safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase; the returned handle is passed to End.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, phase{name: name, start: t.now()})
	return len(t.phases) - 1
}

func (t *Timer) End(h int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if h < 0 || h >= len(t.phases) {
		return
	}
	t.phases[h].dur = t.now().Sub(t.phases[h].start)
	t.phases[h].note = note
}

// Measure times fn; a failing fn leaves its error text as the note.
func (t *Timer) Measure(name string, fn func() error) error {
	h := t.Begin(name)
	err := fn()
	var note string
	if err != nil {
		note = err.Error()
	}
	t.End(h, note)
	return err
}

type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report — снимок фаз в миллисекундах.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	var r Report
	if t == nil {
		return r
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, p := range t.phases {
		total += p.dur
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: ms(p.dur), Note: p.note})
	}
	r.TotalMS = ms(total)
	return r
}

// Summary renders the report as the aligned table printed on stderr.
func (t *Timer) Summary() string {
	r := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	row := func(name string, v float64, note string) {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", name, v)
		if note != "" {
			fmt.Fprintf(&b, "  // %s", note)
		}
		b.WriteByte('\n')
	}
	for _, p := range r.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", r.TotalMS, "")
	return b.String()
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
