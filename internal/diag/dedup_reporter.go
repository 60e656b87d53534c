package diag

import (
	"sync"

	"splice/internal/source"
)

// DedupReporter forwards each distinct diagnostic once. Project-wide
// inlining revisits usages on every fixpoint iteration, so the same skip
// can be reported repeatedly.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[diagKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[diagKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	k := keyOf(code, sev, primary, msg)
	r.mu.Lock()
	_, dup := r.seen[k]
	r.seen[k] = struct{}{}
	r.mu.Unlock()
	if !dup && r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
