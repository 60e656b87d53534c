package trace

import "time"

// Kind of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point", KindHeartbeat: "heartbeat"}

func (k Kind) String() string { return nameOf(kindNames[:], int(k)) }

// Scope is the granularity of an event; smaller values are coarser.
type Scope uint8

const (
	ScopeCommand Scope = iota + 1 // one CLI command
	ScopePhase                    // load, prepare, replace, save
	ScopeFile                     // work on one file
	ScopeUsage                    // one usage site
)

var scopeNames = [...]string{ScopeCommand: "command", ScopePhase: "phase", ScopeFile: "file", ScopeUsage: "usage"}

func (s Scope) String() string { return nameOf(scopeNames[:], int(s)) }

func nameOf(names []string, i int) string {
	if i <= 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

// Event is one trace record. Seq grows monotonically across the process;
// ParentID is 0 for root spans and GID tells concurrent spans apart.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	GID      uint64
	Name     string // "load", "file:src/a.kt", ...
	Detail   string
	Extra    map[string]string
}
