package trace

import (
	"fmt"
	"slices"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // only the crash dump of the ring buffer
	LevelPhase        // command and phase boundaries
	LevelDetail       // plus per-file work
	LevelDebug        // plus every usage site
)

var levelNames = []string{"off", "error", "phase", "detail", "debug"}

// finest scope each level lets through; 0 - ничего
var levelScopes = [...]Scope{LevelPhase: ScopePhase, LevelDetail: ScopeFile, LevelDebug: ScopeUsage}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level; case is ignored.
func ParseLevel(s string) (Level, error) {
	i := slices.Index(levelNames, strings.ToLower(s))
	if i < 0 {
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames, "|"))
	}
	return Level(i), nil
}

// ShouldEmit reports whether events of scope pass the level.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(levelScopes) && scope <= levelScopes[l]
}
