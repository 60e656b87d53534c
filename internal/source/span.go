package source

import "fmt"

// Span is a half-open byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool { return s.End <= s.Start }

func (s Span) Len() uint32 {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span holding both s and other.
// Spans of different files do not combine; s is returned as is.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	return Span{File: s.File, Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Contains reports whether other lies inside s, bounds inclusive.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// Intersects reports whether the spans share at least one byte.
func (s Span) Intersects(other Span) bool {
	return s.File == other.File && s.Start < other.End && other.Start < s.End
}

// Within reports whether s fits into content of length n.
func (s Span) Within(n int) bool {
	return s.Start <= s.End && int(s.End) <= n
}
