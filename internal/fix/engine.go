package fix

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"splice/internal/diag"
	"splice/internal/source"
)

// ErrNoChanges is returned when no fix produced a change.
var ErrNoChanges = errors.New("no changes to apply")

// Options configures Apply.
type Options struct {
	// DryRun computes the new contents without writing anything.
	DryRun bool
	// AllowVirtual applies fixes to virtual files in memory only.
	AllowVirtual bool
}

// FileChange is the outcome for one file.
type FileChange struct {
	File      source.FileID
	Path      string
	EditCount int
	Before    []byte
	After     []byte
}

// SkippedFix is a fix that could not be applied.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

type Result struct {
	Changes []FileChange
	Skipped []SkippedFix
}

// Apply applies every always-safe fix. A fix is all or nothing: when one of
// its edits fails its guard or overlaps an edit applied before, the whole
// fix is skipped. Files are written only after every fix was staged.
func Apply(fs *source.FileSet, fixes []diag.Fix, opts Options) (*Result, error) {
	res := &Result{}
	if fs == nil {
		return res, errors.New("fix: FileSet is nil")
	}
	buffers := make(map[source.FileID][]byte)
	applied := make(map[source.FileID][]diag.TextEdit)
	counts := make(map[source.FileID]int)
	var order []source.FileID

	for _, f := range fixes {
		if f.Applicability != diag.FixApplicabilityAlwaysSafe {
			res.Skipped = append(res.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: "applicability is " + f.Applicability.String()})
			continue
		}
		if len(f.Edits) == 0 {
			res.Skipped = append(res.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
			continue
		}
		staged, reason := stage(fs, f, buffers, applied, opts)
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: reason})
			continue
		}
		for id, st := range staged {
			if _, ok := buffers[id]; !ok {
				order = append(order, id)
			}
			buffers[id] = st.buf
			applied[id] = st.applied
			counts[id] += st.edits
		}
	}
	if len(order) == 0 {
		return res, ErrNoChanges
	}

	slices.Sort(order)
	for _, id := range order {
		file := fs.Get(id)
		ch := FileChange{File: id, Path: file.Path, EditCount: counts[id], Before: file.Content, After: buffers[id]}
		if !opts.DryRun && file.Flags&source.FileVirtual == 0 {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, ch.After, mode); err != nil {
				return res, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		res.Changes = append(res.Changes, ch)
	}
	return res, nil
}

type stagedFile struct {
	buf     []byte
	applied []diag.TextEdit
	edits   int
}

func stage(fs *source.FileSet, f diag.Fix, buffers map[source.FileID][]byte, applied map[source.FileID][]diag.TextEdit, opts Options) (map[source.FileID]stagedFile, string) {
	byFile := make(map[source.FileID][]diag.TextEdit)
	for _, e := range f.Edits {
		byFile[e.Span.File] = append(byFile[e.Span.File], e)
	}
	out := make(map[source.FileID]stagedFile, len(byFile))
	for id, edits := range byFile {
		file := fs.Get(id)
		if file == nil {
			return nil, "unknown file"
		}
		if file.Flags&source.FileVirtual != 0 && !opts.AllowVirtual {
			return nil, "target file is virtual"
		}
		prev := applied[id]
		for _, e := range edits {
			if slices.ContainsFunc(prev, func(p diag.TextEdit) bool { return overlaps(p, e) }) {
				return nil, "conflicts with a previously applied edit in " + file.Path
			}
		}
		buf := buffers[id]
		if buf == nil {
			buf = file.Content
		}
		// справа налево, чтобы смещения ещё не применённых правок не сдвигались
		slices.SortStableFunc(edits, func(a, b diag.TextEdit) int {
			if a.Span.Start != b.Span.Start {
				return int(b.Span.Start) - int(a.Span.Start)
			}
			return int(b.Span.End) - int(a.Span.End)
		})
		work := slices.Clone(buf)
		done := slices.Clone(prev)
		for _, e := range edits {
			start := int(e.Span.Start) + shift(done, int(e.Span.Start))
			end := int(e.Span.End) + shift(done, int(e.Span.End))
			if start < 0 || end < start || end > len(work) {
				return nil, "edit span out of range"
			}
			if e.OldText != "" && string(work[start:end]) != e.OldText {
				return nil, "existing text does not match expected content"
			}
			work = slices.Concat(work[:start:start], []byte(e.NewText), work[end:])
			done = append(done, e)
		}
		out[id] = stagedFile{buf: work, applied: done, edits: len(edits)}
	}
	return out, ""
}

// overlaps treats spans as half-open. Two insertions never overlap; an
// insertion overlaps a span that strictly contains its position.
func overlaps(a, b diag.TextEdit) bool {
	as, ae, bs, be := a.Span.Start, a.Span.End, b.Span.Start, b.Span.End
	switch {
	case as == ae && bs == be:
		return false
	case as == ae:
		return bs <= as && as < be
	case bs == be:
		return as <= bs && bs < ae
	}
	return as < be && bs < ae
}

// shift is the length change at pos caused by edits lying entirely before it.
func shift(edits []diag.TextEdit, pos int) int {
	d := 0
	for _, e := range edits {
		if int(e.Span.Start) < pos && int(e.Span.End) <= pos {
			d += len(e.NewText) - int(e.Span.End-e.Span.Start)
		}
	}
	return d
}
