package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"splice/internal/diag"
	"splice/internal/fix"
	"splice/internal/format"
	"splice/internal/source"
	"splice/internal/trace"
)

// SaveOptions configures Save.
type SaveOptions struct {
	DryRun bool
	// NoJournal skips writing the undo journal.
	NoJournal bool
}

// SaveResult describes the files Save rewrote (or would rewrite).
type SaveResult struct {
	Changes []fix.FileChange
	Skipped []fix.SkippedFix
	Journal string // путь журнала отката, если он записан
}

// Save prints every edited file and writes it. A file whose content on disk
// no longer matches what was loaded is left alone and reported in Skipped.
// Unless DryRun is set, the workspace is closed afterwards and an undo
// journal is written to .splice/undo.mp.
func (w *Workspace) Save(ctx context.Context, opts SaveOptions) (*SaveResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saved {
		return nil, ErrSaved
	}
	_, sp := trace.Start(ctx, trace.ScopePhase, "save")
	defer sp.End("")

	var fixes []diag.Fix
	for _, root := range w.Roots() {
		if !w.Tree.SubtreeDirty(root) {
			continue
		}
		file := w.File(root)
		if file == nil {
			continue
		}
		content, err := format.FormatFile(file, w.Tree, root, format.Options{})
		if err != nil {
			return nil, fmt.Errorf("print %s: %w", file.Path, err)
		}
		if bytes.Equal(content, file.Content) {
			continue
		}
		fixes = append(fixes, fix.RewriteFile("rewrite "+file.Path, file, content, fix.WithID(file.Path)))
	}
	res := &SaveResult{}
	if len(fixes) == 0 {
		return res, nil
	}
	applied, err := fix.Apply(w.Files, fixes, fix.Options{DryRun: opts.DryRun, AllowVirtual: true})
	if applied != nil {
		res.Changes = applied.Changes
		res.Skipped = applied.Skipped
	}
	if err != nil && !errors.Is(err, fix.ErrNoChanges) {
		return res, err
	}
	if opts.DryRun {
		return res, nil
	}
	w.saved = true
	w.undo = nil

	if opts.NoJournal {
		return res, nil
	}
	j := &Journal{Label: strings.Join(w.labels, "; "), Time: time.Now().UTC()}
	for _, ch := range res.Changes {
		if f := w.Files.Get(ch.File); f == nil || f.Flags&source.FileVirtual != 0 {
			continue
		}
		j.Files = append(j.Files, JournalFile{Path: ch.Path, Before: ch.Before, After: ch.After})
	}
	if len(j.Files) == 0 {
		return res, nil
	}
	path, err := WriteJournal(w.Root, j)
	if err != nil {
		return res, fmt.Errorf("write undo journal: %w", err)
	}
	res.Journal = path
	return res, nil
}
