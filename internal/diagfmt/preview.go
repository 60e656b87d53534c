package diagfmt

import (
	"fmt"
	"strings"

	"splice/internal/diag"
	"splice/internal/source"
)

// fixEditPreview holds the whole lines an edit touches, before and after.
type fixEditPreview struct {
	before []string
	after  []string
}

func buildFixEditPreview(fs *source.FileSet, edit diag.TextEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	startPos, endPos := fs.Resolve(edit.Span)
	blockStart, _, ok := file.LineRange(startPos.Line)
	_, blockEnd, ok2 := file.LineRange(max(endPos.Line, startPos.Line))
	if !ok || !ok2 || edit.Span.Start < blockStart || edit.Span.End > blockEnd || edit.Span.End < edit.Span.Start {
		return fixEditPreview{}, fmt.Errorf("edit span %v out of range", edit.Span)
	}

	block := string(file.Content[blockStart:blockEnd])
	head := block[:edit.Span.Start-blockStart]
	tail := block[edit.Span.End-blockStart:]
	return fixEditPreview{
		before: previewLines(block),
		after:  previewLines(head + edit.NewText + tail),
	}, nil
}

// previewLines splits s into lines; a trailing newline adds no empty line.
func previewLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
