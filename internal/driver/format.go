package driver

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"splice/internal/format"
	"splice/internal/trace"
)

// SourceExt is the extension of Kt source files.
const SourceExt = ".kt"

type FormatOptions struct {
	Check          bool // report only, never write
	Stdout         bool // return the output instead of writing it
	MaxDiagnostics int
	Options        format.Options
	Jobs           int // 0: GOMAXPROCS
}

// FormatResult is the outcome for one file. Formatted is set only with Stdout.
type FormatResult struct {
	Path      string
	Changed   bool
	Err       error
	Formatted []byte
}

// FormatPaths canonically reprints the .kt files named by paths, walking
// directories recursively. Files are independent, so they are formatted in
// parallel; results come back in sorted path order. A file that does not
// parse is reported in its result and left untouched.
func FormatPaths(ctx context.Context, paths []string, opts FormatOptions) ([]FormatResult, error) {
	files, err := collectSourceFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("format: no source files found")
	}

	ctx, sp := trace.Start(ctx, trace.ScopePhase, "format")
	defer sp.End("")

	results := make([]FormatResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cmp.Or(max(opts.Jobs, 0), runtime.GOMAXPROCS(0)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, fsp := trace.Start(gctx, trace.ScopeFile, path)
			results[i] = formatOne(path, opts)
			fsp.End(outcome(results[i]))
			return nil
		})
	}
	return results, g.Wait()
}

func formatOne(path string, opts FormatOptions) FormatResult {
	res := FormatResult{Path: path}
	out, before, err := reprint(path, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Changed = !bytes.Equal(before, out)
	switch {
	case opts.Stdout:
		res.Formatted = out
	case opts.Check || !res.Changed:
	default:
		res.Err = writeKeepingMode(path, out)
		res.Changed = res.Err == nil
	}
	return res
}

// reprint returns the canonical text of path along with its loaded content.
func reprint(path string, opts FormatOptions) (out, before []byte, err error) {
	pr, err := Parse(path, cmp.Or(opts.MaxDiagnostics, 256))
	if err != nil {
		return nil, nil, err
	}
	if pr.Bag.HasErrors() {
		return nil, nil, errors.New("format: parse errors present")
	}
	fo := opts.Options
	fo.Canonical = true
	out, err = format.FormatFile(pr.File, pr.Tree, pr.Root, fo)
	return out, pr.File.Content, err
}

func writeKeepingMode(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(path, data, perm)
}

func outcome(r FormatResult) string {
	if r.Err != nil {
		return "error"
	}
	if r.Changed {
		return "changed"
	}
	return "unchanged"
}

// collectSourceFiles expands paths into a sorted, duplicate-free list of
// .kt files. Hidden directories below a walked root are skipped.
func collectSourceFiles(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(root) == SourceExt {
				files = append(files, root)
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			switch {
			case err != nil:
				return err
			case ctx.Err() != nil:
				return ctx.Err()
			case d.IsDir() && path != root && strings.HasPrefix(d.Name(), "."):
				return filepath.SkipDir
			case !d.IsDir() && filepath.Ext(path) == SourceExt:
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
