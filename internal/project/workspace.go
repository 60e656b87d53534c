package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/parser"
	"splice/internal/sema"
	"splice/internal/source"
	"splice/internal/trace"
)

// SourceExt is the extension of the files a workspace loads.
const SourceExt = ".kt"

// ErrSaved is returned by operations on a workspace after Save wrote it.
var ErrSaved = errors.New("workspace was saved; reopen it")

// Workspace holds every source file of a project in one tree. Readers
// (usage search) share the lock; transactions hold it exclusively.
type Workspace struct {
	mu sync.RWMutex

	Root   string
	Config Config
	Files  *source.FileSet
	Tree   *ast.Tree
	Oracle *sema.Oracle
	// Diags collects parse diagnostics of loaded files.
	Diags *diag.Bag

	prelude ast.NodeID
	undo    []undoEntry
	labels  []string // транзакции, ещё не записанные Save
	saved   bool
}

type undoEntry struct {
	label string
	snap  *ast.Snapshot
}

// New creates an empty workspace rooted at root with only the prelude loaded.
func New(root string, cfg Config) (*Workspace, error) {
	fs := source.NewFileSetWithBase(root)
	tree := ast.NewTree(0)
	prelude, err := sema.LoadPrelude(fs, tree)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:    root,
		Config:  cfg,
		Files:   fs,
		Tree:    tree,
		Oracle:  sema.New(tree, prelude),
		Diags:   diag.NewBag(256),
		prelude: prelude,
	}, nil
}

// Open finds splice.toml above startDir, decodes it and loads the sources.
func Open(ctx context.Context, startDir string) (*Workspace, error) {
	manifest, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", startDir, ErrNoManifest)
	}
	cfg, err := LoadConfig(manifest)
	if err != nil {
		return nil, err
	}
	ws, err := New(filepath.Dir(manifest), cfg)
	if err != nil {
		return nil, err
	}
	if err := ws.Load(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

// listSources возвращает отсортированный список всех *.kt файлов под корнями исходников.
func (w *Workspace) listSources() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, src := range w.Config.Project.Sources {
		dir := filepath.Join(w.Root, filepath.FromSlash(src))
		if !within(w.Root, dir) {
			return nil, fmt.Errorf("source root %q escapes project root", src)
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && strings.HasSuffix(path, SourceExt) && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return files, nil
}

// Load reads the project sources in parallel and parses them into the tree.
// Parse errors are collected in Diags; the files are loaded anyway.
func (w *Workspace) Load(ctx context.Context) error {
	ctx, sp := trace.Start(ctx, trace.ScopePhase, "load")
	defer sp.End("")

	paths, err := w.listSources()
	if err != nil {
		return err
	}
	type loaded struct {
		content []byte
		flags   source.FileFlags
	}
	out := make([]loaded, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.Config.Jobs())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// #nosec G304 -- path comes from walking the project sources
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			content, flags := source.Normalize(content)
			out[i] = loaded{content: content, flags: flags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// дерево общее, поэтому разбор последовательный
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, path := range paths {
		id := w.Files.Add(path, out[i].content, out[i].flags)
		w.parse(id)
	}
	w.Oracle.Invalidate()
	return nil
}

// AddSource parses an in-memory file into the workspace. The file is
// virtual: Save never writes it to disk.
func (w *Workspace) AddSource(name string, content []byte) ast.NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	content, _ = source.Normalize(content)
	root := w.parse(w.Files.AddVirtual(name, content))
	w.Oracle.Invalidate()
	return root
}

func (w *Workspace) parse(id source.FileID) ast.NodeID {
	bag := diag.NewBag(64)
	root := parser.ParseFile(w.Tree, w.Files.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	w.Diags.Merge(bag)
	return root
}

// Roots returns the project file roots without the prelude.
func (w *Workspace) Roots() []ast.NodeID {
	roots := w.Tree.Roots()
	return slices.DeleteFunc(roots, func(r ast.NodeID) bool { return r == w.prelude })
}

// File returns the source file a root was parsed from.
func (w *Workspace) File(root ast.NodeID) *source.File {
	n := w.Tree.Node(root)
	if n == nil {
		return nil
	}
	return w.Files.Get(n.Span.File)
}

// Read runs fn under the shared lock.
func (w *Workspace) Read(fn func() error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return fn()
}

// RunAsTransaction runs fn under the exclusive lock inside a tree
// checkpoint. An error or panic rolls every edit back; on success the
// edits are recorded under label and can be reverted with Undo.
func (w *Workspace) RunAsTransaction(ctx context.Context, label string, fn func(ctx context.Context) error) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saved {
		return ErrSaved
	}
	ctx, sp := trace.Start(ctx, trace.ScopeCommand, "transaction:"+label)
	defer sp.End("")

	cp := w.Tree.Checkpoint()
	done := false
	defer func() {
		if done {
			return
		}
		w.Tree.Rollback(cp)
		w.Oracle.Invalidate()
	}()
	if err := fn(ctx); err != nil {
		return err
	}
	done = true
	w.undo = append(w.undo, undoEntry{label: label, snap: w.Tree.CommitSnapshot(cp)})
	w.labels = append(w.labels, label)
	w.Oracle.Invalidate()
	return nil
}

// Undo reverts the last transaction and returns its label.
func (w *Workspace) Undo() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.undo) == 0 || w.saved {
		return "", false
	}
	last := w.undo[len(w.undo)-1]
	w.undo = w.undo[:len(w.undo)-1]
	w.Tree.Restore(last.snap)
	if n := len(w.labels); n > 0 {
		w.labels = w.labels[:n-1]
	}
	w.Oracle.Invalidate()
	return last.label, true
}

// DirtyRoots returns the roots of files edited since they were parsed.
func (w *Workspace) DirtyRoots() []ast.NodeID {
	var out []ast.NodeID
	for _, r := range w.Roots() {
		if w.Tree.SubtreeDirty(r) {
			out = append(out, r)
		}
	}
	return out
}

// ReferenceAt returns the innermost node of path covering the 1-based
// line and column.
func (w *Workspace) ReferenceAt(path string, line, col uint32) (ast.NodeID, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	abs, err := source.AbsolutePath(path)
	if err != nil {
		return ast.NoNodeID, err
	}
	f, ok := w.Files.GetByPath(abs)
	if !ok {
		if f, ok = w.Files.GetByPath(path); !ok {
			return ast.NoNodeID, fmt.Errorf("%s: not a project source", path)
		}
	}
	off, err := w.Files.Offset(f.ID, source.LineCol{Line: line, Col: col})
	if err != nil {
		return ast.NoNodeID, fmt.Errorf("%s:%d:%d: %w", path, line, col, err)
	}
	root := w.Tree.Root(f.ID)
	best := ast.NoNodeID
	w.Tree.Walk(root, func(id ast.NodeID) bool {
		sp := w.Tree.Node(id).Span
		if sp.File != f.ID || off < sp.Start || off >= sp.End {
			return id == root
		}
		best = id
		return true
	})
	if best == ast.NoNodeID || best == root {
		return ast.NoNodeID, fmt.Errorf("%s:%d:%d: no expression at position", path, line, col)
	}
	return best, nil
}
