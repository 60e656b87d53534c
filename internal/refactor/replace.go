package refactor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/inline"
	"splice/internal/sema"
	"splice/internal/source"
	"splice/internal/trace"
)

// Strategy rewrites single usages and completes the batch.
type Strategy interface {
	// Apply rewrites the usage at ref. A failed usage may leave the tree
	// half edited; the orchestrator rolls it back.
	Apply(ctx context.Context, ref ast.NodeID) (*inline.Result, error)
	// Finish runs once after every usage of the batch.
	Finish(ctx context.Context, results []*inline.Result)
}

// InlineStrategy inlines a prepared template.
type InlineStrategy struct {
	Engine   *inline.Engine
	Template *inline.CodeTemplate
}

func (s *InlineStrategy) Apply(ctx context.Context, ref ast.NodeID) (*inline.Result, error) {
	site, err := inline.SiteFor(s.Engine.Oracle(), ref)
	if err != nil {
		return nil, err
	}
	return s.Engine.ApplyAtSingleSite(ctx, s.Template, site)
}

func (s *InlineStrategy) Finish(ctx context.Context, results []*inline.Result) {
	s.Engine.Finish(ctx, results)
}

// Skip describes a usage left untouched.
type Skip struct {
	File string
	Span source.Span
	Err  error
}

// Report summarises a ReplaceUsages run.
type Report struct {
	Replaced       int
	Skipped        []Skip
	ImportsDeleted int
	// Iterations is the largest number of re-scan rounds any file needed.
	Iterations         int
	DeclarationDeleted bool
}

// ErrNoProgress is returned when a re-scan round did not shrink the set of
// pending usages.
var ErrNoProgress = errors.New("pending usages did not decrease")

// ReplaceUsages rewrites usages file by file with strategy. Every usage runs
// under its own checkpoint: a failing usage is rolled back, reported as
// diag.InlineUsageSkipped and the batch goes on. Cancellation stops the
// batch and is returned unchanged. Import-only usages are deleted after the
// other usages of their file.
//
// The caller holds the workspace write lock and an open tree checkpoint.
func ReplaceUsages(ctx context.Context, o *sema.Oracle, decl ast.NodeID, strategy Strategy, usages []ast.NodeID, opts Options) (*Report, error) {
	ctx, sp := trace.Start(ctx, trace.ScopePhase, "replace")
	rep := &Report{}
	defer func() {
		sp.WithExtra("replaced", strconv.Itoa(rep.Replaced)).WithExtra("skipped", strconv.Itoa(len(rep.Skipped)))
		sp.End("")
	}()

	t := o.Tree()
	r := &replacer{o: o, t: t, decl: decl, strategy: strategy, opts: opts, rep: rep}
	pending := inline.NewMarkers(t)
	defer pending.Close()

	byFile := make(map[ast.NodeID][]ast.NodeID)
	var files []ast.NodeID
	for _, u := range usages {
		if opts.Unwrap != nil {
			if u = opts.Unwrap(t, u); u == ast.NoNodeID {
				continue
			}
		}
		f := t.FileOf(u)
		if f == ast.NoNodeID {
			continue
		}
		if _, ok := byFile[f]; !ok {
			files = append(files, f)
		}
		byFile[f] = append(byFile[f], u)
	}

	var results []*inline.Result
	for _, f := range files {
		res, err := r.file(ctx, f, byFile[f], pending)
		results = append(results, res...)
		if err != nil {
			return rep, err
		}
	}

	if len(results) > 0 {
		opts.sink().OnEvent(Event{Stage: StageShorten, Status: StatusWorking})
		strategy.Finish(ctx, results)
		opts.sink().OnEvent(Event{Stage: StageShorten, Status: StatusDone})
	}

	if opts.DeleteDeclaration && len(rep.Skipped) == 0 && t.IsAttached(decl) {
		r.deleteDeclaration()
	}
	return rep, nil
}

type replacer struct {
	o        *sema.Oracle
	t        *ast.Tree
	decl     ast.NodeID
	strategy Strategy
	opts     Options
	rep      *Report
}

// file processes the usages of one file until none is pending.
func (r *replacer) file(ctx context.Context, root ast.NodeID, usages []ast.NodeID, pending *inline.Markers) ([]*inline.Result, error) {
	t := r.t
	name := r.opts.fileName(t, root)
	ctx, sp := trace.Start(ctx, trace.ScopeFile, "file:"+name)
	defer sp.End("")
	sink := r.opts.sink()
	sink.OnEvent(Event{File: name, Stage: StageReplace, Status: StatusWorking, Usages: len(usages)})

	var imports []ast.NodeID
	for _, u := range usages {
		if t.Kind(u) == ast.KindImport {
			imports = append(imports, u)
			continue
		}
		pending.Add(u, inline.Marker{Kind: inline.MarkPending})
	}

	var results []*inline.Result
	skipped := len(r.rep.Skipped)
	prev := -1
	for round := 1; ; round++ {
		todo := pending.Find(root, inline.MarkPending)
		if len(todo) == 0 {
			break
		}
		if prev >= 0 && len(todo) >= prev {
			return results, fmt.Errorf("%s: %w (%d -> %d)", name, ErrNoProgress, prev, len(todo))
		}
		prev = len(todo)
		r.rep.Iterations = max(r.rep.Iterations, round)
		sortUsages(t, todo)
		for _, u := range todo {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			if !pending.Has(u, inline.MarkPending) || !t.IsAttached(u) {
				continue
			}
			pending.Remove(u, inline.MarkPending)
			res, err := r.usage(ctx, u)
			if isControlFlow(err) {
				return results, err
			}
			if err != nil {
				r.skip(ctx, name, u, err)
				continue
			}
			r.rep.Replaced++
			results = append(results, res)
		}
	}

	if len(imports) > 0 && len(r.rep.Skipped) == skipped {
		sink.OnEvent(Event{File: name, Stage: StageImports, Status: StatusWorking})
		r.deleteImports(ctx, root, imports)
	}
	status := StatusDone
	if len(r.rep.Skipped) > skipped {
		status = StatusSkipped
	}
	sink.OnEvent(Event{File: name, Stage: StageReplace, Status: status, Usages: len(usages), Replaced: len(results)})
	return results, nil
}

// usage applies the strategy under a checkpoint. Panics other than
// cancellation become errors.
func (r *replacer) usage(ctx context.Context, u ast.NodeID) (res *inline.Result, err error) {
	t := r.t
	cp := t.Checkpoint()
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok && isControlFlow(perr) {
				t.Rollback(cp)
				panic(p)
			}
			res, err = nil, panicError(p)
		}
		if err != nil {
			t.Rollback(cp)
			return
		}
		t.Commit(cp)
	}()
	return r.strategy.Apply(ctx, u)
}

func panicError(p any) error {
	switch v := p.(type) {
	case inline.InvariantError:
		return v
	case error:
		return fmt.Errorf("internal error: %w", v)
	}
	return fmt.Errorf("internal error: %v", p)
}

func (r *replacer) skip(ctx context.Context, file string, u ast.NodeID, err error) {
	span := r.t.Node(u).Span
	r.rep.Skipped = append(r.rep.Skipped, Skip{File: file, Span: span, Err: err})
	code := diag.InlineUsageSkipped
	var ue *inline.UsageError
	if errors.As(err, &ue) && ue.Code == diag.InlineNonLocalJump {
		code = ue.Code // нужна ручная проверка
	}
	diag.ReportWarning(r.opts.reporter(), code, span, "usage left unchanged: "+err.Error()).Emit()
	trace.Point(trace.FromContext(ctx), trace.ScopeFile, "usage-skipped", file+":"+err.Error(), trace.ParentID(ctx))
}

// sortUsages orders usages right to left, inner before outer when they
// start at the same offset.
func sortUsages(t *ast.Tree, us []ast.NodeID) {
	slices.SortStableFunc(us, func(a, b ast.NodeID) int {
		sa, sb := t.Node(a).Span, t.Node(b).Span
		if c := cmp.Compare(sb.Start, sa.Start); c != 0 {
			return c
		}
		return cmp.Compare(sa.End, sb.End)
	})
}

// deleteImports removes the import directives naming decl when nothing in
// the file refers to it any more.
func (r *replacer) deleteImports(ctx context.Context, root ast.NodeID, imports []ast.NodeID) {
	t := r.t
	left, err := r.o.FindReferences(ctx, r.decl, []ast.NodeID{root})
	if err != nil {
		return
	}
	for _, ref := range left {
		if t.Kind(ref) != ast.KindImport {
			return
		}
	}
	for _, imp := range imports {
		if !t.IsAttached(imp) || strings.HasSuffix(t.Text(imp), ".*") {
			continue
		}
		t.Delete(imp)
		r.rep.ImportsDeleted++
	}
}

func (r *replacer) deleteDeclaration() {
	r.t.Delete(r.decl)
	r.o.Invalidate()
	r.rep.DeclarationDeleted = true
}

// isControlFlow reports whether err is cancellation, which must pass every
// recover and skip handler unchanged.
func isControlFlow(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
