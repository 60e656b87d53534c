package refactor

import (
	"context"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"splice/internal/ast"
	"splice/internal/sema"
	"splice/internal/trace"
)

// FindUsages searches roots for references to decl, one file per worker.
// Nothing is modified; a cancelled ctx aborts the search with ctx.Err().
// The result is ordered by file, then by position.
func FindUsages(ctx context.Context, o *sema.Oracle, decl ast.NodeID, roots []ast.NodeID, opts Options) ([]ast.NodeID, error) {
	ctx, sp := trace.Start(ctx, trace.ScopePhase, "find-usages")
	defer sp.End("")
	sink := opts.sink()
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if len(roots) == 0 {
		return nil, nil
	}
	t := o.Tree()
	found := make([][]ast.NodeID, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(roots)))
	for i, root := range roots {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			name := opts.fileName(t, root)
			sink.OnEvent(Event{File: name, Stage: StageSearch, Status: StatusWorking})
			refs, err := o.FindReferences(gctx, decl, []ast.NodeID{root})
			if err != nil {
				sink.OnEvent(Event{File: name, Stage: StageSearch, Status: StatusError, Err: err})
				return err
			}
			found[i] = refs
			sink.OnEvent(Event{File: name, Stage: StageSearch, Status: StatusDone, Usages: len(refs)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []ast.NodeID
	for _, refs := range found {
		slices.SortStableFunc(refs, func(a, b ast.NodeID) int {
			return int(t.Node(a).Span.Start) - int(t.Node(b).Span.Start)
		})
		out = append(out, refs...)
	}
	sp.WithExtra("usages", strconv.Itoa(len(out)))
	return out, nil
}
