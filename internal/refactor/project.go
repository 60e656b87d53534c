package refactor

import (
	"context"
	"fmt"

	"splice/internal/ast"
	"splice/internal/inline"
	"splice/internal/project"
	"splice/internal/trace"
)

// ReplaceUsagesInWholeProject inlines tmpl at every usage of decl in ws.
// The search runs under the workspace read lock; the rewrite is a single
// transaction labelled transactionLabel, so Workspace.Undo reverts the whole
// batch. progressLabel titles the progress events.
func ReplaceUsagesInWholeProject(ctx context.Context, ws *project.Workspace, e *inline.Engine, decl ast.NodeID, tmpl *inline.CodeTemplate, progressLabel, transactionLabel string, opts Options) (*Report, error) {
	ctx, sp := trace.Start(ctx, trace.ScopeCommand, progressLabel)
	defer sp.End("")
	if opts.Files == nil {
		opts.Files = ws.Files
	}
	if opts.Jobs <= 0 {
		opts.Jobs = ws.Config.Jobs()
	}
	opts.sink().OnEvent(Event{Title: progressLabel, Stage: StageSearch, Status: StatusQueued})

	var usages []ast.NodeID
	err := ws.Read(func() error {
		var err error
		usages, err = FindUsages(ctx, ws.Oracle, decl, ws.Roots(), opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find usages: %w", err)
	}

	var rep *Report
	err = ws.RunAsTransaction(ctx, transactionLabel, func(ctx context.Context) error {
		var err error
		rep, err = ReplaceUsages(ctx, ws.Oracle, decl, &InlineStrategy{Engine: e, Template: tmpl}, usages, opts)
		return err
	})
	if err != nil {
		return rep, err
	}
	return rep, nil
}
