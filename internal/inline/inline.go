package inline

import (
	"context"

	"splice/internal/shorten"
	"splice/internal/trace"
)

// ApplyAtSingleSite inlines tmpl at one usage. The returned range still
// carries markers; pass it to Finish once every usage of the batch is done.
func (e *Engine) ApplyAtSingleSite(ctx context.Context, tmpl *CodeTemplate, site *UsageSite) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, sp := trace.Start(ctx, trace.ScopeUsage, "inline-site")
	defer sp.End(site.Shape.String())

	code, err := e.Bind(tmpl, site)
	if err != nil {
		return nil, err
	}
	done := false
	defer func() {
		if !done {
			code.markers.Close()
		}
	}()
	r, err := e.Splice(code)
	if err != nil {
		return nil, err
	}
	e.PostProcess(r)
	done = true
	return r, nil
}

// Finish adds the imports the inlined code needs and, when enabled,
// shortens qualified references in every range. The markers of the ranges
// are dropped afterwards.
func (e *Engine) Finish(ctx context.Context, results []*Result) shorten.Stats {
	_, sp := trace.Start(ctx, trace.ScopePhase, "shorten")
	defer sp.End("")

	reqs := make([]shorten.Request, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		req := shorten.Request{File: r.file, Imports: r.code.ImportsToAdd}
		if e.opts.Passes.ShortenReferences {
			req.Nodes = r.Nodes()
		}
		reqs = append(reqs, req)
	}
	st := shorten.Shorten(e.oracle, reqs)
	for _, r := range results {
		if r != nil {
			r.code.markers.Reset()
			r.code.markers.Close()
		}
	}
	return st
}
