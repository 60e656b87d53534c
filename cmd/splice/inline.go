package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/inline"
	"splice/internal/project"
	"splice/internal/refactor"
	"splice/internal/sema"
)

var inlineCmd = &cobra.Command{
	Use:   "inline [flags] <file.kt>:<line>:<col>",
	Short: "Inline the function or property referenced at a position",
	Long: `Inline replaces the usage at <file>:<line>:<col> with the body of the
declaration it refers to. With --all, or when the position is the declaration
itself, every usage in the project is inlined and the declaration is removed
(unless --keep-declaration or [inline].delete_declaration = false).`,
	Args: cobra.ExactArgs(1),
	RunE: runInline,
}

func init() {
	inlineCmd.Flags().Bool("all", false, "inline every usage in the project")
	inlineCmd.Flags().Bool("keep-declaration", false, "keep the declaration after inlining every usage")
	inlineCmd.Flags().Bool("dry-run", false, "report the changes without writing files")
	inlineCmd.Flags().Bool("no-journal", false, "do not write the undo journal")
	inlineCmd.Flags().String("format", "text", "summary format (text|json)")
}

type inlineFlags struct {
	all, keep, dryRun, noJournal bool
	format                       string
}

func readInlineFlags(cmd *cobra.Command) (inlineFlags, error) {
	var f inlineFlags
	var err error
	if f.all, err = cmd.Flags().GetBool("all"); err != nil {
		return f, err
	}
	if f.keep, err = cmd.Flags().GetBool("keep-declaration"); err != nil {
		return f, err
	}
	if f.dryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return f, err
	}
	if f.noJournal, err = cmd.Flags().GetBool("no-journal"); err != nil {
		return f, err
	}
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, err
	}
	switch f.format {
	case "text", "json":
	default:
		return f, fmt.Errorf("unsupported format %q (must be text or json)", f.format)
	}
	return f, nil
}

// inlineSummary is the --format json output.
type inlineSummary struct {
	Declaration        string   `json:"declaration"`
	Replaced           int      `json:"replaced"`
	Skipped            int      `json:"skipped"`
	ImportsDeleted     int      `json:"imports_deleted"`
	DeclarationDeleted bool     `json:"declaration_deleted"`
	Files              []string `json:"files"`
	Journal            string   `json:"journal,omitempty"`
	DryRun             bool     `json:"dry_run,omitempty"`
}

func runInline(cmd *cobra.Command, args []string) error {
	flags, err := readInlineFlags(cmd)
	if err != nil {
		return err
	}
	path, line, col, err := parseLocation(args[0])
	if err != nil {
		return err
	}
	timer, err := newTimer(cmd)
	if err != nil {
		return err
	}
	defer printTimings(cmd.ErrOrStderr(), timer)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var ws *project.Workspace
	if err := timer.Measure("load", func() error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		ws, err = project.Open(ctx, filepath.Dir(abs))
		return err
	}); err != nil {
		return err
	}
	if ws.Diags.HasErrors() {
		if err := printDiagnostics(cmd, ws.Diags, ws); err != nil {
			return err
		}
		return errors.New("inline: project has syntax errors")
	}

	bag := diag.NewBag(maxDiagnostics(cmd))
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	defer func() {
		if bag.Len() > 0 {
			_ = printDiagnostics(cmd, bag, ws)
		}
	}()

	ref, err := ws.ReferenceAt(path, line, col)
	if err != nil {
		return err
	}
	decl, usage := resolveTarget(ws.Oracle, ref)
	if decl == ast.NoNodeID {
		return fmt.Errorf("%s: no inlinable function or property at this position", args[0])
	}
	name := ws.Tree.Text(decl)

	engine := inline.NewEngine(ws.Oracle, inline.Options{Passes: ws.Config.Passes(), Reporter: reporter})
	var tmpl *inline.CodeTemplate
	if err := timer.Measure("prepare", func() error {
		var err error
		tmpl, err = engine.PrepareTemplate(decl)
		return err
	}); err != nil {
		var refusal *inline.RefusalError
		if errors.As(err, &refusal) {
			refusal.Report(reporter)
			return fmt.Errorf("cannot inline %s: %w", name, err)
		}
		return err
	}

	var rep *refactor.Report
	err = timer.Measure("inline", func() error {
		var err error
		if usage != ast.NoNodeID && !flags.all {
			rep, err = inlineOne(ctx, ws, engine, tmpl, usage, "inline "+name)
		} else {
			rep, err = inlineAll(cmd, ctx, ws, engine, decl, tmpl, name, flags, reporter)
		}
		return err
	})
	if err != nil {
		var ue *inline.UsageError
		if errors.As(err, &ue) {
			diag.ReportError(reporter, ue.Code, ue.Span, ue.Msg).Emit()
		}
		return err
	}

	var saved *project.SaveResult
	if err := timer.Measure("save", func() error {
		var err error
		saved, err = ws.Save(ctx, project.SaveOptions{DryRun: flags.dryRun, NoJournal: flags.noJournal})
		return err
	}); err != nil {
		return err
	}
	for _, s := range saved.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %s: %s\n", diag.IOStaleEdit.ID(), s.Title, s.Reason)
	}
	return writeInlineSummary(cmd.OutOrStdout(), flags, name, rep, saved, ws.Root)
}

// inlineOne inlines a single usage as its own transaction.
func inlineOne(ctx context.Context, ws *project.Workspace, e *inline.Engine, tmpl *inline.CodeTemplate, usage ast.NodeID, label string) (*refactor.Report, error) {
	strategy := &refactor.InlineStrategy{Engine: e, Template: tmpl}
	err := ws.RunAsTransaction(ctx, label, func(ctx context.Context) error {
		res, err := strategy.Apply(ctx, usage)
		if err != nil {
			return err
		}
		strategy.Finish(ctx, []*inline.Result{res})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &refactor.Report{Replaced: 1, Iterations: 1}, nil
}

func inlineAll(cmd *cobra.Command, ctx context.Context, ws *project.Workspace, e *inline.Engine, decl ast.NodeID, tmpl *inline.CodeTemplate, name string, flags inlineFlags, reporter diag.Reporter) (*refactor.Report, error) {
	opts := refactor.Options{
		Files:             ws.Files,
		Jobs:              ws.Config.Jobs(),
		Reporter:          reporter,
		DeleteDeclaration: ws.Config.Inline.DeleteDeclaration && !flags.keep,
	}
	title := "Inline " + name
	label := "inline " + name
	withUI, err := uiEnabled(cmd)
	if err != nil {
		return nil, err
	}
	if !withUI {
		return refactor.ReplaceUsagesInWholeProject(ctx, ws, e, decl, tmpl, title, label, opts)
	}
	var files []string
	for _, r := range ws.Roots() {
		if f := ws.File(r); f != nil {
			files = append(files, f.Path)
		}
	}
	return runWithUI(title, files, func(sink refactor.Sink) (*refactor.Report, error) {
		opts.Sink = sink
		return refactor.ReplaceUsagesInWholeProject(ctx, ws, e, decl, tmpl, title, label, opts)
	})
}

// resolveTarget maps the node under the cursor to the declaration to inline.
// usage is NoNodeID when the cursor is on the declaration itself.
func resolveTarget(o *sema.Oracle, ref ast.NodeID) (decl, usage ast.NodeID) {
	t := o.Tree()
	n := ref
	// Name -> Call -> Dot: поднимаемся не выше выражения вызова
	for range 3 {
		if n == ast.NoNodeID {
			break
		}
		switch t.Kind(n) {
		case ast.KindFun, ast.KindProperty:
			return n, ast.NoNodeID
		}
		if d := o.Resolve(n); d != ast.NoNodeID {
			switch t.Kind(d) {
			case ast.KindFun, ast.KindProperty:
				return d, referenceNode(t, n)
			}
		}
		n = t.Parent(n)
	}
	return ast.NoNodeID, ast.NoNodeID
}

// referenceNode descends from a call or selector to the name that refers
// to the declaration; usages are keyed by that name.
func referenceNode(t *ast.Tree, n ast.NodeID) ast.NodeID {
	for {
		switch t.Kind(n) {
		case ast.KindCall:
			n = t.Child(n, ast.CallCallee)
		case ast.KindDot:
			n = t.Child(n, 1)
		default:
			return n
		}
	}
}

// parseLocation splits <file>:<line>:<col>.
func parseLocation(arg string) (path string, line, col uint32, err error) {
	rest, colStr, ok := cutLast(arg, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid location %q (expected <file>:<line>:<col>)", arg)
	}
	path, lineStr, ok := cutLast(rest, ":")
	if !ok || path == "" {
		return "", 0, 0, fmt.Errorf("invalid location %q (expected <file>:<line>:<col>)", arg)
	}
	l, err := strconv.ParseUint(lineStr, 10, 32)
	if err != nil || l == 0 {
		return "", 0, 0, fmt.Errorf("invalid line in %q", arg)
	}
	c, err := strconv.ParseUint(colStr, 10, 32)
	if err != nil || c == 0 {
		return "", 0, 0, fmt.Errorf("invalid column in %q", arg)
	}
	return path, uint32(l), uint32(c), nil
}

func cutLast(s, sep string) (before, after string, ok bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func writeInlineSummary(out io.Writer, flags inlineFlags, name string, rep *refactor.Report, saved *project.SaveResult, root string) error {
	sum := inlineSummary{Declaration: name, DryRun: flags.dryRun, Journal: saved.Journal, Files: []string{}}
	if rep != nil {
		sum.Replaced = rep.Replaced
		sum.Skipped = len(rep.Skipped)
		sum.ImportsDeleted = rep.ImportsDeleted
		sum.DeclarationDeleted = rep.DeclarationDeleted
	}
	for _, ch := range saved.Changes {
		p := ch.Path
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		sum.Files = append(sum.Files, filepath.ToSlash(p))
	}
	if flags.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	verb := "rewrote"
	if flags.dryRun {
		verb = "would rewrite"
	}
	fmt.Fprintf(out, "inlined %d usage(s) of %s", sum.Replaced, name)
	if sum.Skipped > 0 {
		fmt.Fprintf(out, ", %d skipped", sum.Skipped)
	}
	if sum.DeclarationDeleted {
		fmt.Fprint(out, ", declaration removed")
	}
	fmt.Fprintln(out)
	for _, f := range sum.Files {
		fmt.Fprintf(out, "  %s %s\n", verb, f)
	}
	if sum.Journal != "" {
		fmt.Fprintln(out, "run `splice undo` to revert")
	}
	return nil
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil || n <= 0 {
		return 100
	}
	return n
}

func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, ws *project.Workspace) error {
	colored, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	bag.Sort()
	prettyDiagnostics(cmd.ErrOrStderr(), bag, ws.Files, colored)
	return nil
}
