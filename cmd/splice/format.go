package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"splice/internal/driver"
	"splice/internal/format"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] <path> [path...]",
	Short: "Format Kt source files",
	Long: `fmt reprints .kt files in canonical layout. Directories are walked
recursively. With --check nothing is written and the command fails when a
file would change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFmt,
}

func init() {
	f := fmtCmd.Flags()
	f.Bool("check", false, "list files that need formatting and fail if any")
	f.String("format", "text", "output format (text|json)")
	f.Bool("stdout", false, "print formatted code instead of rewriting files")
	f.Int("indent", 4, "indent width in spaces")
	f.Bool("tabs", false, "indent with tabs")
	f.Int("jobs", 0, "max parallel workers (0=auto)")
}

type fmtFlags struct {
	check, stdout, tabs bool
	format              string
	indent, jobs        int
}

func readFmtFlags(cmd *cobra.Command) (fmtFlags, error) {
	var f fmtFlags
	fl := cmd.Flags()
	var errs []error
	collect := func(err error) { errs = append(errs, err) }
	var err error
	f.check, err = fl.GetBool("check")
	collect(err)
	f.stdout, err = fl.GetBool("stdout")
	collect(err)
	f.tabs, err = fl.GetBool("tabs")
	collect(err)
	f.format, err = fl.GetString("format")
	collect(err)
	f.indent, err = fl.GetInt("indent")
	collect(err)
	f.jobs, err = fl.GetInt("jobs")
	collect(err)
	if err := errors.Join(errs...); err != nil {
		return f, err
	}

	switch {
	case f.format != "text" && f.format != "json":
		return f, fmt.Errorf("fmt: unsupported output format %q", f.format)
	case f.stdout && f.check:
		return f, errors.New("fmt: --stdout cannot be used with --check")
	case f.stdout && f.format != "text":
		return f, errors.New("fmt: --stdout is only supported with text output")
	case f.indent <= 0:
		return f, errors.New("fmt: --indent must be positive")
	}
	return f, nil
}

func runFmt(cmd *cobra.Command, args []string) error {
	cmd.SilenceErrors = true
	flags, err := readFmtFlags(cmd)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timer, err := newTimer(cmd)
	if err != nil {
		return err
	}
	defer printTimings(cmd.ErrOrStderr(), timer)

	var results []driver.FormatResult
	err = timer.Measure("format", func() error {
		results, err = driver.FormatPaths(cmd.Context(), args, driver.FormatOptions{
			Check:          flags.check,
			Stdout:         flags.stdout,
			MaxDiagnostics: maxDiagnostics(cmd),
			Jobs:           flags.jobs,
			Options:        format.Options{IndentWidth: flags.indent, UseTabs: flags.tabs},
		})
		return err
	})
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var hasErrors, hasChanges bool
	switch {
	case flags.format == "json":
		if err := renderFmtJSON(out, results, flags.check); err != nil {
			return err
		}
		hasErrors, hasChanges = tally(results)
	case flags.stdout:
		hasErrors = renderFmtStdout(out, errOut, results)
	default:
		hasErrors, hasChanges = renderFmtText(out, errOut, results, flags.check, quiet)
	}

	if hasErrors {
		return errors.New("fmt: failed to format some files")
	}
	if flags.check && hasChanges {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

func tally(results []driver.FormatResult) (hasErrors, hasChanges bool) {
	for _, r := range results {
		hasErrors = hasErrors || r.Err != nil
		hasChanges = hasChanges || r.Changed
	}
	return hasErrors, hasChanges
}

func reportFmtError(errOut io.Writer, r driver.FormatResult) {
	fmt.Fprintf(errOut, "fmt: %s: %v\n", r.Path, r.Err)
}

func renderFmtStdout(out, errOut io.Writer, results []driver.FormatResult) (hasErrors bool) {
	for _, r := range results {
		if r.Err != nil {
			reportFmtError(errOut, r)
			continue
		}
		_, _ = out.Write(r.Formatted)
	}
	hasErrors, _ = tally(results)
	return hasErrors
}

// renderFmtText lists changed files: plain paths under --check,
// "reformatted <path>" otherwise. quiet keeps only the errors.
func renderFmtText(out, errOut io.Writer, results []driver.FormatResult, check, quiet bool) (hasErrors, hasChanges bool) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			reportFmtError(errOut, r)
		case !r.Changed || quiet:
		case check:
			fmt.Fprintln(out, r.Path)
		default:
			fmt.Fprintf(out, "reformatted %s\n", r.Path)
		}
	}
	return tally(results)
}

type fmtJSONResult struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
	Check   bool   `json:"check"`
}

func renderFmtJSON(out io.Writer, results []driver.FormatResult, check bool) error {
	payload := make([]fmtJSONResult, len(results))
	for i, r := range results {
		payload[i] = fmtJSONResult{Path: r.Path, Changed: r.Changed, Check: check}
		if r.Err != nil {
			payload[i].Error = r.Err.Error()
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
