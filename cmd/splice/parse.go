package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"splice/internal/diagfmt"
	"splice/internal/driver"
	"splice/internal/format"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.kt>",
	Short: "Parse a Kt source file and print its syntax tree",
	Long: `Parse reads a single Kt file and prints its syntax tree as an
s-expression (tree), re-renders it canonically (source), or prints only the
diagnostics as JSON (json).`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "tree", "output format (tree|source|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch outputFormat {
	case "tree", "source", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be tree, source or json)", outputFormat)
	}

	result, err := driver.Parse(args[0], maxDiagnostics(cmd))
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	result.Bag.Sort()
	out := cmd.OutOrStdout()

	if outputFormat == "json" {
		if err := diagfmt.JSON(out, result.Bag, result.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			IncludeNotes:     true,
			IncludeFixes:     true,
		}); err != nil {
			return err
		}
	} else {
		if result.Bag.Len() > 0 {
			colored, err := useColor(cmd, os.Stderr)
			if err != nil {
				return err
			}
			prettyDiagnostics(cmd.ErrOrStderr(), result.Bag, result.FileSet, colored)
		}
		if outputFormat == "tree" {
			fmt.Fprintln(out, result.Tree.Dump(result.Root))
		} else {
			src, err := format.FormatFile(result.File, result.Tree, result.Root, format.Options{Canonical: true})
			if err != nil {
				return err
			}
			_, _ = out.Write(src)
		}
	}

	if result.Bag.HasErrors() {
		return errors.New("parse: syntax errors")
	}
	return nil
}
