package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"splice/internal/project"
)

var undoCmd = &cobra.Command{
	Use:   "undo [dir]",
	Short: "Revert the last saved inline",
	Long: `Undo restores the files rewritten by the last inline from the journal in
.splice/undo.mp. Files edited since then are left alone and nothing is
restored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func runUndo(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	root, ok, err := project.FindProjectRoot(dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", dir, project.ErrNoManifest)
	}
	j, err := project.UndoFromJournal(root)
	switch {
	case errors.Is(err, project.ErrNoJournal):
		return errors.New("nothing to undo")
	case errors.Is(err, project.ErrJournalStale):
		return fmt.Errorf("%w; edit the files back or remove %s", err, project.JournalPath(root))
	case err != nil:
		return err
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if quiet {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "reverted %q\n", j.Label)
	for _, f := range j.Files {
		p := f.Path
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
		fmt.Fprintf(out, "  restored %s\n", filepath.ToSlash(p))
	}
	return nil
}
