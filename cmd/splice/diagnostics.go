package main

import (
	"io"

	"splice/internal/diag"
	"splice/internal/diagfmt"
	"splice/internal/source"
)

func prettyDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, colored bool) {
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     colored,
		Context:   1,
		PathMode:  diagfmt.PathModeRelative,
		ShowNotes: true,
	})
}
