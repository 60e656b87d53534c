package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"splice/internal/diag"
	"splice/internal/source"
)

type palette struct {
	err, warn, info, code, caret, note, add, del *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:   mk(color.FgRed, color.Bold),
		warn:  mk(color.FgYellow, color.Bold),
		info:  mk(color.FgCyan, color.Bold),
		code:  mk(color.Bold),
		caret: mk(color.FgGreen, color.Bold),
		note:  mk(color.FgBlue),
		add:   mk(color.FgGreen),
		del:   mk(color.FgRed),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			location(fs, d.Primary, opts.PathMode),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message)
		writeContext(w, fs, d.Primary, opts, p)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
			}
		}
		if opts.ShowFixes {
			for i, f := range d.Fixes {
				writeFix(w, fs, i+1, f, opts, p)
			}
		}
	}
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(mode, f.FormatPath, fs.BaseDir()), start.Line, start.Col)
}

func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, p palette) {
	f := fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	ctx := uint32(max(opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	gutter := len(fmt.Sprint(start.Line + ctx))
	for line := first; line <= start.Line+ctx; line++ {
		text := f.GetLine(line)
		if line > start.Line && text == "" {
			break
		}
		fmt.Fprintf(w, "  %*d | %s\n", gutter, line, clip(text, opts.Width))
		if line != start.Line {
			continue
		}
		col := int(start.Col) - 1
		col = min(col, len(text))
		width := 1
		if end.Line == start.Line && end.Col > start.Col {
			width = runewidth.StringWidth(text[col:min(int(end.Col)-1, len(text))])
		}
		pad := strings.Repeat(" ", runewidth.StringWidth(text[:col]))
		marker := "^" + strings.Repeat("~", max(width-1, 0))
		fmt.Fprintf(w, "  %*s | %s%s\n", gutter, "", pad, p.caret.Sprint(marker))
	}
}

func writeFix(w io.Writer, fs *source.FileSet, n int, f diag.Fix, opts PrettyOpts, p palette) {
	fmt.Fprintf(w, "  fix #%d: %s [%s]", n, f.Title, f.Applicability)
	if f.ID != "" {
		fmt.Fprintf(w, " id=%s", f.ID)
	}
	fmt.Fprintln(w)
	for _, e := range f.Edits {
		fmt.Fprintf(w, "    edit %s apply=%q\n", location(fs, e.Span, opts.PathMode), e.NewText)
		if !opts.ShowPreview {
			continue
		}
		preview, err := buildFixEditPreview(fs, e)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, "    preview:")
		for _, l := range preview.before {
			fmt.Fprintf(w, "      %s\n", p.del.Sprint("- "+l))
		}
		for _, l := range preview.after {
			fmt.Fprintf(w, "      %s\n", p.add.Sprint("+ "+l))
		}
	}
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "...")
}
