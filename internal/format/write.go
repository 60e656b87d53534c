package format

import (
	"bytes"
	"strings"

	"splice/internal/source"
)

// Writer builds formatter output line by line. Indentation is emitted
// lazily, right before the first byte of a line.
type Writer struct {
	sf     *source.File
	opt    Options
	buf    bytes.Buffer
	depth  int
	pend   bool // отступ ещё не выведен
	indent string
}

func NewWriter(sf *source.File, opt Options) *Writer {
	opt = opt.withDefaults()
	w := &Writer{sf: sf, opt: opt, pend: true, indent: strings.Repeat(" ", opt.IndentWidth)}
	if opt.UseTabs {
		w.indent = "\t"
	}
	if sf != nil {
		w.buf.Grow(len(sf.Content))
	}
	return w
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) String() string { return w.buf.String() }

func (w *Writer) last() byte {
	b := w.buf.Bytes()
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1]
}

// WriteString appends s, indenting first if a line has just started.
func (w *Writer) WriteString(s string) {
	if s == "" {
		return
	}
	if w.pend {
		for range w.depth {
			w.buf.WriteString(w.indent)
		}
	}
	w.buf.WriteString(s)
	w.pend = s[len(s)-1] == '\n'
}

// Space appends one space unless the output is empty or already ends in blank.
func (w *Writer) Space() {
	switch w.last() {
	case 0, ' ', '\t', '\n':
		return
	}
	w.buf.WriteByte(' ')
}

// Newline terminates the current line; repeated calls do not stack.
func (w *Writer) Newline() {
	if l := w.last(); l != 0 && l != '\n' {
		w.buf.WriteByte('\n')
	}
	w.pend = true
}

// BlankLine terminates the line and leaves exactly one empty line after it.
func (w *Writer) BlankLine() {
	w.Newline()
	if b := w.buf.Bytes(); len(b) >= 2 && b[len(b)-2] == '\n' {
		return
	}
	w.buf.WriteByte('\n')
}

func (w *Writer) IndentPush() { w.depth++ }

func (w *Writer) IndentPop() { w.depth = max(w.depth-1, 0) }

// CopyReindent copies sp verbatim, moving its continuation lines from the
// indentation of the span's first line to the current depth.
func (w *Writer) CopyReindent(sp source.Span) {
	if w.sf == nil || sp.File != w.sf.ID || !sp.Within(len(w.sf.Content)) {
		return
	}
	content := w.sf.Content
	lineStart := bytes.LastIndexByte(content[:sp.Start], '\n') + 1
	lead := len(content[lineStart:sp.Start]) - len(bytes.TrimLeft(content[lineStart:sp.Start], " \t"))
	for i, ln := range bytes.Split(content[sp.Start:sp.End], []byte{'\n'}) {
		if i > 0 {
			w.buf.WriteByte('\n')
			w.pend = true
			ln = trimIndent(ln, lead)
			ln = bytes.TrimRight(ln, " \t")
		}
		w.WriteString(string(ln))
	}
}

// trimIndent drops up to n leading blanks of ln.
func trimIndent(ln []byte, n int) []byte {
	i := 0
	for i < n && i < len(ln) && (ln[i] == ' ' || ln[i] == '\t') {
		i++
	}
	return ln[i:]
}
