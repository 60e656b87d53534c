package fix

import (
	"fortio.org/safecast"

	"splice/internal/diag"
	"splice/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides the default always-safe applicability.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithID sets a stable identifier.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func build(title string, edits []diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{Title: title, Applicability: diag.FixApplicabilityAlwaysSafe, Edits: edits}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// ReplaceSpan replaces the text of span with newText. expect guards the
// current content; empty means unchecked.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return build(title, []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}}, opts)
}

// InsertText inserts text at the start of at.
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	at.End = at.Start
	return build(title, []diag.TextEdit{{Span: at, NewText: text}}, opts)
}

// DeleteSpan removes span, guarded by expect.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return ReplaceSpan(title, span, "", expect, opts...)
}

// RewriteFile replaces the whole content of file. The loaded content is the
// guard, so a file changed on disk since it was loaded is left alone.
func RewriteFile(title string, file *source.File, content []byte, opts ...Option) diag.Fix {
	end, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		panic(err)
	}
	span := source.Span{File: file.ID, Start: 0, End: end}
	return build(title, []diag.TextEdit{{Span: span, NewText: string(content), OldText: string(file.Content)}}, opts)
}
