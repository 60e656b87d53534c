package lexer

import (
	"splice/internal/source"
)

type TemplatePartKind uint8

const (
	TemplateText TemplatePartKind = iota
	// TemplateRef — `$name`, Span покрывает name.
	TemplateRef
	// TemplateExpr — `${expr}`, Span покрывает expr без скобок.
	TemplateExpr
)

type TemplatePart struct {
	Kind TemplatePartKind
	Span source.Span
}

// SplitTemplate делит тело строкового литерала (без кавычек) на части шаблона.
// start/end — байтовые смещения тела внутри file.
func SplitTemplate(file *source.File, start, end uint32, raw bool) []TemplatePart {
	lx := NewRange(file, start, end, Options{})
	c := &lx.cursor
	var parts []TemplatePart
	textStart := c.Mark()
	flushText := func(upto uint32) {
		if uint32(textStart) < upto {
			parts = append(parts, TemplatePart{Kind: TemplateText, Span: source.Span{File: file.ID, Start: uint32(textStart), End: upto}})
		}
	}
	for !c.EOF() {
		b := c.Peek()
		if !raw && b == '\\' {
			c.Bump()
			c.Bump()
			continue
		}
		if b != '$' {
			c.Bump()
			continue
		}
		b1 := c.PeekAt(1)
		switch {
		case b1 == '{':
			flushText(c.Off)
			c.Bump()
			c.Bump()
			exprStart := c.Off
			if !lx.skipTemplateExpr() {
				// незакрытая запись — остаток считаем текстом
				textStart = Mark(exprStart - 2)
				c.Off = end
				continue
			}
			parts = append(parts, TemplatePart{Kind: TemplateExpr, Span: source.Span{File: file.ID, Start: exprStart, End: c.Off - 1}})
			textStart = c.Mark()
		default:
			dollar := c.Off
			c.Bump()
			refStart := c.Mark()
			if !c.EatIdent() {
				continue
			}
			flushText(dollar)
			parts = append(parts, TemplatePart{Kind: TemplateRef, Span: c.SpanFrom(refStart)})
			textStart = c.Mark()
		}
	}
	flushText(c.Off)
	return parts
}
