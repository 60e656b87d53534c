package ast

import (
	"strings"
)

// Dump рендерит поддерево в компактную s-форму: (Kind "text" child...).
// Пустые слоты печатаются как _.
func (t *Tree) Dump(id NodeID) string {
	var sb strings.Builder
	t.dump(&sb, id)
	return sb.String()
}

func (t *Tree) dump(sb *strings.Builder, id NodeID) {
	n := t.Node(id)
	if n == nil {
		sb.WriteByte('_')
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.Kind.String())
	if n.Text != "" {
		sb.WriteString(" " + quote(n.Text))
	}
	if n.Alt != "" {
		sb.WriteString(" @" + n.Alt)
	}
	if n.Flags != 0 {
		sb.WriteString(" " + n.Flags.String())
	}
	for _, c := range n.Children {
		sb.WriteByte(' ')
		t.dump(sb, c)
	}
	sb.WriteByte(')')
}

func quote(s string) string {
	if strings.ContainsAny(s, " ()\"\n") {
		return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `"`, `\"`), "\n", `\n`) + `"`
	}
	return s
}
