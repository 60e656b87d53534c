package format

import (
	"splice/internal/ast"
)

func (p *printer) printBlock(id ast.NodeID) {
	p.printMembers(id)
}

// printStmt печатает оператор; выражения уходят в printExpr.
func (p *printer) printStmt(id ast.NodeID) {
	n := p.tree.Node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindFun, ast.KindProperty, ast.KindClass:
		p.printDecl(id)
	case ast.KindBlock:
		p.printBlock(id)
	case ast.KindAssign:
		p.printExpr(p.tree.Child(id, 0))
		p.write(" " + n.Text + " ")
		p.printExpr(p.tree.Child(id, 1))
	case ast.KindWhile:
		p.printLabel(n.Alt)
		p.write("while (")
		p.printExpr(p.tree.Child(id, 0))
		p.write(")")
		p.printControlBody(p.tree.Child(id, 1))
	case ast.KindDoWhile:
		p.printLabel(n.Alt)
		p.write("do")
		p.printControlBody(p.tree.Child(id, 0))
		p.write(" while (")
		p.printExpr(p.tree.Child(id, 1))
		p.write(")")
	case ast.KindFor:
		p.printLabel(n.Alt)
		p.write("for (")
		param := p.tree.Child(id, 0)
		p.write(p.tree.Text(param))
		if typ := p.tree.Child(param, ast.ParamType); typ != ast.NoNodeID {
			p.write(": ")
			p.printType(typ)
		}
		p.write(" in ")
		p.printExpr(p.tree.Child(id, 1))
		p.write(")")
		p.printControlBody(p.tree.Child(id, 2))
	default:
		p.printExpr(id)
	}
}

func (p *printer) printLabel(label string) {
	if label != "" {
		p.write(label + "@ ")
	}
}

// printControlBody — тело if/while/for: блок или один оператор на той же строке.
func (p *printer) printControlBody(body ast.NodeID) {
	if body == ast.NoNodeID {
		p.write(" {}")
		return
	}
	p.write(" ")
	if p.tree.Kind(body) == ast.KindBlock {
		p.printBlock(body)
		return
	}
	p.printNested(body)
}

// printNested печатает вложенный оператор, копируя его, если он не менялся.
func (p *printer) printNested(id ast.NodeID) {
	if p.verbatim(id) {
		p.copyNode(id)
		return
	}
	p.printStmt(id)
}

func (p *printer) printIf(id ast.NodeID) {
	p.write("if (")
	p.printExpr(p.tree.Child(id, ast.IfCond))
	p.write(")")
	then := p.tree.Child(id, ast.IfThen)
	p.printControlBody(then)
	els := p.tree.Child(id, ast.IfElse)
	if els == ast.NoNodeID {
		return
	}
	p.write(" else")
	if p.tree.Kind(els) == ast.KindIf {
		p.write(" ")
		p.printExpr(els)
		return
	}
	p.printControlBody(els)
}

func (p *printer) printWhen(id ast.NodeID) {
	p.write("when ")
	if subj := p.tree.Child(id, 0); subj != ast.NoNodeID {
		p.write("(")
		p.printExpr(subj)
		p.write(") ")
	}
	entries := p.tree.Children(id)[1:]
	if len(entries) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.w.IndentPush()
	for _, e := range entries {
		p.w.Newline()
		n := p.tree.Node(e)
		p.printLeadingComments(n.Leading)
		if p.verbatim(e) {
			p.copyNode(e)
		} else {
			p.printWhenEntry(e)
		}
		p.printTrailingComments(n.Trailing)
	}
	p.w.IndentPop()
	p.w.Newline()
	p.write("}")
}

func (p *printer) printWhenEntry(id ast.NodeID) {
	conds := p.tree.Child(id, 0)
	if conds == ast.NoNodeID {
		p.write("else")
	} else {
		for i, c := range p.tree.Children(conds) {
			if i > 0 {
				p.write(", ")
			}
			p.printWhenCond(c)
		}
	}
	p.write(" ->")
	p.printControlBody(p.tree.Child(id, 1))
}

func (p *printer) printWhenCond(id ast.NodeID) {
	n := p.tree.Node(id)
	neg := ""
	if n.Has(ast.FlagNegated) {
		neg = "!"
	}
	switch n.Kind {
	case ast.KindWhenIs:
		p.write(neg + "is ")
		p.printType(p.tree.Child(id, 0))
	case ast.KindWhenIn:
		p.write(neg + "in ")
		p.printExpr(p.tree.Child(id, 0))
	default:
		p.printExpr(id)
	}
}
