package format

import "splice/internal/ast"

func isTypeKind(k ast.Kind) bool {
	switch k {
	case ast.KindTypeRef, ast.KindFunType, ast.KindStar, ast.KindTypeArgs:
		return true
	}
	return false
}

func (p *printer) printType(id ast.NodeID) {
	n := p.tree.Node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindStar:
		p.write("*")
	case ast.KindTypeArgs:
		p.printTypeArgs(id)
	case ast.KindFunType:
		nullable := n.Has(ast.FlagNullable)
		if nullable {
			p.write("(")
		}
		if recv := p.tree.Child(id, 0); recv != ast.NoNodeID {
			p.printType(recv)
			p.write(".")
		}
		p.write("(")
		for i, t := range p.tree.Children(p.tree.Child(id, 1)) {
			if i > 0 {
				p.write(", ")
			}
			p.printType(t)
		}
		p.write(") -> ")
		p.printType(p.tree.Child(id, 2))
		if nullable {
			p.write(")?")
		}
	case ast.KindTypeRef:
		p.write(n.Text)
		if len(n.Children) > 0 {
			p.printTypeArgs(id)
		}
		if n.Has(ast.FlagNullable) {
			p.write("?")
		}
	default:
		p.printExpr(id)
	}
}

// printTypeArgs печатает дочерние типы id в угловых скобках.
func (p *printer) printTypeArgs(id ast.NodeID) {
	p.write("<")
	for i, a := range p.tree.Children(id) {
		if i > 0 {
			p.write(", ")
		}
		if v := p.tree.Node(a).Alt; v != "" && p.tree.Kind(a) != ast.KindStar {
			p.write(v + " ")
		}
		p.printType(a)
	}
	p.write(">")
}
