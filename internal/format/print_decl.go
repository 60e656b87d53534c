package format

import (
	"splice/internal/ast"
)

func (p *printer) printDecl(id ast.NodeID) {
	n := p.tree.Node(id)
	switch n.Kind {
	case ast.KindImport:
		p.write("import " + n.Text)
		if n.Alt != "" {
			p.write(" as " + n.Alt)
		}
	case ast.KindAnnotation:
		p.printAnnotation(id)
	case ast.KindFun:
		p.printFun(id)
	case ast.KindProperty:
		p.printProperty(id)
	case ast.KindGetter:
		p.printGetter(id)
	case ast.KindClass:
		p.printClass(id)
	case ast.KindConstructor:
		p.printConstructor(id)
	}
}

func (p *printer) printAnnotation(id ast.NodeID) {
	n := p.tree.Node(id)
	p.write("@")
	if n.Alt != "" {
		p.write(n.Alt + ":")
	}
	p.write(n.Text)
	if args := p.tree.Child(id, 0); args != ast.NoNodeID {
		p.printArgList(args, "(", ")")
	}
}

// printAnnotations: для функций и классов каждая аннотация на своей строке.
func (p *printer) printAnnotations(list ast.NodeID, ownLine bool) {
	for _, a := range p.tree.Children(list) {
		p.printAnnotation(a)
		if ownLine {
			p.w.Newline()
		} else {
			p.write(" ")
		}
	}
}

func (p *printer) printModifiers(id ast.NodeID) {
	if mods := p.tree.Node(id).Alt; mods != "" {
		p.write(mods + " ")
	}
}

func (p *printer) printFun(id ast.NodeID) {
	p.printAnnotations(p.tree.Child(id, ast.FunAnnots), true)
	p.printModifiers(id)
	p.write("fun ")
	if tps := p.tree.Child(id, ast.FunTypeParams); tps != ast.NoNodeID {
		p.printTypeParams(tps)
		p.write(" ")
	}
	if recv := p.tree.Child(id, ast.FunReceiver); recv != ast.NoNodeID {
		p.printType(recv)
		p.write(".")
	}
	p.write(p.tree.Text(id))
	p.printParams(p.tree.Child(id, ast.FunParams))
	if ret := p.tree.Child(id, ast.FunRetType); ret != ast.NoNodeID {
		p.write(": ")
		p.printType(ret)
	}
	p.printBody(id, p.tree.Child(id, ast.FunBody))
}

// printBody — `= expr` или блок.
func (p *printer) printBody(owner, body ast.NodeID) {
	if body == ast.NoNodeID {
		return
	}
	if p.tree.Has(owner, ast.FlagExprBody) {
		p.write(" = ")
		p.printExpr(body)
		return
	}
	p.write(" ")
	p.printBlock(body)
}

func (p *printer) printTypeParams(id ast.NodeID) {
	p.write("<")
	for i, tp := range p.tree.Children(id) {
		if i > 0 {
			p.write(", ")
		}
		n := p.tree.Node(tp)
		if n.Alt != "" {
			p.write(n.Alt + " ")
		}
		p.write(n.Text)
		if bound := p.tree.Child(tp, 0); bound != ast.NoNodeID {
			p.write(" : ")
			p.printType(bound)
		}
	}
	p.write(">")
}

func (p *printer) printParams(id ast.NodeID) {
	p.write("(")
	for i, param := range p.tree.Children(id) {
		if i > 0 {
			p.write(", ")
		}
		p.printParam(param)
	}
	p.write(")")
}

func (p *printer) printParam(id ast.NodeID) {
	n := p.tree.Node(id)
	if n.Alt != "" {
		p.write(n.Alt + " ")
	}
	if n.Has(ast.FlagVararg) {
		p.write("vararg ")
	}
	switch {
	case n.Has(ast.FlagValParam):
		p.write("val ")
	case n.Has(ast.FlagVarParam):
		p.write("var ")
	}
	p.write(n.Text)
	if typ := p.tree.Child(id, ast.ParamType); typ != ast.NoNodeID {
		p.write(": ")
		p.printType(typ)
	}
	if def := p.tree.Child(id, ast.ParamDefault); def != ast.NoNodeID {
		p.write(" = ")
		p.printExpr(def)
	}
}

func (p *printer) printProperty(id ast.NodeID) {
	p.printAnnotations(p.tree.Child(id, ast.PropAnnots), false)
	p.printModifiers(id)
	if p.tree.Has(id, ast.FlagVar) {
		p.write("var ")
	} else {
		p.write("val ")
	}
	if tps := p.tree.Child(id, ast.PropTypeParams); tps != ast.NoNodeID {
		p.printTypeParams(tps)
		p.write(" ")
	}
	if recv := p.tree.Child(id, ast.PropReceiver); recv != ast.NoNodeID {
		p.printType(recv)
		p.write(".")
	}
	p.write(p.tree.Text(id))
	if typ := p.tree.Child(id, ast.PropType); typ != ast.NoNodeID {
		p.write(": ")
		p.printType(typ)
	}
	if init := p.tree.Child(id, ast.PropInit); init != ast.NoNodeID {
		p.write(" = ")
		p.printExpr(init)
	}
	if getter := p.tree.Child(id, ast.PropGetter); getter != ast.NoNodeID {
		p.w.IndentPush()
		p.w.Newline()
		p.printGetter(getter)
		p.w.IndentPop()
	}
}

func (p *printer) printGetter(id ast.NodeID) {
	p.write("get()")
	p.printBody(id, p.tree.Child(id, 0))
}

func (p *printer) printClass(id ast.NodeID) {
	p.printAnnotations(p.tree.Child(id, ast.ClassAnnots), true)
	p.printModifiers(id)
	p.write("class " + p.tree.Text(id))
	if tps := p.tree.Child(id, ast.ClassTypeParams); tps != ast.NoNodeID {
		p.printTypeParams(tps)
	}
	if params := p.tree.Child(id, ast.ClassParams); params != ast.NoNodeID {
		p.printParams(params)
	}
	if supers := p.tree.Child(id, ast.ClassSupers); supers != ast.NoNodeID {
		p.write(" : ")
		for i, s := range p.tree.Children(supers) {
			if i > 0 {
				p.write(", ")
			}
			if p.tree.Kind(s) == ast.KindSuperCall {
				p.printType(p.tree.Child(s, 0))
				p.printArgList(p.tree.Child(s, 1), "(", ")")
			} else {
				p.printType(s)
			}
		}
	}
	if body := p.tree.Child(id, ast.ClassBody); body != ast.NoNodeID {
		p.write(" ")
		p.printMembers(body)
	}
}

func (p *printer) printConstructor(id ast.NodeID) {
	p.printAnnotations(p.tree.Child(id, ast.CtorAnnots), true)
	p.printModifiers(id)
	p.write("constructor")
	p.printParams(p.tree.Child(id, ast.CtorParams))
	if deleg := p.tree.Child(id, ast.CtorDelegation); deleg != ast.NoNodeID {
		p.write(" : " + p.tree.Text(deleg))
		p.printArgList(p.tree.Child(deleg, 0), "(", ")")
	}
	if body := p.tree.Child(id, ast.CtorBody); body != ast.NoNodeID {
		p.write(" ")
		p.printBlock(body)
	}
}

// printMembers печатает `{ ... }` для блоков и тел классов.
func (p *printer) printMembers(list ast.NodeID) {
	members := p.tree.Children(list)
	trailing := p.tree.Node(list).Trailing
	if len(members) == 0 && len(trailing) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.w.IndentPush()
	p.w.Newline()
	var prev ast.NodeID
	for _, m := range members {
		if prev != ast.NoNodeID {
			if p.blankBetween(prev, m) {
				p.w.BlankLine()
			} else {
				p.w.Newline()
			}
		}
		p.printMember(m)
		prev = m
	}
	if len(trailing) > 0 {
		if prev != ast.NoNodeID {
			p.w.Newline()
		}
		p.printLeadingComments(trailing)
	}
	p.w.IndentPop()
	p.w.Newline()
	p.write("}")
}
