package format

import (
	"unicode"
	"unicode/utf8"

	"splice/internal/ast"
	"splice/internal/token"
)

func (p *printer) printExpr(id ast.NodeID) {
	n := p.tree.Node(id)
	if n == nil {
		return
	}
	if p.verbatim(id) && n.Kind != ast.KindBlock {
		p.copyNode(id)
		return
	}
	switch n.Kind {
	case ast.KindName, ast.KindLiteral:
		p.write(n.Text)
	case ast.KindThis:
		p.write("this")
		if n.Text != "" {
			p.write("@" + n.Text)
		}
	case ast.KindSuper:
		p.write("super")
	case ast.KindParen:
		p.write("(")
		p.printExpr(p.tree.Child(id, 0))
		p.write(")")
	case ast.KindString:
		p.printString(id)
	case ast.KindDot:
		p.printOperand(id, 0)
		if n.Has(ast.FlagSafe) {
			p.write("?.")
		} else {
			p.write(".")
		}
		p.printExpr(p.tree.Child(id, 1))
	case ast.KindCall:
		p.printCall(id)
	case ast.KindIndex:
		p.printOperand(id, 0)
		p.printArgList(p.tree.Child(id, 1), "[", "]")
	case ast.KindBinary:
		p.printOperand(id, 0)
		if n.Op == token.DotDot {
			p.write(n.Text)
		} else {
			p.write(" " + n.Text + " ")
		}
		p.printOperand(id, 1)
	case ast.KindPrefix:
		p.write(n.Text)
		p.printOperand(id, 0)
	case ast.KindPostfix:
		p.printOperand(id, 0)
		p.write(n.Text)
	case ast.KindIs:
		p.printOperand(id, 0)
		if n.Has(ast.FlagNegated) {
			p.write(" !is ")
		} else {
			p.write(" is ")
		}
		p.printType(p.tree.Child(id, 1))
	case ast.KindAs:
		p.printOperand(id, 0)
		if n.Has(ast.FlagSafe) {
			p.write(" as? ")
		} else {
			p.write(" as ")
		}
		p.printType(p.tree.Child(id, 1))
	case ast.KindClassLit:
		p.printOperand(id, 0)
		p.write("::class")
	case ast.KindCallableRef:
		if recv := p.tree.Child(id, 0); recv != ast.NoNodeID {
			p.printOperand(id, 0)
		}
		p.write("::" + n.Text)
	case ast.KindLambda:
		p.printLambda(id)
	case ast.KindIf:
		p.printIf(id)
	case ast.KindWhen:
		p.printWhen(id)
	case ast.KindReturn:
		p.write("return")
		if n.Text != "" {
			p.write("@" + n.Text)
		}
		if v := p.tree.Child(id, 0); v != ast.NoNodeID {
			p.write(" ")
			p.printExpr(v)
		}
	case ast.KindBreak, ast.KindContinue:
		if n.Kind == ast.KindBreak {
			p.write("break")
		} else {
			p.write("continue")
		}
		if n.Text != "" {
			p.write("@" + n.Text)
		}
	case ast.KindThrow:
		p.write("throw ")
		p.printExpr(p.tree.Child(id, 0))
	case ast.KindTypeRef, ast.KindFunType, ast.KindStar:
		p.printType(id)
	case ast.KindBlock, ast.KindAssign, ast.KindWhile, ast.KindDoWhile, ast.KindFor,
		ast.KindFun, ast.KindProperty, ast.KindClass:
		p.printStmt(id)
	case ast.KindWhenIs, ast.KindWhenIn:
		p.printWhenCond(id)
	case ast.KindArg:
		p.printArg(id)
	case ast.KindArgs:
		p.printArgList(id, "(", ")")
	case ast.KindInvalid:
		p.write("<error>")
	}
}

// printOperand печатает дочерний слот выражения, добавляя скобки по приоритету.
func (p *printer) printOperand(parent ast.NodeID, slot int) {
	child := p.tree.Child(parent, slot)
	if NeedsParens(p.tree, parent, slot, child) {
		p.write("(")
		p.printExpr(child)
		p.write(")")
		return
	}
	p.printExpr(child)
}

func (p *printer) printCall(id ast.NodeID) {
	n := p.tree.Node(id)
	p.printOperand(id, ast.CallCallee)
	if ta := p.tree.Child(id, ast.CallTypeArgs); ta != ast.NoNodeID {
		p.printTypeArgs(ta)
	}
	args := p.tree.Child(id, ast.CallArgs)
	lambda := p.tree.Child(id, ast.CallLambda)
	if !n.Has(ast.FlagNoParens) || lambda == ast.NoNodeID || len(p.tree.Children(args)) > 0 {
		p.printArgList(args, "(", ")")
	}
	if lambda != ast.NoNodeID {
		p.write(" ")
		p.printExpr(lambda)
	}
}

func (p *printer) printArgList(args ast.NodeID, open, closing string) {
	p.write(open)
	for i, a := range p.tree.Children(args) {
		if i > 0 {
			p.write(", ")
		}
		p.printArg(a)
	}
	p.write(closing)
}

func (p *printer) printArg(id ast.NodeID) {
	n := p.tree.Node(id)
	if n.Kind != ast.KindArg {
		p.printExpr(id)
		return
	}
	if n.Text != "" {
		p.write(n.Text + " = ")
	}
	if n.Has(ast.FlagSpread) {
		p.write("*")
	}
	p.printExpr(p.tree.Child(id, 0))
}

// printLambda: однострочная лямбда, если тело из одного короткого оператора.
func (p *printer) printLambda(id ast.NodeID) {
	n := p.tree.Node(id)
	if n.Alt != "" {
		p.write(n.Alt + "@")
	}
	params := p.tree.Child(id, ast.LambdaParams)
	block := p.tree.Child(id, ast.LambdaBlock)
	head := "{"
	if params != ast.NoNodeID {
		head += " "
		for i, prm := range p.tree.Children(params) {
			if i > 0 {
				head += ", "
			}
			head += p.render(func(q *printer) { q.printParam(prm) })
		}
		head += " ->"
	}
	stmts := p.tree.Children(block)
	bn := p.tree.Node(block)
	if len(stmts) == 0 && len(bn.Trailing) == 0 {
		if params != ast.NoNodeID {
			p.write(head + " }")
		} else {
			p.write("{}")
		}
		return
	}
	if len(stmts) == 1 && len(bn.Trailing) == 0 {
		s := stmts[0]
		sn := p.tree.Node(s)
		if len(sn.Leading) == 0 && len(sn.Trailing) == 0 {
			text := p.render(func(q *printer) { q.printNested(s) })
			if singleLine(text) {
				p.write(head + " " + text + " }")
				return
			}
		}
	}
	p.write(head)
	p.w.IndentPush()
	p.w.Newline()
	var prev ast.NodeID
	for _, s := range stmts {
		if prev != ast.NoNodeID {
			if blank, known := p.blankLineInGap(prev, s); known && blank && !p.soiled[prev] && !p.soiled[s] {
				p.w.BlankLine()
			} else {
				p.w.Newline()
			}
		}
		p.printMember(s)
		prev = s
	}
	if len(bn.Trailing) > 0 {
		p.w.Newline()
		p.printLeadingComments(bn.Trailing)
	}
	p.w.IndentPop()
	p.w.Newline()
	p.write("}")
}

// printString печатает шаблон; `$x` перед буквой превращается в `${x}`.
func (p *printer) printString(id ast.NodeID) {
	quote := `"`
	if p.tree.Has(id, ast.FlagRaw) {
		quote = `"""`
	}
	p.write(quote)
	parts := p.tree.Children(id)
	for i, part := range parts {
		n := p.tree.Node(part)
		nextIdent := i+1 < len(parts) && startsIdent(p.tree, parts[i+1])
		switch n.Kind {
		case ast.KindStringText:
			p.write(n.Text)
		case ast.KindStringRef:
			if nextIdent {
				p.write("${" + n.Text + "}")
			} else {
				p.write("$" + n.Text)
			}
		case ast.KindStringExpr:
			x := p.tree.Child(part, 0)
			if p.tree.Kind(x) == ast.KindName && !nextIdent {
				p.write("$" + p.tree.Text(x))
				continue
			}
			p.write("${")
			p.printExpr(x)
			p.write("}")
		}
	}
	p.write(quote)
}

func startsIdent(tree *ast.Tree, part ast.NodeID) bool {
	if tree.Kind(part) != ast.KindStringText {
		return false
	}
	r, sz := utf8.DecodeRuneInString(tree.Text(part))
	return sz > 0 && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
