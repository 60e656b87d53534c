package ast

import (
	"strings"

	"splice/internal/source"
	"splice/internal/token"
)

type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

type Kind uint8

const (
	KindInvalid Kind = iota

	// KindFile: Text = package, list of Import, Annotation (file target) and declarations.
	KindFile
	// KindImport: Text = qualified name, Alt = alias.
	KindImport
	// KindAnnotation: Text = name, Alt = use-site target; [Args|No].
	KindAnnotation
	// KindAnnotations: list of Annotation.
	KindAnnotations

	// KindFun: Text = name; [Annotations, TypeParams|No, Receiver|No, Params, RetType|No, Body|No].
	KindFun
	// KindProperty: Text = name; [Annotations, TypeParams|No, Receiver|No, Type|No, Init|No, Getter|No].
	KindProperty
	// KindGetter: [Body|No].
	KindGetter
	// KindClass: Text = name; [Annotations, TypeParams|No, Params|No, SuperList|No, ClassBody|No].
	KindClass
	// KindSuperList: list of TypeRef and SuperCall.
	KindSuperList
	// KindSuperCall: [TypeRef, Args].
	KindSuperCall
	// KindClassBody: list of members.
	KindClassBody
	// KindConstructor: [Annotations, Params, Delegation|No, Body|No].
	KindConstructor
	// KindDelegation: Text = "this" | "super"; [Args].
	KindDelegation

	// KindTypeParams: list of TypeParam.
	KindTypeParams
	// KindTypeParam: Text = name; [Bound|No].
	KindTypeParam
	// KindParams: list of Param.
	KindParams
	// KindParam: Text = name; [Type|No, Default|No].
	KindParam
	// KindTypeRef: Text = (qualified) name; list of type arguments.
	KindTypeRef
	// KindFunType: [Receiver|No, TypeList, Return].
	KindFunType
	// KindTypeList: list of types.
	KindTypeList
	// KindStar: '*' projection.
	KindStar

	// KindBlock: list of statements.
	KindBlock
	// KindAssign: Op; [Target, Value].
	KindAssign

	// KindName: Text = identifier.
	KindName
	// KindLiteral: Op = literal token kind, Text = source text.
	KindLiteral
	// KindString: list of StringText, StringRef, StringExpr.
	KindString
	// KindStringText: Text = raw source chunk (escapes kept).
	KindStringText
	// KindStringRef: Text = name of `$name`.
	KindStringRef
	// KindStringExpr: [Expr] of `${expr}`.
	KindStringExpr

	// KindCall: [Callee, TypeArgs|No, Args, Lambda|No].
	KindCall
	// KindTypeArgs: list of types.
	KindTypeArgs
	// KindArgs: list of Arg.
	KindArgs
	// KindArg: Text = name for named arguments; [Value].
	KindArg
	// KindDot: [Receiver, Selector]; selector is Name or Call.
	KindDot
	// KindBinary: Op; [Left, Right].
	KindBinary
	// KindPrefix: Op; [Operand].
	KindPrefix
	// KindPostfix: Op; [Operand].
	KindPostfix
	// KindParen: [Expr].
	KindParen
	// KindIf: [Cond, Then, Else|No].
	KindIf
	// KindWhen: [Subject|No, WhenEntry...].
	KindWhen
	// KindWhenEntry: [WhenConds|No (else), Body].
	KindWhenEntry
	// KindWhenConds: list of expressions, WhenIs, WhenIn.
	KindWhenConds
	// KindWhenIs: [Type].
	KindWhenIs
	// KindWhenIn: [Expr].
	KindWhenIn
	// KindIs: [Expr, Type].
	KindIs
	// KindAs: [Expr, Type].
	KindAs
	// KindWhile: Alt = label; [Cond, Body].
	KindWhile
	// KindDoWhile: Alt = label; [Body, Cond].
	KindDoWhile
	// KindFor: Alt = label; [Param, Iterable, Body].
	KindFor
	// KindBreak: Text = label.
	KindBreak
	// KindContinue: Text = label.
	KindContinue
	// KindReturn: Text = label; [Value|No].
	KindReturn
	// KindThrow: [Value].
	KindThrow
	// KindLambda: Alt = label; [Params|No, Block].
	KindLambda
	// KindThis: Text = label.
	KindThis
	// KindSuper
	KindSuper
	// KindClassLit: [Type].
	KindClassLit
	// KindCallableRef: Text = name; [Receiver type|No].
	KindCallableRef
	// KindIndex: [Receiver, Args].
	KindIndex
)

// Fixed child slots.
const (
	FunAnnots     = 0
	FunTypeParams = 1
	FunReceiver   = 2
	FunParams     = 3
	FunRetType    = 4
	FunBody       = 5

	PropAnnots     = 0
	PropTypeParams = 1
	PropReceiver   = 2
	PropType       = 3
	PropInit       = 4
	PropGetter     = 5

	ClassAnnots     = 0
	ClassTypeParams = 1
	ClassParams     = 2
	ClassSupers     = 3
	ClassBody       = 4

	CtorAnnots     = 0
	CtorParams     = 1
	CtorDelegation = 2
	CtorBody       = 3

	ParamType    = 0
	ParamDefault = 1

	CallCallee   = 0
	CallTypeArgs = 1
	CallArgs     = 2
	CallLambda   = 3

	IfCond = 0
	IfThen = 1
	IfElse = 2

	LambdaParams = 0
	LambdaBlock  = 1
)

type Flags uint16

const (
	FlagVar Flags = 1 << iota
	FlagExprBody
	FlagNullable
	FlagSafe
	FlagNegated
	FlagVararg
	FlagSpread
	FlagRaw
	FlagNoParens
	FlagValParam
	FlagVarParam
)

var flagNames = []string{"var", "expr", "nullable", "safe", "neg", "vararg", "spread", "raw", "noparens", "valparam", "varparam"}

func (f Flags) String() string {
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type Comment struct {
	Text  string
	Block bool
}

type Node struct {
	Kind     Kind
	Flags    Flags
	Op       token.Kind
	Text     string
	Alt      string
	Span     source.Span
	Parent   NodeID
	Children []NodeID
	Leading  []Comment
	Trailing []Comment
}

func (n *Node) Has(f Flags) bool { return n.Flags&f != 0 }

var listKinds = map[Kind]bool{
	KindFile:        true,
	KindAnnotations: true,
	KindSuperList:   true,
	KindClassBody:   true,
	KindTypeParams:  true,
	KindParams:      true,
	KindTypeRef:     true,
	KindTypeList:    true,
	KindBlock:       true,
	KindString:      true,
	KindTypeArgs:    true,
	KindArgs:        true,
	KindWhenConds:   true,
}

// IsList reports whether children of kind k form a list rather than fixed slots.
func (k Kind) IsList() bool { return listKinds[k] }

// IsDeclaration reports whether k declares a name.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindFun, KindProperty, KindClass, KindConstructor, KindParam, KindTypeParam:
		return true
	}
	return false
}

// IsLoop reports whether k is a loop statement.
func (k Kind) IsLoop() bool {
	return k == KindWhile || k == KindDoWhile || k == KindFor
}

var kindNames = [...]string{
	KindInvalid: "Invalid", KindFile: "File", KindImport: "Import", KindAnnotation: "Annotation",
	KindAnnotations: "Annotations", KindFun: "Fun", KindProperty: "Property", KindGetter: "Getter",
	KindClass: "Class", KindSuperList: "SuperList", KindSuperCall: "SuperCall", KindClassBody: "ClassBody",
	KindConstructor: "Constructor", KindDelegation: "Delegation", KindTypeParams: "TypeParams",
	KindTypeParam: "TypeParam", KindParams: "Params", KindParam: "Param", KindTypeRef: "TypeRef",
	KindFunType: "FunType", KindTypeList: "TypeList", KindStar: "Star", KindBlock: "Block",
	KindAssign: "Assign", KindName: "Name", KindLiteral: "Literal", KindString: "String",
	KindStringText: "StringText", KindStringRef: "StringRef", KindStringExpr: "StringExpr",
	KindCall: "Call", KindTypeArgs: "TypeArgs", KindArgs: "Args", KindArg: "Arg", KindDot: "Dot",
	KindBinary: "Binary", KindPrefix: "Prefix", KindPostfix: "Postfix", KindParen: "Paren", KindIf: "If",
	KindWhen: "When", KindWhenEntry: "WhenEntry", KindWhenConds: "WhenConds", KindWhenIs: "WhenIs",
	KindWhenIn: "WhenIn", KindIs: "Is", KindAs: "As", KindWhile: "While", KindDoWhile: "DoWhile",
	KindFor: "For", KindBreak: "Break", KindContinue: "Continue", KindReturn: "Return", KindThrow: "Throw",
	KindLambda: "Lambda", KindThis: "This", KindSuper: "Super", KindClassLit: "ClassLit",
	KindCallableRef: "CallableRef", KindIndex: "Index",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}
