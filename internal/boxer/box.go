// Package boxer groups a flat token stream into Box values: one Box per
// top-level statement or declaration, each still carrying its unparsed
// expression token slices. Turning those slices into typed expressions is
// astgen's job; the boxer only has to find statement boundaries correctly
// in the presence of nested parens, brackets, and braces.
package boxer

import "github.com/hassan/toyc/internal/lexer"

// Box is one statement- or declaration-shaped chunk of a source file.
type Box interface {
	boxNode()
	Span() lexer.Span
}

type base struct {
	span lexer.Span
}

func (base) boxNode()            {}
func (b base) Span() lexer.Span { return b.span }

// TypeExpr is a type annotation: zero or more leading `[` `]` array-depth
// markers followed by a base type token (a primitive keyword or a struct
// name identifier). `[]int` is one array dimension over int, `[][]int` is
// two.
type TypeExpr []lexer.Token

// ArrayDepth reports how many leading `[]` pairs precede the base type.
func (t TypeExpr) ArrayDepth() int {
	depth := 0
	for i := 0; i+1 < len(t); i += 2 {
		if t[i].Kind == lexer.KindLBracket && t[i+1].Kind == lexer.KindRBracket {
			depth++
		} else {
			break
		}
	}
	return depth
}

// Base returns the base type token (the name or primitive keyword after
// every leading `[]`).
func (t TypeExpr) Base() lexer.Token {
	return t[len(t)-1]
}

// VarDec is `let NAME [: TYPE] = EXPR ;`.
type VarDec struct {
	base
	Name  lexer.Token
	Type  TypeExpr // nil when the type is inferred from Value
	Value []lexer.Token
}

// Assign is `NAME = EXPR ;`, a plain variable reassignment.
type Assign struct {
	base
	Name  lexer.Token
	Value []lexer.Token
}

// StructReassign is `NAME.field1.field2...fieldN = EXPR ;`.
type StructReassign struct {
	base
	Name   lexer.Token
	Fields []string
	Value  []lexer.Token
}

// ArrReassign is `NAME[INDEX] = EXPR ;`.
type ArrReassign struct {
	base
	Name  lexer.Token
	Index []lexer.Token
	Value []lexer.Token
}

// IfStmt is `if ( COND ) { BODY } [else { ALT }]`.
type IfStmt struct {
	base
	Cond []lexer.Token
	Body []Box
	Alt  []Box // nil when there is no else branch
}

// While is `while ( COND ) { BODY }`.
type While struct {
	base
	Cond []lexer.Token
	Body []Box
}

// FuncParam is one parameter in a function signature.
type FuncParam struct {
	Name lexer.Token
	Type TypeExpr
}

// FuncDec is `fn NAME ( PARAMS ) [: RET_TYPE] { BODY }`, and also the
// desugared form of a `for Struct { fn method(...) {...} }` method, whose
// Name becomes `Struct:::method` and whose Params gain a prepended `this`
// parameter typed as the struct.
type FuncDec struct {
	base
	Name    lexer.Token
	Params  []FuncParam
	RetType TypeExpr // nil defaults to void
	Body    []Box
}

// ExternFuncDec is `extern fn NAME ( PARAMS ) [: RET_TYPE] ;`.
type ExternFuncDec struct {
	base
	Name    lexer.Token
	Params  []FuncParam
	RetType TypeExpr
}

// StructInterface is `struct NAME { field1 : TYPE1 , field2 : TYPE2 , ... }`.
type StructInterface struct {
	base
	Name   lexer.Token
	Fields []FuncParam // reuses the Name/Type pair shape
}

// Return is `return [EXPR] ;`.
type Return struct {
	base
	Value []lexer.Token // empty when returning void
}

// ExprStmt is a bare expression statement, most commonly a function call
// made for its side effects: `EXPR ;`.
type ExprStmt struct {
	base
	Tokens []lexer.Token
}

// Break is the `break ;` statement.
type Break struct{ base }

// Continue is the `continue ;` statement.
type Continue struct{ base }

// ImportStmt is `import dotted.module.path ;`.
type ImportStmt struct {
	base
	Path string
}
