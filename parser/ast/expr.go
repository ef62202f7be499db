// Copyright © 2024 The vbalint authors

package ast

import "github.com/luthersystems/vbalint/parser/token"

type LiteralKind int

const (
	StringLit LiteralKind = iota
	IntLit
	FloatLit
	DateLit
	BoolLit
	NothingLit
	EmptyLit
	NullLit
)

// Literal is a constant value as written in source.
type Literal struct {
	Kind  LiteralKind
	Value string
	Loc   *token.Location
}

func (e *Literal) Source() *token.Location { return e.Loc }
func (*Literal) exprNode()                 {}

// IsEmptyString reports whether the literal is "".
func (e *Literal) IsEmptyString() bool {
	return e.Kind == StringLit && e.Value == `""`
}

// MeExpr is the Me keyword.
type MeExpr struct {
	Loc *token.Location
}

func (e *MeExpr) Source() *token.Location { return e.Loc }
func (*MeExpr) exprNode()                 {}

// MemberExpr is X.Name or X!Name.  X is nil for a leading dot inside a With
// block.
type MemberExpr struct {
	X    Expr
	Name *Ident
	Bang bool
	Loc  *token.Location
}

func (e *MemberExpr) Source() *token.Location { return e.Loc }
func (*MemberExpr) exprNode()                 {}

// CallExpr is a call or index expression.  Parens is false for the argument
// list of an implicit call statement.
type CallExpr struct {
	Fun    Expr
	Args   []*Arg
	Parens bool
	Loc    *token.Location
}

func (e *CallExpr) Source() *token.Location { return e.Loc }
func (*CallExpr) exprNode()                 {}

// Arg is a positional, named or omitted argument.
type Arg struct {
	Name  *Ident
	Value Expr // nil for an omitted argument
	ByVal bool
	Loc   *token.Location
}

func (a *Arg) Source() *token.Location { return a.Loc }

// BinaryExpr is a binary operation.  Op is normalized to its canonical
// spelling (e.g. "And", "<>").
type BinaryExpr struct {
	Op  string
	X   Expr
	Y   Expr
	Loc *token.Location
}

func (e *BinaryExpr) Source() *token.Location { return e.Loc }
func (*BinaryExpr) exprNode()                 {}

// UnaryExpr is a negation or Not.
type UnaryExpr struct {
	Op  string
	X   Expr
	Loc *token.Location
}

func (e *UnaryExpr) Source() *token.Location { return e.Loc }
func (*UnaryExpr) exprNode()                 {}

type ParenExpr struct {
	X   Expr
	Loc *token.Location
}

func (e *ParenExpr) Source() *token.Location { return e.Loc }
func (*ParenExpr) exprNode()                 {}

// NewExpr is New Class.
type NewExpr struct {
	Type *TypeRef
	Loc  *token.Location
}

func (e *NewExpr) Source() *token.Location { return e.Loc }
func (*NewExpr) exprNode()                 {}

// TypeOfExpr is TypeOf X Is Type.
type TypeOfExpr struct {
	X    Expr
	Type *TypeRef
	Loc  *token.Location
}

func (e *TypeOfExpr) Source() *token.Location { return e.Loc }
func (*TypeOfExpr) exprNode()                 {}

// AddressOfExpr is AddressOf Procedure.
type AddressOfExpr struct {
	X   Expr
	Loc *token.Location
}

func (e *AddressOfExpr) Source() *token.Location { return e.Loc }
func (*AddressOfExpr) exprNode()                 {}

// RangeExpr is From To To, as used by Case clauses and array bounds.
type RangeExpr struct {
	From Expr
	To   Expr
	Loc  *token.Location
}

func (e *RangeExpr) Source() *token.Location { return e.Loc }
func (*RangeExpr) exprNode()                 {}

// BadExpr covers expression text that could not be parsed.
type BadExpr struct {
	Loc *token.Location
}

func (e *BadExpr) Source() *token.Location { return e.Loc }
func (*BadExpr) exprNode()                 {}
