// Copyright © 2024 The vbalint authors

package ast

import "github.com/luthersystems/vbalint/parser/token"

// AssignStmt is a Let, Set or implicit Let assignment.
type AssignStmt struct {
	Keyword string // "", "Let" or "Set"
	Target  Expr
	Value   Expr
	Loc     *token.Location
}

func (s *AssignStmt) Source() *token.Location { return s.Loc }
func (*AssignStmt) stmtNode()                 {}

// IsSet reports whether the statement is an object assignment.
func (s *AssignStmt) IsSet() bool { return s.Keyword == "Set" }

// CallStmt invokes a procedure, either with the Call keyword or implicitly.
type CallStmt struct {
	Explicit bool
	// Keyword spans the Call keyword when Explicit.
	Keyword *token.Location
	Call    Expr
	Loc     *token.Location
}

func (s *CallStmt) Source() *token.Location { return s.Loc }
func (*CallStmt) stmtNode()                 {}

// IfStmt is a block or single-line If statement.
type IfStmt struct {
	Cond       Expr
	Then       []Stmt
	ElseIfs    []*ElseIfClause
	Else       []Stmt
	HasElse    bool
	SingleLine bool
	Loc        *token.Location
}

func (s *IfStmt) Source() *token.Location { return s.Loc }
func (*IfStmt) stmtNode()                 {}

type ElseIfClause struct {
	Cond Expr
	Body []Stmt
	Loc  *token.Location
}

func (c *ElseIfClause) Source() *token.Location { return c.Loc }

// ForStmt is a counted For...Next loop.
type ForStmt struct {
	Var  Expr
	From Expr
	To   Expr
	Step Expr
	Body []Stmt
	Loc  *token.Location
}

func (s *ForStmt) Source() *token.Location { return s.Loc }
func (*ForStmt) stmtNode()                 {}

// ForEachStmt is a For Each...Next loop.
type ForEachStmt struct {
	Var  Expr
	In   Expr
	Body []Stmt
	Loc  *token.Location
}

func (s *ForEachStmt) Source() *token.Location { return s.Loc }
func (*ForEachStmt) stmtNode()                 {}

// DoStmt is a Do...Loop with an optional While or Until condition at either
// end.
type DoStmt struct {
	Cond     Expr
	Until    bool
	PostCond bool
	Body     []Stmt
	Loc      *token.Location
}

func (s *DoStmt) Source() *token.Location { return s.Loc }
func (*DoStmt) stmtNode()                 {}

// WhileStmt is a While...Wend loop.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Loc  *token.Location
}

func (s *WhileStmt) Source() *token.Location { return s.Loc }
func (*WhileStmt) stmtNode()                 {}

// SelectStmt is a Select Case block.
type SelectStmt struct {
	Expr  Expr
	Cases []*CaseClause
	Loc   *token.Location
}

func (s *SelectStmt) Source() *token.Location { return s.Loc }
func (*SelectStmt) stmtNode()                 {}

type CaseClause struct {
	Exprs []Expr
	Else  bool
	Body  []Stmt
	Loc   *token.Location
}

func (c *CaseClause) Source() *token.Location { return c.Loc }

// WithStmt is a With block.  Member expressions with a nil X inside the body
// refer to the With expression.
type WithStmt struct {
	Expr Expr
	Body []Stmt
	Loc  *token.Location
}

func (s *WithStmt) Source() *token.Location { return s.Loc }
func (*WithStmt) stmtNode()                 {}

// ExitStmt is Exit Sub, Exit Function, Exit For, etc.
type ExitStmt struct {
	Kind string
	Loc  *token.Location
}

func (s *ExitStmt) Source() *token.Location { return s.Loc }
func (*ExitStmt) stmtNode()                 {}

// JumpStmt is a GoTo, GoSub, Resume or On Error statement.
type JumpStmt struct {
	Keyword string // "GoTo", "GoSub", "Resume", "On Error"
	Label   string
	Loc     *token.Location
}

func (s *JumpStmt) Source() *token.Location { return s.Loc }
func (*JumpStmt) stmtNode()                 {}

// LabelStmt is a line label.
type LabelStmt struct {
	Name string
	Loc  *token.Location
}

func (s *LabelStmt) Source() *token.Location { return s.Loc }
func (*LabelStmt) stmtNode()                 {}

// RaiseEventStmt raises an event declared by the enclosing class.
type RaiseEventStmt struct {
	Name *Ident
	Args []*Arg
	Loc  *token.Location
}

func (s *RaiseEventStmt) Source() *token.Location { return s.Loc }
func (*RaiseEventStmt) stmtNode()                 {}

// ReDimStmt resizes dynamic arrays.
type ReDimStmt struct {
	Preserve bool
	Targets  []Expr
	Loc      *token.Location
}

func (s *ReDimStmt) Source() *token.Location { return s.Loc }
func (*ReDimStmt) stmtNode()                 {}

// EraseStmt clears arrays.
type EraseStmt struct {
	Targets []Expr
	Loc     *token.Location
}

func (s *EraseStmt) Source() *token.Location { return s.Loc }
func (*EraseStmt) stmtNode()                 {}

// FileStmt is a file I/O statement (Open, Close, Print #, ...).  Only the
// expressions it reads are kept.
type FileStmt struct {
	Keyword string
	Args    []Expr
	Loc     *token.Location
}

func (s *FileStmt) Source() *token.Location { return s.Loc }
func (*FileStmt) stmtNode()                 {}

// SimpleStmt is a statement consisting of a single keyword, such as Stop or
// End.
type SimpleStmt struct {
	Keyword string
	Loc     *token.Location
}

func (s *SimpleStmt) Source() *token.Location { return s.Loc }
func (*SimpleStmt) stmtNode()                 {}

// BadStmt covers statement text that could not be parsed.
type BadStmt struct {
	Text string
	Loc  *token.Location
}

func (s *BadStmt) Source() *token.Location { return s.Loc }
func (*BadStmt) stmtNode()                 {}
