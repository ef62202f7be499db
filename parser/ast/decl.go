// Copyright © 2024 The vbalint authors

package ast

import "github.com/luthersystems/vbalint/parser/token"

// OptionStmt is an Option statement such as Option Explicit or Option Base 1.
type OptionStmt struct {
	Name  string
	Value string
	Loc   *token.Location
}

func (s *OptionStmt) Source() *token.Location { return s.Loc }
func (*OptionStmt) declNode()                 {}

// ImplementsStmt names an interface implemented by a class module.
type ImplementsStmt struct {
	Type *TypeRef
	Loc  *token.Location
}

func (s *ImplementsStmt) Source() *token.Location { return s.Loc }
func (*ImplementsStmt) declNode()                 {}

// VarDecl declares variables or constants, at module level or inside a
// procedure.
type VarDecl struct {
	Access  Accessibility
	Keyword string // the leading keyword as written: Dim, Private, Static, ...
	Const   bool
	Static  bool
	Vars    []*VarSpec
	Loc     *token.Location
}

func (d *VarDecl) Source() *token.Location { return d.Loc }
func (*VarDecl) declNode()                 {}
func (*VarDecl) stmtNode()                 {}

// VarSpec is a single name in a VarDecl or a member of a user-defined type.
type VarSpec struct {
	Name       *Ident
	WithEvents bool
	Array      bool
	Bounds     []Expr
	Type       *TypeRef
	Value      Expr // constant initializer
	Loc        *token.Location
}

func (v *VarSpec) Source() *token.Location { return v.Loc }

// EnumDecl is an Enum block.
type EnumDecl struct {
	Access  Accessibility
	Name    *Ident
	Members []*EnumMember
	Loc     *token.Location
}

func (d *EnumDecl) Source() *token.Location { return d.Loc }
func (*EnumDecl) declNode()                 {}

type EnumMember struct {
	Name  *Ident
	Value Expr
	Loc   *token.Location
}

func (m *EnumMember) Source() *token.Location { return m.Loc }

// TypeDecl is a user-defined Type block.
type TypeDecl struct {
	Access  Accessibility
	Name    *Ident
	Members []*VarSpec
	Loc     *token.Location
}

func (d *TypeDecl) Source() *token.Location { return d.Loc }
func (*TypeDecl) declNode()                 {}

// EventDecl declares an event raised by a class module.
type EventDecl struct {
	Access Accessibility
	Name   *Ident
	Params []*Param
	Loc    *token.Location
}

func (d *EventDecl) Source() *token.Location { return d.Loc }
func (*EventDecl) declNode()                 {}

// DeclareDecl is an external library procedure declaration.
type DeclareDecl struct {
	Access   Accessibility
	Function bool
	PtrSafe  bool
	Name     *Ident
	Lib      string
	Alias    string
	Params   []*Param
	Type     *TypeRef
	Loc      *token.Location
}

func (d *DeclareDecl) Source() *token.Location { return d.Loc }
func (*DeclareDecl) declNode()                 {}

// ProcKind distinguishes the member kinds that have bodies.
type ProcKind int

const (
	SubProc ProcKind = iota
	FunctionProc
	PropertyGet
	PropertyLet
	PropertySet
)

func (k ProcKind) String() string {
	switch k {
	case FunctionProc:
		return "Function"
	case PropertyGet:
		return "Property Get"
	case PropertyLet:
		return "Property Let"
	case PropertySet:
		return "Property Set"
	default:
		return "Sub"
	}
}

// IsProperty reports whether k is a property accessor.
func (k ProcKind) IsProperty() bool {
	return k == PropertyGet || k == PropertyLet || k == PropertySet
}

// ProcDecl is a Sub, Function or Property procedure.
type ProcDecl struct {
	Access Accessibility
	Static bool
	Kind   ProcKind
	Name   *Ident
	Params []*Param
	Type   *TypeRef
	Body   []Stmt
	// Keyword spans the Sub, Function or Property keyword(s) of the header.
	Keyword *token.Location
	// Header spans the declaration line.
	Header *token.Location
	// EndStmt spans the End Sub/Function/Property line.
	EndStmt *token.Location
	Loc     *token.Location
}

func (d *ProcDecl) Source() *token.Location { return d.Loc }
func (*ProcDecl) declNode()                 {}

// Param is a procedure, event or library procedure parameter.
type Param struct {
	Name       *Ident
	ByVal      bool
	ByRef      bool
	Optional   bool
	ParamArray bool
	Array      bool
	Type       *TypeRef
	Default    Expr
	Loc        *token.Location
}

func (p *Param) Source() *token.Location { return p.Loc }

// BadDecl covers module-level text that could not be parsed.
type BadDecl struct {
	Text string
	Loc  *token.Location
}

func (d *BadDecl) Source() *token.Location { return d.Loc }
func (*BadDecl) declNode()                 {}
