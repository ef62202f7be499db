// Copyright © 2024 The vbalint authors

// Package ast declares the syntax tree produced for a VBA module.  Every node
// carries the source span it was parsed from.
package ast

import (
	"strings"

	"github.com/luthersystems/vbalint/parser/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Source() *token.Location
}

// Decl is a module-level declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement inside a procedure body.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// ComponentType identifies the kind of VBA component a module belongs to.
type ComponentType int

const (
	StandardModule ComponentType = iota
	ClassModule
	UserForm
	Document
)

func (c ComponentType) String() string {
	switch c {
	case ClassModule:
		return "ClassModule"
	case UserForm:
		return "UserForm"
	case Document:
		return "Document"
	default:
		return "StandardModule"
	}
}

// ParseComponentType maps a component type name to its value, ignoring case.
func ParseComponentType(s string) (ComponentType, bool) {
	for _, c := range []ComponentType{StandardModule, ClassModule, UserForm, Document} {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return StandardModule, false
}

// Module is the root of a component's syntax tree.
type Module struct {
	Project    string
	Name       string
	Type       ComponentType
	Text       string
	Loc        *token.Location
	Options    []*OptionStmt
	Implements []*ImplementsStmt
	Decls      []Decl
	Comments   []*Comment
	Errors     []*SyntaxError
}

func (m *Module) Source() *token.Location { return m.Loc }

// HasOption reports whether the module declares Option name (e.g. "Explicit").
func (m *Module) HasOption(name string) bool {
	for _, opt := range m.Options {
		if strings.EqualFold(opt.Name, name) {
			return true
		}
	}
	return false
}

// Procedures returns the procedure declarations of m in source order.
func (m *Module) Procedures() []*ProcDecl {
	var procs []*ProcDecl
	for _, d := range m.Decls {
		if p, ok := d.(*ProcDecl); ok {
			procs = append(procs, p)
		}
	}
	return procs
}

// TextOf returns the source text covered by loc.
func (m *Module) TextOf(loc *token.Location) string {
	if loc == nil || loc.Pos < 0 || loc.End > len(m.Text) || loc.Pos > loc.End {
		return ""
	}
	return m.Text[loc.Pos:loc.End]
}

// SyntaxError is a recoverable parse failure.  The parser skips to the next
// statement after recording one.
type SyntaxError struct {
	Msg string
	Loc *token.Location
}

func (err *SyntaxError) Error() string {
	return err.Loc.String() + ": " + err.Msg
}

// Comment is a single-quote or Rem comment.
type Comment struct {
	Text string
	Loc  *token.Location
	// Trailing is true when code precedes the comment on its line.
	Trailing bool
}

func (c *Comment) Source() *token.Location { return c.Loc }

// Body returns the comment text without its leading marker.
func (c *Comment) Body() string {
	text := c.Text
	if strings.HasPrefix(text, "'") {
		return text[1:]
	}
	if len(text) >= 3 && strings.EqualFold(text[:3], "rem") {
		return text[3:]
	}
	return text
}

// Ident is a name as written in source.
type Ident struct {
	Name string
	Loc  *token.Location
}

func (id *Ident) Source() *token.Location { return id.Loc }
func (*Ident) exprNode()                  {}

// BareName returns the identifier without brackets or a type hint.
func (id *Ident) BareName() string {
	name := strings.TrimSuffix(strings.TrimPrefix(id.Name, "["), "]")
	if n := len(name); n > 1 && strings.ContainsRune("$%&!#@^", rune(name[n-1])) {
		return name[:n-1]
	}
	return name
}

// TypeHint returns the trailing type hint character of the identifier, if any.
func (id *Ident) TypeHint() string {
	if n := len(id.Name); n > 1 && strings.ContainsRune("$%&!#@^", rune(id.Name[n-1])) {
		return id.Name[n-1:]
	}
	return ""
}

// TypeRef is the type named in an As clause.
type TypeRef struct {
	Parts []*Ident // qualified names are split on dots
	New   bool     // As New Class
	Loc   *token.Location
}

func (t *TypeRef) Source() *token.Location { return t.Loc }

// Name returns the dotted type name.
func (t *TypeRef) Name() string {
	if t == nil {
		return ""
	}
	names := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		names[i] = p.Name
	}
	return strings.Join(names, ".")
}

// Accessibility is an explicit access modifier, or Implicit when absent.
type Accessibility int

const (
	Implicit Accessibility = iota
	Private
	Public
	Friend
	Global
)

func (a Accessibility) String() string {
	switch a {
	case Private:
		return "Private"
	case Public:
		return "Public"
	case Friend:
		return "Friend"
	case Global:
		return "Global"
	default:
		return "Implicit"
	}
}
