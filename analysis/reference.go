// Copyright © 2024 The vbalint authors

package analysis

import (
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// AccessKind describes how a reference uses its declaration.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessCall
	AccessSet // object assignment with Set
)

func (k AccessKind) String() string {
	switch k {
	case AccessWrite:
		return "write"
	case AccessCall:
		return "call"
	case AccessSet:
		return "set"
	default:
		return "read"
	}
}

// IsAssignment reports whether the access assigns a value.
func (k AccessKind) IsAssignment() bool {
	return k == AccessWrite || k == AccessSet
}

// Unresolved is the declaration every unresolved reference points at.  It
// never records references itself; the table lists unresolved references
// separately.
var Unresolved = &Declaration{Name: "<unresolved>", Type: DeclUnresolved}

// Reference records a usage of an identifier.
type Reference struct {
	Module QualifiedModuleName
	// Name is the identifier as written, including any type hint.
	Name   string
	Source *token.Location
	Access AccessKind
	// Declaration is never nil.  It is Unresolved when lookup failed.
	Declaration *Declaration
	// Member is the procedure containing the usage, nil at module level.
	Member *Declaration
	Node   ast.Node
}

// IsResolved reports whether the reference found its declaration.
func (r *Reference) IsResolved() bool {
	return r.Declaration != Unresolved
}

// IsIgnoring reports whether the reference's line is covered by an
// annotation suppressing the named inspection.
func (r *Reference) IsIgnoring(t *Table, inspection string) bool {
	info := t.Module(r.Module)
	if info == nil || r.Source == nil {
		return false
	}
	return info.Annotations.Suppresses(r.Source.Line, inspection)
}
