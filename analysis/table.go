// Copyright © 2024 The vbalint authors

package analysis

import (
	"github.com/luthersystems/vbalint/parser/ast"
)

// ModuleInfo holds everything the table knows about one component.
type ModuleInfo struct {
	Name QualifiedModuleName
	AST  *ast.Module
	// Declaration is the declaration of the component itself.
	Declaration *Declaration
	// Declarations lists the module's declarations in source order,
	// starting with Declaration.
	Declarations []*Declaration
	Annotations  *Annotations
	// Errors holds the module's syntax errors followed by the problems
	// found while collecting its declarations.
	Errors []*ast.SyntaxError
	// References lists the usages found in the module in source order.
	References []*Reference

	scope    map[string]*Declaration
	locals   map[*Declaration]map[string]*Declaration
	children map[*Declaration]map[string]*Declaration
	byNode   map[ast.Node]*Declaration
}

// DeclarationOf returns the declaration introduced by node, or nil.
func (m *ModuleInfo) DeclarationOf(node ast.Node) *Declaration {
	if m == nil {
		return nil
	}
	return m.byNode[node]
}

// Member returns the module-level declaration called name, ignoring case.
func (m *ModuleInfo) Member(name string) *Declaration {
	if m == nil {
		return nil
	}
	return m.scope[fold(name)]
}

// Table is the immutable declaration table of a project: every
// declaration, and every reference resolved against them.  A Table is safe
// for concurrent reads once Build returns it.
type Table struct {
	modules      []*ModuleInfo
	byModule     map[QualifiedModuleName]*ModuleInfo
	projects     []*Declaration
	declarations []*Declaration
	unresolved   []*Reference
	builtins     *builtinScope

	projectByName map[string]*Declaration
	projectScope  map[string]map[string]*Declaration
	projectTypes  map[string]map[string]*Declaration
	projectOrder  map[string][]string
	children      map[*Declaration][]*Declaration
}

// Modules returns the modules of the table ordered by qualified name.
func (t *Table) Modules() []*ModuleInfo {
	return t.modules
}

// Module returns the module called name, or nil.
func (t *Table) Module(name QualifiedModuleName) *ModuleInfo {
	if t == nil {
		return nil
	}
	return t.byModule[name]
}

// Declarations returns every user declaration: projects first, then each
// module's declarations in module order.
func (t *Table) Declarations() []*Declaration {
	return t.declarations
}

// BuiltinDeclarations returns the table's built-in declarations with the
// references made to them.
func (t *Table) BuiltinDeclarations() []*Declaration {
	if t.builtins == nil {
		return nil
	}
	return t.builtins.decls
}

// Unresolved returns the references that did not resolve, in module order.
func (t *Table) Unresolved() []*Reference {
	return t.unresolved
}

// Find returns the user declarations called name, ignoring case.
func (t *Table) Find(name string) []*Declaration {
	key := fold(name)
	var out []*Declaration
	for _, d := range t.declarations {
		if fold(d.Name) == key {
			out = append(out, d)
		}
	}
	return out
}

// FindOfType returns the user declarations of the given types in
// declaration order.
func (t *Table) FindOfType(types ...DeclarationType) []*Declaration {
	want := make(map[DeclarationType]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	var out []*Declaration
	for _, d := range t.declarations {
		if want[d.Type] {
			out = append(out, d)
		}
	}
	return out
}

// Children returns the declarations whose parent is d, in declaration
// order.
func (t *Table) Children(d *Declaration) []*Declaration {
	return t.children[d]
}

// Project returns the declaration of the named project, or nil.
func (t *Table) Project(name string) *Declaration {
	return t.projectByName[fold(name)]
}

// References returns every reference of the table, resolved or not, in
// module order.
func (t *Table) References() []*Reference {
	var out []*Reference
	for _, m := range t.modules {
		out = append(out, m.References...)
	}
	return out
}
