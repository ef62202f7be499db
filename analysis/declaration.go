// Copyright © 2024 The vbalint authors

package analysis

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// QualifiedModuleName identifies one component of a project.
type QualifiedModuleName struct {
	Project   string
	Component string
}

func (q QualifiedModuleName) String() string {
	if q.Project == "" {
		return q.Component
	}
	return q.Project + "." + q.Component
}

// Less orders module names by project then component, ignoring case.  Names
// that differ only by case are ordered by their exact spelling.
func (q QualifiedModuleName) Less(other QualifiedModuleName) bool {
	a, b := fold(q.Project), fold(other.Project)
	if a != b {
		return a < b
	}
	a, b = fold(q.Component), fold(other.Component)
	if a != b {
		return a < b
	}
	return q.String() < other.String()
}

// ModuleName returns the qualified name of a parsed module.
func ModuleName(mod *ast.Module) QualifiedModuleName {
	return QualifiedModuleName{Project: mod.Project, Component: mod.Name}
}

// DeclarationType classifies a declaration.
type DeclarationType int

const (
	DeclProject DeclarationType = iota
	DeclProceduralModule
	DeclClassModule
	DeclUserForm
	DeclDocument
	DeclProcedure
	DeclFunction
	DeclPropertyGet
	DeclPropertyLet
	DeclPropertySet
	DeclVariable
	DeclConstant
	DeclParameter
	DeclEnum
	DeclEnumMember
	DeclUserDefinedType
	DeclUserDefinedTypeMember
	DeclEvent
	DeclEventHandler
	DeclLibraryProcedure
	DeclLibraryFunction
	DeclBuiltInFunction
	DeclBuiltInConstant
	DeclUnresolved
)

func (t DeclarationType) String() string {
	switch t {
	case DeclProject:
		return "project"
	case DeclProceduralModule:
		return "module"
	case DeclClassModule:
		return "class"
	case DeclUserForm:
		return "user form"
	case DeclDocument:
		return "document"
	case DeclProcedure:
		return "procedure"
	case DeclFunction:
		return "function"
	case DeclPropertyGet:
		return "property get"
	case DeclPropertyLet:
		return "property let"
	case DeclPropertySet:
		return "property set"
	case DeclVariable:
		return "variable"
	case DeclConstant:
		return "constant"
	case DeclParameter:
		return "parameter"
	case DeclEnum:
		return "enum"
	case DeclEnumMember:
		return "enum member"
	case DeclUserDefinedType:
		return "user-defined type"
	case DeclUserDefinedTypeMember:
		return "user-defined type member"
	case DeclEvent:
		return "event"
	case DeclEventHandler:
		return "event handler"
	case DeclLibraryProcedure:
		return "library procedure"
	case DeclLibraryFunction:
		return "library function"
	case DeclBuiltInFunction:
		return "built-in function"
	case DeclBuiltInConstant:
		return "built-in constant"
	default:
		return "unresolved"
	}
}

// IsModule reports whether t declares a component.
func (t DeclarationType) IsModule() bool {
	switch t {
	case DeclProceduralModule, DeclClassModule, DeclUserForm, DeclDocument:
		return true
	}
	return false
}

// IsMember reports whether t declares a procedure-like module member.
func (t DeclarationType) IsMember() bool {
	switch t {
	case DeclProcedure, DeclFunction, DeclPropertyGet, DeclPropertyLet, DeclPropertySet,
		DeclEventHandler, DeclLibraryProcedure, DeclLibraryFunction, DeclBuiltInFunction:
		return true
	}
	return false
}

// IsProperty reports whether t is a property accessor.
func (t DeclarationType) IsProperty() bool {
	return t == DeclPropertyGet || t == DeclPropertyLet || t == DeclPropertySet
}

func moduleDeclarationType(c ast.ComponentType) DeclarationType {
	switch c {
	case ast.ClassModule:
		return DeclClassModule
	case ast.UserForm:
		return DeclUserForm
	case ast.Document:
		return DeclDocument
	default:
		return DeclProceduralModule
	}
}

// Declaration is a named entity introduced by source or by a built-in
// library.
type Declaration struct {
	Name          string
	Type          DeclarationType
	Module        QualifiedModuleName
	ComponentType ast.ComponentType
	// ScopePath is the dotted path of the scope the name is declared in:
	// project.module for module members, project.module.member for locals.
	ScopePath string
	// Signature distinguishes declarations sharing a name in one scope,
	// such as the accessors of a property.
	Signature  string
	Parent     *Declaration
	Access     ast.Accessibility
	AsTypeName string
	// AsType is the user or built-in type declaration named by AsTypeName,
	// when one was found.
	AsType       *Declaration
	IsArray      bool
	IsWithEvents bool
	IsBuiltIn    bool
	// HasTypeHint is set when the type was given by a suffix such as $.
	HasTypeHint bool
	Params      []*Declaration
	// Source spans the declared identifier.
	Source *token.Location
	// Context is the node that declares the name.
	Context ast.Node
	// Statement is the enclosing declaration statement for variables and
	// constants.
	Statement ast.Node

	// Built-in metadata.
	Library        string
	LibraryFile    string
	AlternateNames []string
	// Untyped marks built-in functions that return Variant and have a
	// String-returning $ counterpart.
	Untyped bool

	// Interface is the interface member implemented by this declaration.
	Interface       *Declaration
	Implementations []*Declaration
	// Event is the event handled by an event handler.
	Event *Declaration

	order       int
	references  []*Reference
	annotations *Annotations
}

// String returns the scope-qualified name of the declaration.
func (d *Declaration) String() string {
	if d.ScopePath == "" {
		return d.Name
	}
	return d.ScopePath + "." + d.Name
}

// References returns the usages of the declaration in module order.
func (d *Declaration) References() []*Reference {
	return d.references
}

// IsPublic reports whether the declaration is visible outside its module.
// Members without an access modifier are public while module-level Dim
// variables are private.
func (d *Declaration) IsPublic() bool {
	switch d.Access {
	case ast.Public, ast.Global, ast.Friend:
		return true
	case ast.Private:
		return false
	}
	switch d.Type {
	case DeclVariable, DeclConstant:
		return false
	case DeclParameter, DeclUserDefinedTypeMember:
		return false
	}
	return true
}

// IsLocal reports whether the declaration belongs to a member scope.
func (d *Declaration) IsLocal() bool {
	return d.Parent != nil && d.Parent.Type.IsMember() && d.Type != DeclParameter
}

// IsModuleLevel reports whether the declaration's parent is its module.
func (d *Declaration) IsModuleLevel() bool {
	return d.Parent != nil && d.Parent.Type.IsModule()
}

// IsCallable reports whether the declaration can be invoked.
func (d *Declaration) IsCallable() bool {
	return d.Type.IsMember() || d.Type == DeclEvent
}

// IsInterfaceImplementation reports whether the declaration implements a
// member of an interface its class implements.
func (d *Declaration) IsInterfaceImplementation() bool {
	return d.Interface != nil
}

// IsInterfaceMember reports whether some class implements the declaration.
func (d *Declaration) IsInterfaceMember() bool {
	return len(d.Implementations) > 0
}

// Selection returns the declared identifier's span, or the span of the
// declaring node when no identifier is available.
func (d *Declaration) Selection() *token.Location {
	if d.Source != nil {
		return d.Source
	}
	if d.Context != nil {
		return d.Context.Source()
	}
	return nil
}

// Annotations returns the annotations of the declaring module.
func (d *Declaration) Annotations() *Annotations {
	return d.annotations
}

// IsIgnoring reports whether the declaration's line is covered by an
// annotation suppressing the named inspection.
func (d *Declaration) IsIgnoring(inspection string) bool {
	loc := d.Selection()
	if d.annotations == nil || loc == nil {
		return false
	}
	return d.annotations.Suppresses(loc.Line, inspection)
}

// IsTestMethod reports whether the declaration is a procedure annotated
// with @TestMethod.
func (d *Declaration) IsTestMethod() bool {
	proc, ok := d.Context.(*ast.ProcDecl)
	if !ok || d.annotations == nil || proc.Loc == nil {
		return false
	}
	return d.annotations.Marks(proc.Loc.Line, KindTestMethod)
}

// HasReferencesOutside reports whether d is referenced from anywhere other
// than its own body.
func (d *Declaration) HasReferencesOutside() bool {
	for _, ref := range d.references {
		if ref.Member != d {
			return true
		}
	}
	return false
}

// fold returns the case-folded form of a VBA name.  VBA identifiers are
// case-insensitive.
func fold(name string) string {
	return cases.Fold().String(name)
}

// FoldName exposes the case folding used for identifier comparison.
func FoldName(name string) string {
	return fold(name)
}

// typeHints maps identifier suffixes to the type they declare.
var typeHints = map[string]string{
	"$": "String",
	"%": "Integer",
	"&": "Long",
	"!": "Single",
	"#": "Double",
	"@": "Currency",
	"^": "LongLong",
}

// intrinsicTypes are the types that never name a declaration.
var intrinsicTypes = map[string]bool{
	"boolean": true, "byte": true, "integer": true, "long": true,
	"longlong": true, "longptr": true, "single": true, "double": true,
	"currency": true, "decimal": true, "date": true, "string": true,
	"object": true, "variant": true, "any": true,
}

func isIntrinsicType(name string) bool {
	return intrinsicTypes[strings.ToLower(name)]
}
