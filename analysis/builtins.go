// Copyright © 2024 The vbalint authors

package analysis

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/luthersystems/vbalint/parser/ast"
)

//go:embed builtins.toml
var builtinsTOML string

type builtinFile struct {
	Library []builtinLibrary `toml:"library"`
}

type builtinLibrary struct {
	Name   string          `toml:"name"`
	File   string          `toml:"file"`
	Module []builtinModule `toml:"module"`
}

type builtinModule struct {
	Name      string          `toml:"name"`
	Functions []builtinMember `toml:"functions"`
	Constants []builtinMember `toml:"constants"`
	Variables []builtinMember `toml:"variables"`
	Classes   []string        `toml:"classes"`
}

type builtinMember struct {
	Name    string `toml:"name"`
	Returns string `toml:"returns"`
	Type    string `toml:"type"`
	Untyped bool   `toml:"untyped"`
}

// BuiltinSet is the immutable set of library declarations visible to every
// project.  It is loaded once and passed to each table build, which works
// on its own copy so that references never modify the set.
type BuiltinSet struct {
	decls []*Declaration
}

// LoadBuiltins returns the default built-in declarations: the VBA standard
// library and the most common host globals.
func LoadBuiltins() (*BuiltinSet, error) {
	return ParseBuiltins(builtinsTOML)
}

// ParseBuiltins reads a built-in declaration set from TOML text in the
// format of the embedded default set.
func ParseBuiltins(text string) (*BuiltinSet, error) {
	var file builtinFile
	if _, err := toml.Decode(text, &file); err != nil {
		return nil, fmt.Errorf("builtins: %w", err)
	}
	set := &BuiltinSet{}
	for _, lib := range file.Library {
		if lib.Name == "" {
			return nil, fmt.Errorf("builtins: library without a name")
		}
		libDecl := &Declaration{
			Name:        lib.Name,
			Type:        DeclProject,
			Access:      ast.Public,
			IsBuiltIn:   true,
			Library:     lib.Name,
			LibraryFile: lib.File,
			Module:      QualifiedModuleName{Project: lib.Name},
		}
		set.decls = append(set.decls, libDecl)
		for _, m := range lib.Module {
			set.addModule(lib, libDecl, m)
		}
	}
	return set, nil
}

func (s *BuiltinSet) addModule(lib builtinLibrary, libDecl *Declaration, m builtinModule) {
	qmn := QualifiedModuleName{Project: lib.Name, Component: m.Name}
	scope := lib.File + ";" + lib.Name + "." + m.Name
	modDecl := &Declaration{
		Name:        m.Name,
		Type:        DeclProceduralModule,
		Module:      qmn,
		ScopePath:   lib.Name,
		Parent:      libDecl,
		Access:      ast.Public,
		IsBuiltIn:   true,
		Library:     lib.Name,
		LibraryFile: lib.File,
	}
	s.decls = append(s.decls, modDecl)
	member := func(typ DeclarationType, e builtinMember, asType string) *Declaration {
		d := &Declaration{
			Name:        e.Name,
			Type:        typ,
			Module:      qmn,
			ScopePath:   scope,
			Parent:      modDecl,
			Access:      ast.Public,
			AsTypeName:  asType,
			IsBuiltIn:   true,
			Library:     lib.Name,
			LibraryFile: lib.File,
			Untyped:     e.Untyped,
		}
		if e.Untyped {
			d.AlternateNames = []string{"_B_var_" + e.Name, "_B_str_" + e.Name}
		}
		s.decls = append(s.decls, d)
		return d
	}
	for _, e := range m.Variables {
		member(DeclVariable, e, e.Type)
	}
	for _, e := range m.Functions {
		member(DeclBuiltInFunction, e, e.Returns)
	}
	for _, e := range m.Constants {
		member(DeclBuiltInConstant, e, e.Type)
	}
	for _, name := range m.Classes {
		s.decls = append(s.decls, &Declaration{
			Name:        name,
			Type:        DeclClassModule,
			Module:      QualifiedModuleName{Project: lib.Name, Component: name},
			ScopePath:   lib.Name,
			Parent:      libDecl,
			Access:      ast.Public,
			IsBuiltIn:   true,
			Library:     lib.Name,
			LibraryFile: lib.File,
		})
	}
}

// Declarations returns the declarations of the set in file order.  The
// returned declarations must not be modified.
func (s *BuiltinSet) Declarations() []*Declaration {
	if s == nil {
		return nil
	}
	return s.decls
}

// Lookup returns the declaration of name in library, ignoring case, or nil.
// Alternate encoded names such as _B_var_Left are matched too.
func (s *BuiltinSet) Lookup(library string, name string) *Declaration {
	if s == nil {
		return nil
	}
	lib, key := fold(library), fold(name)
	for _, d := range s.decls {
		if fold(d.Library) != lib {
			continue
		}
		if fold(d.Name) == key {
			return d
		}
		for _, alt := range d.AlternateNames {
			if fold(alt) == key {
				return d
			}
		}
	}
	return nil
}

// Merge returns a set holding the declarations of s followed by those of
// other.  Earlier declarations win name lookups.
func (s *BuiltinSet) Merge(other *BuiltinSet) *BuiltinSet {
	merged := &BuiltinSet{}
	merged.decls = append(merged.decls, s.Declarations()...)
	merged.decls = append(merged.decls, other.Declarations()...)
	return merged
}

// builtinScope is a table's private copy of a BuiltinSet with lookup
// indexes.
type builtinScope struct {
	decls   []*Declaration
	byName  map[string]*Declaration
	types   map[string]*Declaration
	members map[*Declaration]map[string]*Declaration
}

func (s *BuiltinSet) instantiate() *builtinScope {
	scope := &builtinScope{
		byName:  make(map[string]*Declaration),
		types:   make(map[string]*Declaration),
		members: make(map[*Declaration]map[string]*Declaration),
	}
	copies := make(map[*Declaration]*Declaration, len(s.Declarations()))
	for _, d := range s.Declarations() {
		c := *d
		c.references = nil
		if c.Parent != nil {
			c.Parent = copies[c.Parent]
		}
		copies[d] = &c
		scope.decls = append(scope.decls, &c)
	}
	for _, d := range scope.decls {
		if d.Type == DeclClassModule {
			addFirst(scope.types, d.Name, d)
		}
		if d.Type == DeclProceduralModule || d.Type == DeclClassModule || d.Type == DeclProject {
			// modules and libraries are valid qualifiers
			addFirst(scope.byName, d.Name, d)
		}
		if d.Parent == nil {
			continue
		}
		m := scope.members[d.Parent]
		if m == nil {
			m = make(map[string]*Declaration)
			scope.members[d.Parent] = m
		}
		addFirst(m, d.Name, d)
		if d.Type == DeclClassModule {
			continue
		}
		// module members are visible unqualified, and through their library
		addFirst(scope.byName, d.Name, d)
		for _, alt := range d.AlternateNames {
			addFirst(scope.byName, alt, d)
		}
		if lib := d.Parent.Parent; lib != nil {
			lm := scope.members[lib]
			if lm == nil {
				lm = make(map[string]*Declaration)
				scope.members[lib] = lm
			}
			addFirst(lm, d.Name, d)
		}
	}
	return scope
}

func (s *builtinScope) lookup(name string) *Declaration {
	if s == nil {
		return nil
	}
	return s.byName[fold(name)]
}

func (s *builtinScope) lookupType(name string) *Declaration {
	if s == nil {
		return nil
	}
	return s.types[fold(name)]
}

func (s *builtinScope) member(container *Declaration, name string) *Declaration {
	if s == nil {
		return nil
	}
	return s.members[container][fold(name)]
}

// addFirst records d under name unless an earlier declaration holds it.
func addFirst(m map[string]*Declaration, name string, d *Declaration) {
	key := fold(name)
	if _, ok := m[key]; !ok {
		m[key] = d
	}
}
