// Copyright © 2024 The vbalint authors

package analysis

import (
	"sort"
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
)

// ProjectReference names a referenced project and its priority.  Lower
// priorities are searched first.
type ProjectReference struct {
	Name     string
	Priority int
}

// buildScopes indexes the collected declarations for lookup.  Declarations
// are visited in table order so the first declaration of a name wins.
func (t *Table) buildScopes(refs []ProjectReference) {
	t.projectByName = make(map[string]*Declaration)
	t.projectScope = make(map[string]map[string]*Declaration)
	t.projectTypes = make(map[string]map[string]*Declaration)
	t.children = make(map[*Declaration][]*Declaration)
	for _, p := range t.projects {
		addFirst(t.projectByName, p.Name, p)
		t.projectScope[fold(p.Name)] = make(map[string]*Declaration)
		t.projectTypes[fold(p.Name)] = make(map[string]*Declaration)
	}
	for _, d := range t.declarations {
		if d.Parent != nil {
			t.children[d.Parent] = append(t.children[d.Parent], d)
		}
		if d.Type == DeclProject {
			continue
		}
		proj := fold(d.Module.Project)
		scope, types := t.projectScope[proj], t.projectTypes[proj]
		switch {
		case d.Type.IsModule():
			addFirst(scope, d.Name, d)
			if d.Type == DeclClassModule {
				addFirst(types, d.Name, d)
			}
		case d.Type == DeclEnum || d.Type == DeclUserDefinedType:
			if d.IsPublic() {
				addFirst(types, d.Name, d)
				if d.Type == DeclEnum {
					addFirst(scope, d.Name, d)
				}
			}
		case d.Type == DeclEnumMember:
			if d.Parent.IsPublic() {
				addFirst(scope, d.Name, d)
			}
		case d.IsModuleLevel() && d.IsPublic() && d.ComponentType == ast.StandardModule:
			// public members of standard modules are global
			addFirst(scope, d.Name, d)
		}
	}
	for _, m := range t.modules {
		m.scope = make(map[string]*Declaration)
		m.locals = make(map[*Declaration]map[string]*Declaration)
		m.children = make(map[*Declaration]map[string]*Declaration)
		for _, d := range m.Declarations[1:] {
			switch {
			case d.IsModuleLevel():
				addFirst(m.scope, d.Name, d)
			case d.Type == DeclEnumMember:
				addFirst(m.scope, d.Name, d)
				addChild(m.children, d.Parent, d)
			case d.Type == DeclUserDefinedTypeMember:
				addChild(m.children, d.Parent, d)
			case d.Parent != nil && d.Parent.Type.IsMember():
				addChild(m.locals, d.Parent, d)
			}
		}
	}
	t.projectOrder = make(map[string][]string)
	priority := make(map[string]int, len(refs))
	for _, r := range refs {
		priority[fold(r.Name)] = r.Priority
	}
	for _, p := range t.projects {
		self := fold(p.Name)
		var others []string
		for _, q := range t.projects {
			other := fold(q.Name)
			if _, referenced := priority[other]; referenced && other != self {
				others = append(others, other)
			}
		}
		sort.SliceStable(others, func(i, j int) bool {
			if pi, pj := priority[others[i]], priority[others[j]]; pi != pj {
				return pi < pj
			}
			return others[i] < others[j]
		})
		t.projectOrder[self] = others
	}
}

func addChild(m map[*Declaration]map[string]*Declaration, parent *Declaration, d *Declaration) {
	names := m[parent]
	if names == nil {
		names = make(map[string]*Declaration)
		m[parent] = names
	}
	addFirst(names, d.Name, d)
}

// lookupName resolves an unqualified name used inside member (nil at
// module level) of module m.  The scopes are searched innermost first and
// the first match wins.
func (t *Table) lookupName(m *ModuleInfo, member *Declaration, name string) *Declaration {
	key := fold(name)
	if member != nil {
		if d := m.locals[member][key]; d != nil {
			return d
		}
	}
	if d := m.scope[key]; d != nil {
		return d
	}
	proj := fold(m.Name.Project)
	if d := t.projectScope[proj][key]; d != nil {
		return d
	}
	if d := t.projectByName[key]; d != nil && fold(d.Name) == proj {
		return d
	}
	for _, other := range t.projectOrder[proj] {
		if d := t.projectScope[other][key]; d != nil {
			return d
		}
		if d := t.projectByName[key]; d != nil && fold(d.Name) == other {
			return d
		}
	}
	return t.builtins.lookup(name)
}

// lookupType resolves a type name as used in an As clause, New or
// Implements.  Dotted names are resolved part by part.
func (t *Table) lookupType(m *ModuleInfo, name string) *Declaration {
	if name == "" {
		return nil
	}
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		container := t.lookupName(m, nil, parts[0])
		for _, part := range parts[1:] {
			if container == nil {
				return nil
			}
			container = t.memberOf(m, container, part)
		}
		return container
	}
	if isIntrinsicType(name) {
		return nil
	}
	key := fold(name)
	if d := m.scope[key]; d != nil && (d.Type == DeclEnum || d.Type == DeclUserDefinedType) {
		return d
	}
	proj := fold(m.Name.Project)
	if d := t.projectTypes[proj][key]; d != nil {
		return d
	}
	for _, other := range t.projectOrder[proj] {
		if d := t.projectTypes[other][key]; d != nil {
			return d
		}
	}
	return t.builtins.lookupType(name)
}

// containerOf returns the declaration whose members are reachable through
// d with member access, or nil when the type of d is unknown.
func containerOf(d *Declaration) *Declaration {
	if d == nil || d == Unresolved {
		return nil
	}
	switch {
	case d.Type == DeclProject, d.Type.IsModule(), d.Type == DeclEnum, d.Type == DeclUserDefinedType:
		return d
	}
	if d.AsType != nil {
		return d.AsType
	}
	return nil
}

// memberOf resolves name as a member of the value or namespace denoted by
// qualifier, as seen from module m.  It returns nil when the member cannot
// be determined statically.
func (t *Table) memberOf(m *ModuleInfo, qualifier *Declaration, name string) *Declaration {
	container := containerOf(qualifier)
	if container == nil {
		return nil
	}
	if container.IsBuiltIn {
		return t.builtins.member(container, name)
	}
	key := fold(name)
	switch {
	case container.Type == DeclProject:
		if d := t.projectScope[fold(container.Name)][key]; d != nil {
			return d
		}
		return nil
	case container.Type == DeclEnum || container.Type == DeclUserDefinedType:
		owner := t.byModule[container.Module]
		if owner == nil {
			return nil
		}
		return owner.children[container][key]
	case container.Type.IsModule():
		owner := t.byModule[container.Module]
		if owner == nil {
			return nil
		}
		d := owner.scope[key]
		if d == nil || d.Type == DeclEnumMember {
			return nil
		}
		if owner != m && !d.IsPublic() {
			return nil
		}
		return d
	}
	return nil
}
