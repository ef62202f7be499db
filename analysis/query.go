// Copyright © 2024 The vbalint authors

package analysis

// EnclosingMember returns the procedure of module name whose span contains
// line, or nil.
func (t *Table) EnclosingMember(name QualifiedModuleName, line int) *Declaration {
	m := t.Module(name)
	if m == nil {
		return nil
	}
	for _, d := range m.Declarations {
		if !d.Type.IsMember() || d.Context == nil {
			continue
		}
		loc := d.Context.Source()
		if loc != nil && loc.Line <= line && line <= loc.EndLine {
			return d
		}
	}
	return nil
}

// ReferenceAt returns the reference of module name whose span contains the
// 1-based line and column, or nil.
func (t *Table) ReferenceAt(name QualifiedModuleName, line, col int) *Reference {
	m := t.Module(name)
	if m == nil {
		return nil
	}
	for _, ref := range m.References {
		if ref.Source != nil && ref.Source.Contains(line, col) {
			return ref
		}
	}
	return nil
}

// DeclarationAt returns the declaration whose identifier, or one of whose
// references, covers the position.  It returns nil for unresolved usages.
func (t *Table) DeclarationAt(name QualifiedModuleName, line, col int) *Declaration {
	m := t.Module(name)
	if m == nil {
		return nil
	}
	for _, d := range m.Declarations {
		if d.Source != nil && d.Source.Contains(line, col) {
			return d
		}
	}
	if ref := t.ReferenceAt(name, line, col); ref != nil && ref.IsResolved() {
		return ref.Declaration
	}
	return nil
}
