// Copyright © 2024 The vbalint authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/vbalint/astutil"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// identity is the key under which a declaration must be unique.
type identity struct {
	module    QualifiedModuleName
	scope     string
	name      string
	signature string
}

func identityOf(d *Declaration) identity {
	return identity{
		module:    d.Module,
		scope:     fold(d.ScopePath),
		name:      fold(d.Name),
		signature: d.Signature,
	}
}

// collector emits the declarations of a single module.  It reads nothing
// but the module's own tree.
type collector struct {
	info    *ModuleInfo
	mod     *ast.Module
	scope   string
	seen    map[identity]*Declaration
	members map[*ast.ProcDecl]*Declaration
}

// collectModule runs the collection pass over one module.
func collectModule(mod *ast.Module) *ModuleInfo {
	name := ModuleName(mod)
	info := &ModuleInfo{
		Name:        name,
		AST:         mod,
		Annotations: ParseAnnotations(mod),
		Errors:      append([]*ast.SyntaxError(nil), mod.Errors...),
		byNode:      make(map[ast.Node]*Declaration),
	}
	c := &collector{
		info:    info,
		mod:     mod,
		scope:   mod.Project + "." + mod.Name,
		seen:    make(map[identity]*Declaration),
		members: make(map[*ast.ProcDecl]*Declaration),
	}
	modDecl := &Declaration{
		Name:      mod.Name,
		Type:      moduleDeclarationType(mod.Type),
		ScopePath: mod.Project,
		Access:    ast.Public,
		Context:   mod,
	}
	info.Declaration = c.declare(modDecl, nil)
	astutil.WalkFunc(mod, c.visit)
	return info
}

// declare completes d and records it, or reports a duplicate declaration
// and returns nil.
func (c *collector) declare(d *Declaration, parent *Declaration) *Declaration {
	d.Module = c.info.Name
	d.ComponentType = c.mod.Type
	d.Parent = parent
	d.annotations = c.info.Annotations
	id := identityOf(d)
	if prev := c.seen[id]; prev != nil {
		c.info.Errors = append(c.info.Errors, &ast.SyntaxError{
			Msg: fmt.Sprintf("duplicate declaration in current scope: %s (previously declared at %v)", d.Name, prev.Selection()),
			Loc: d.Selection(),
		})
		return nil
	}
	c.seen[id] = d
	c.info.Declarations = append(c.info.Declarations, d)
	if d.Context != nil {
		if _, ok := c.info.byNode[d.Context]; !ok {
			c.info.byNode[d.Context] = d
		}
	}
	return d
}

func (c *collector) visit(node ast.Node, cur *astutil.Cursor) {
	modDecl := c.info.Declaration
	switch n := node.(type) {
	case *ast.VarDecl:
		parent, scope, sig := modDecl, c.scope, ""
		if cur.Member != nil {
			parent = c.members[cur.Member]
			if parent == nil {
				return
			}
			scope, sig = c.memberScope(parent)
		}
		typ := DeclVariable
		if n.Const {
			typ = DeclConstant
		}
		for _, spec := range n.Vars {
			d := &Declaration{
				Name:         spec.Name.BareName(),
				Type:         typ,
				ScopePath:    scope,
				Signature:    sig,
				Access:       n.Access,
				IsArray:      spec.Array,
				IsWithEvents: spec.WithEvents,
				Source:       spec.Name.Loc,
				Context:      spec,
				Statement:    n,
			}
			setType(d, spec.Name, spec.Type)
			c.declare(d, parent)
		}
	case *ast.EnumDecl:
		enum := c.declare(&Declaration{
			Name:      n.Name.BareName(),
			Type:      DeclEnum,
			ScopePath: c.scope,
			Access:    n.Access,
			Source:    n.Name.Loc,
			Context:   n,
			Statement: n,
		}, modDecl)
		if enum == nil {
			return
		}
		for _, m := range n.Members {
			c.declare(&Declaration{
				Name:       m.Name.BareName(),
				Type:       DeclEnumMember,
				ScopePath:  c.scope + "." + enum.Name,
				Access:     n.Access,
				AsTypeName: "Long",
				Source:     m.Name.Loc,
				Context:    m,
				Statement:  n,
			}, enum)
		}
	case *ast.TypeDecl:
		udt := c.declare(&Declaration{
			Name:      n.Name.BareName(),
			Type:      DeclUserDefinedType,
			ScopePath: c.scope,
			Access:    n.Access,
			Source:    n.Name.Loc,
			Context:   n,
			Statement: n,
		}, modDecl)
		if udt == nil {
			return
		}
		for _, m := range n.Members {
			d := &Declaration{
				Name:      m.Name.BareName(),
				Type:      DeclUserDefinedTypeMember,
				ScopePath: c.scope + "." + udt.Name,
				IsArray:   m.Array,
				Source:    m.Name.Loc,
				Context:   m,
				Statement: n,
			}
			setType(d, m.Name, m.Type)
			c.declare(d, udt)
		}
	case *ast.EventDecl:
		event := c.declare(&Declaration{
			Name:      n.Name.BareName(),
			Type:      DeclEvent,
			ScopePath: c.scope,
			Access:    n.Access,
			Source:    n.Name.Loc,
			Context:   n,
			Statement: n,
		}, modDecl)
		c.declareParams(event, n.Params)
	case *ast.DeclareDecl:
		typ := DeclLibraryProcedure
		if n.Function {
			typ = DeclLibraryFunction
		}
		d := &Declaration{
			Name:      n.Name.BareName(),
			Type:      typ,
			ScopePath: c.scope,
			Access:    n.Access,
			Library:   n.Lib,
			Source:    n.Name.Loc,
			Context:   n,
			Statement: n,
		}
		if n.Function {
			setType(d, n.Name, n.Type)
		}
		c.declareParams(c.declare(d, modDecl), n.Params)
	case *ast.ProcDecl:
		d := &Declaration{
			Name:      n.Name.BareName(),
			Type:      procDeclarationType(n.Kind),
			ScopePath: c.scope,
			Access:    n.Access,
			Source:    n.Name.Loc,
			Context:   n,
			Statement: n,
		}
		if n.Kind.IsProperty() {
			d.Signature = n.Kind.String()
		}
		if n.Kind == ast.FunctionProc || n.Kind == ast.PropertyGet {
			setType(d, n.Name, n.Type)
		}
		member := c.declare(d, modDecl)
		if member == nil {
			return
		}
		c.members[n] = member
		c.declareParams(member, n.Params)
	}
}

// memberScope returns the scope path and signature shared by the locals
// of member.  Property accessors share a name, so their locals carry the
// accessor kind as signature.
func (c *collector) memberScope(member *Declaration) (string, string) {
	return c.scope + "." + member.Name, member.Signature
}

func (c *collector) declareParams(parent *Declaration, params []*ast.Param) {
	if parent == nil {
		return
	}
	scope := c.scope + "." + parent.Name
	for _, p := range params {
		d := &Declaration{
			Name:      p.Name.BareName(),
			Type:      DeclParameter,
			ScopePath: scope,
			Signature: parent.Signature,
			IsArray:   p.Array,
			Source:    p.Name.Loc,
			Context:   p,
		}
		setType(d, p.Name, p.Type)
		if c.declare(d, parent) != nil {
			parent.Params = append(parent.Params, d)
		}
	}
}

// setType records the declared type of d from an As clause or a type hint.
// AsTypeName stays empty for an implicit Variant.
func setType(d *Declaration, name *ast.Ident, typ *ast.TypeRef) {
	if typ != nil {
		d.AsTypeName = typ.Name()
		return
	}
	if hint := name.TypeHint(); hint != "" {
		d.AsTypeName = typeHints[hint]
		d.HasTypeHint = true
	}
}

func procDeclarationType(kind ast.ProcKind) DeclarationType {
	switch kind {
	case ast.FunctionProc:
		return DeclFunction
	case ast.PropertyGet:
		return DeclPropertyGet
	case ast.PropertyLet:
		return DeclPropertyLet
	case ast.PropertySet:
		return DeclPropertySet
	default:
		return DeclProcedure
	}
}

// moduleLocation returns a span covering the first line of mod, used when a
// module-level result has no better anchor.
func moduleLocation(mod *ast.Module) *token.Location {
	return astutil.LineSpan(mod, 1)
}
