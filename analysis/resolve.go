// Copyright © 2024 The vbalint authors

package analysis

import (
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// resolver binds the identifier usages of one module.  It only reads the
// table; references are returned to the caller for merging.
type resolver struct {
	t      *Table
	m      *ModuleInfo
	member *Declaration
	with   []*Declaration
	refs   []*Reference
}

// resolveModule returns the references of m in source order.
func (t *Table) resolveModule(m *ModuleInfo) []*Reference {
	r := &resolver{t: t, m: m}
	for _, impl := range m.AST.Implements {
		r.typeRef(impl.Type)
	}
	for _, d := range m.AST.Decls {
		r.decl(d)
	}
	return r.refs
}

func (r *resolver) decl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.VarDecl:
		r.varDecl(n)
	case *ast.EnumDecl:
		for _, m := range n.Members {
			r.expr(m.Value, AccessRead)
		}
	case *ast.TypeDecl:
		for _, m := range n.Members {
			r.varSpec(m)
		}
	case *ast.EventDecl:
		r.params(n.Params)
	case *ast.DeclareDecl:
		r.params(n.Params)
		r.typeRef(n.Type)
	case *ast.ProcDecl:
		r.member = r.m.DeclarationOf(n)
		r.params(n.Params)
		r.typeRef(n.Type)
		r.stmts(n.Body)
		r.member = nil
		r.with = nil
	}
}

func (r *resolver) varDecl(n *ast.VarDecl) {
	for _, spec := range n.Vars {
		r.varSpec(spec)
	}
}

func (r *resolver) varSpec(spec *ast.VarSpec) {
	for _, b := range spec.Bounds {
		r.expr(b, AccessRead)
	}
	r.typeRef(spec.Type)
	r.expr(spec.Value, AccessRead)
}

func (r *resolver) params(params []*ast.Param) {
	for _, p := range params {
		r.typeRef(p.Type)
		r.expr(p.Default, AccessRead)
	}
}

func (r *resolver) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.stmt(s)
	}
}

func (r *resolver) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		r.varDecl(n)
	case *ast.AssignStmt:
		access := AccessWrite
		if n.IsSet() {
			access = AccessSet
		}
		r.expr(n.Target, access)
		r.expr(n.Value, AccessRead)
	case *ast.CallStmt:
		r.expr(n.Call, AccessCall)
	case *ast.IfStmt:
		r.expr(n.Cond, AccessRead)
		r.stmts(n.Then)
		for _, c := range n.ElseIfs {
			r.expr(c.Cond, AccessRead)
			r.stmts(c.Body)
		}
		r.stmts(n.Else)
	case *ast.ForStmt:
		r.expr(n.Var, AccessWrite)
		r.expr(n.From, AccessRead)
		r.expr(n.To, AccessRead)
		r.expr(n.Step, AccessRead)
		r.stmts(n.Body)
	case *ast.ForEachStmt:
		r.expr(n.Var, AccessWrite)
		r.expr(n.In, AccessRead)
		r.stmts(n.Body)
	case *ast.DoStmt:
		if !n.PostCond {
			r.expr(n.Cond, AccessRead)
		}
		r.stmts(n.Body)
		if n.PostCond {
			r.expr(n.Cond, AccessRead)
		}
	case *ast.WhileStmt:
		r.expr(n.Cond, AccessRead)
		r.stmts(n.Body)
	case *ast.SelectStmt:
		r.expr(n.Expr, AccessRead)
		for _, c := range n.Cases {
			for _, e := range c.Exprs {
				r.expr(e, AccessRead)
			}
			r.stmts(c.Body)
		}
	case *ast.WithStmt:
		target := r.expr(n.Expr, AccessRead)
		r.with = append(r.with, target)
		r.stmts(n.Body)
		r.with = r.with[:len(r.with)-1]
	case *ast.RaiseEventStmt:
		r.ident(n.Name, AccessCall)
		for _, a := range n.Args {
			r.expr(a.Value, AccessRead)
		}
	case *ast.ReDimStmt:
		for _, e := range n.Targets {
			r.expr(e, AccessWrite)
		}
	case *ast.EraseStmt:
		for _, e := range n.Targets {
			r.expr(e, AccessWrite)
		}
	case *ast.FileStmt:
		for _, e := range n.Args {
			r.expr(e, AccessRead)
		}
	}
}

// expr records the references made by e and returns the declaration e
// denotes, when it is known.
func (r *resolver) expr(e ast.Expr, access AccessKind) *Declaration {
	switch n := e.(type) {
	case nil:
		return nil
	case *ast.Ident:
		if n == nil {
			return nil
		}
		return r.ident(n, access)
	case *ast.MeExpr:
		return r.m.Declaration
	case *ast.MemberExpr:
		var qualifier *Declaration
		if n.X == nil {
			if len(r.with) > 0 {
				qualifier = r.with[len(r.with)-1]
			}
		} else {
			qualifier = r.expr(n.X, AccessRead)
		}
		if qualifier == nil || n.Bang {
			return nil
		}
		d := r.t.memberOf(r.m, qualifier, n.Name.BareName())
		if d == nil {
			return nil
		}
		r.record(n.Name.Name, n.Name.Loc, n.Name, d, access)
		return d
	case *ast.CallExpr:
		funAccess := access
		if access == AccessRead {
			funAccess = AccessCall
		}
		fun := r.expr(n.Fun, funAccess)
		for _, a := range n.Args {
			r.expr(a.Value, AccessRead)
		}
		return fun
	case *ast.BinaryExpr:
		r.expr(n.X, AccessRead)
		r.expr(n.Y, AccessRead)
	case *ast.UnaryExpr:
		r.expr(n.X, AccessRead)
	case *ast.ParenExpr:
		return r.expr(n.X, AccessRead)
	case *ast.NewExpr:
		return r.typeRef(n.Type)
	case *ast.TypeOfExpr:
		r.expr(n.X, AccessRead)
		r.typeRef(n.Type)
	case *ast.AddressOfExpr:
		r.expr(n.X, AccessCall)
	case *ast.RangeExpr:
		r.expr(n.From, AccessRead)
		r.expr(n.To, AccessRead)
	}
	return nil
}

// ident resolves a bare identifier.  A name with a type hint is retried
// without it.
func (r *resolver) ident(id *ast.Ident, access AccessKind) *Declaration {
	raw := strings.TrimSuffix(strings.TrimPrefix(id.Name, "["), "]")
	d := r.lookup(raw, access)
	if d == nil {
		if bare := id.BareName(); bare != raw {
			d = r.lookup(bare, access)
		}
	}
	if d == nil {
		r.record(id.Name, id.Loc, id, Unresolved, access)
		return nil
	}
	r.record(id.Name, id.Loc, id, d, access)
	return d
}

func (r *resolver) lookup(name string, access AccessKind) *Declaration {
	// assigning to its own name sets a function or property's return value
	if r.member != nil && access.IsAssignment() && fold(r.member.Name) == fold(name) {
		return r.member
	}
	return r.t.lookupName(r.m, r.member, name)
}

// typeRef records a reference to a user or library type named in a type
// clause and returns its declaration.
func (r *resolver) typeRef(tr *ast.TypeRef) *Declaration {
	if tr == nil {
		return nil
	}
	d := r.t.lookupType(r.m, tr.Name())
	if d == nil {
		return nil
	}
	last := tr.Parts[len(tr.Parts)-1]
	r.record(last.Name, last.Loc, tr, d, AccessRead)
	return d
}

func (r *resolver) record(name string, loc *token.Location, node ast.Node, d *Declaration, access AccessKind) {
	switch {
	case access == AccessCall && !d.IsCallable() && d != Unresolved:
		access = AccessRead
	case access == AccessRead && d.Type.IsMember():
		access = AccessCall
	}
	r.refs = append(r.refs, &Reference{
		Module:      r.m.Name,
		Name:        name,
		Source:      loc,
		Access:      access,
		Declaration: d,
		Member:      r.member,
		Node:        node,
	})
}
