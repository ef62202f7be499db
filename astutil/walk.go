// Copyright © 2024 The vbalint authors

// Package astutil provides shared syntax tree walking utilities for VBA
// modules.
//
// These helpers are used by both the analysis and inspection packages for
// traversing parsed modules.  A single call to Walk can feed any number of
// visitors so that rules do not each walk the tree again.
package astutil

import (
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// Cursor describes the position of a node during a walk.
type Cursor struct {
	Module *ast.Module
	// Parent is nil for module-level declarations.
	Parent ast.Node
	// Member is the procedure containing the node, if any.
	Member *ast.ProcDecl
	// With holds the expressions of the enclosing With blocks, innermost
	// last.
	With  []ast.Expr
	Depth int
}

// WithExpr returns the expression of the innermost enclosing With block, or
// nil.
func (c *Cursor) WithExpr() ast.Expr {
	if len(c.With) == 0 {
		return nil
	}
	return c.With[len(c.With)-1]
}

// Visitor receives every node of a walk in source order.
type Visitor interface {
	Visit(node ast.Node, c *Cursor)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(node ast.Node, c *Cursor)

func (fn VisitorFunc) Visit(node ast.Node, c *Cursor) { fn(node, c) }

// Walk visits every node of mod depth-first, calling each visitor in turn
// for every node.  The tree is traversed exactly once regardless of the
// number of visitors.
func Walk(mod *ast.Module, visitors ...Visitor) {
	if mod == nil || len(visitors) == 0 {
		return
	}
	w := &walker{visitors: visitors, cursor: Cursor{Module: mod}}
	for _, d := range mod.Decls {
		w.walk(d, nil)
	}
}

// WalkFunc is a convenience wrapper around Walk for a single function.
func WalkFunc(mod *ast.Module, fn func(node ast.Node, c *Cursor)) {
	Walk(mod, VisitorFunc(fn))
}

type walker struct {
	visitors []Visitor
	cursor   Cursor
}

func (w *walker) walk(node ast.Node, parent ast.Node) {
	if isNil(node) {
		return
	}
	c := w.cursor
	c.Parent = parent
	for _, v := range w.visitors {
		v.Visit(node, &c)
	}
	if proc, ok := node.(*ast.ProcDecl); ok {
		w.cursor.Member = proc
		defer func() { w.cursor.Member = nil }()
	}
	w.cursor.Depth++
	defer func() { w.cursor.Depth-- }()
	if with, ok := node.(*ast.WithStmt); ok {
		w.walk(with.Expr, node)
		w.cursor.With = append(w.cursor.With, with.Expr)
		for _, s := range with.Body {
			w.walk(s, node)
		}
		w.cursor.With = w.cursor.With[:len(w.cursor.With)-1]
		return
	}
	for _, child := range Children(node) {
		w.walk(child, node)
	}
}

// Children returns the direct children of node in source order.
func Children(node ast.Node) []ast.Node {
	var out []ast.Node
	add := func(nodes ...ast.Node) {
		for _, n := range nodes {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}
	addStmts := func(stmts []ast.Stmt) {
		for _, s := range stmts {
			add(s)
		}
	}
	addExprs := func(exprs []ast.Expr) {
		for _, e := range exprs {
			add(e)
		}
	}
	addParams := func(params []*ast.Param) {
		for _, p := range params {
			add(p)
		}
	}
	switch n := node.(type) {
	case *ast.VarDecl:
		for _, v := range n.Vars {
			add(v)
		}
	case *ast.VarSpec:
		add(n.Name)
		addExprs(n.Bounds)
		add(typeRef(n.Type), n.Value)
	case *ast.EnumDecl:
		add(n.Name)
		for _, m := range n.Members {
			add(m)
		}
	case *ast.EnumMember:
		add(n.Name, n.Value)
	case *ast.TypeDecl:
		add(n.Name)
		for _, m := range n.Members {
			add(m)
		}
	case *ast.EventDecl:
		add(n.Name)
		addParams(n.Params)
	case *ast.DeclareDecl:
		add(n.Name)
		addParams(n.Params)
		add(typeRef(n.Type))
	case *ast.ProcDecl:
		add(n.Name)
		addParams(n.Params)
		add(typeRef(n.Type))
		addStmts(n.Body)
	case *ast.Param:
		add(n.Name, typeRef(n.Type), n.Default)
	case *ast.AssignStmt:
		add(n.Target, n.Value)
	case *ast.CallStmt:
		add(n.Call)
	case *ast.IfStmt:
		add(n.Cond)
		addStmts(n.Then)
		for _, c := range n.ElseIfs {
			add(c)
		}
		addStmts(n.Else)
	case *ast.ElseIfClause:
		add(n.Cond)
		addStmts(n.Body)
	case *ast.ForStmt:
		add(n.Var, n.From, n.To, n.Step)
		addStmts(n.Body)
	case *ast.ForEachStmt:
		add(n.Var, n.In)
		addStmts(n.Body)
	case *ast.DoStmt:
		if !n.PostCond {
			add(n.Cond)
		}
		addStmts(n.Body)
		if n.PostCond {
			add(n.Cond)
		}
	case *ast.WhileStmt:
		add(n.Cond)
		addStmts(n.Body)
	case *ast.SelectStmt:
		add(n.Expr)
		for _, c := range n.Cases {
			add(c)
		}
	case *ast.CaseClause:
		addExprs(n.Exprs)
		addStmts(n.Body)
	case *ast.WithStmt:
		add(n.Expr)
		addStmts(n.Body)
	case *ast.RaiseEventStmt:
		add(n.Name)
		for _, a := range n.Args {
			add(a)
		}
	case *ast.ReDimStmt:
		addExprs(n.Targets)
	case *ast.EraseStmt:
		addExprs(n.Targets)
	case *ast.FileStmt:
		addExprs(n.Args)
	case *ast.MemberExpr:
		add(n.X, n.Name)
	case *ast.CallExpr:
		add(n.Fun)
		for _, a := range n.Args {
			add(a)
		}
	case *ast.Arg:
		add(n.Value)
	case *ast.BinaryExpr:
		add(n.X, n.Y)
	case *ast.UnaryExpr:
		add(n.X)
	case *ast.ParenExpr:
		add(n.X)
	case *ast.NewExpr:
		add(typeRef(n.Type))
	case *ast.TypeOfExpr:
		add(n.X, typeRef(n.Type))
	case *ast.AddressOfExpr:
		add(n.X)
	case *ast.RangeExpr:
		add(n.From, n.To)
	}
	return out
}

// typeRef converts a possibly nil *ast.TypeRef to an ast.Node that isNil
// recognizes.
func typeRef(t *ast.TypeRef) ast.Node {
	if t == nil {
		return nil
	}
	return t
}

// isNil reports whether node is nil or a typed nil pointer.
func isNil(node ast.Node) bool {
	if node == nil {
		return true
	}
	switch n := node.(type) {
	case *ast.Ident:
		return n == nil
	case *ast.TypeRef:
		return n == nil
	case *ast.Arg:
		return n == nil
	case *ast.VarSpec:
		return n == nil
	case *ast.Param:
		return n == nil
	}
	return false
}

// NodeAt returns the innermost node of mod whose span contains the 1-based
// line and column, or nil.
func NodeAt(mod *ast.Module, line, col int) ast.Node {
	var found ast.Node
	WalkFunc(mod, func(node ast.Node, _ *Cursor) {
		if loc := node.Source(); loc != nil && loc.Contains(line, col) {
			found = node
		}
	})
	return found
}

// EnclosingProc returns the procedure whose span contains line, or nil.
func EnclosingProc(mod *ast.Module, line int) *ast.ProcDecl {
	for _, proc := range mod.Procedures() {
		if proc.Loc != nil && proc.Loc.Line <= line && line <= proc.Loc.EndLine {
			return proc
		}
	}
	return nil
}

// LineSpan returns a location covering the whole of the given 1-based line
// of mod, excluding its line terminator.  It returns nil if the line does
// not exist.
func LineSpan(mod *ast.Module, line int) *token.Location {
	if line < 1 {
		return nil
	}
	text := mod.Text
	start := 0
	for n := 1; n < line; n++ {
		i := indexNewline(text[start:])
		if i < 0 {
			return nil
		}
		start += i
		if start < len(text) && text[start] == '\r' {
			start++
		}
		if start < len(text) && text[start] == '\n' {
			start++
		}
	}
	end := start
	if i := indexNewline(text[start:]); i >= 0 {
		end = start + i
	} else {
		end = len(text)
	}
	return &token.Location{
		File:    mod.Name,
		Pos:     start,
		End:     end,
		Line:    line,
		Col:     1,
		EndLine: line,
		EndCol:  1 + len([]rune(text[start:end])),
	}
}

func indexNewline(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			return i
		}
	}
	return -1
}
