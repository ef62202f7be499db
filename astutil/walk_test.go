// Copyright © 2024 The vbalint authors

package astutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/rdparser"
)

const walkSource = `Option Explicit
Private counter As Long

Public Sub Tick(ByVal n As Long)
    counter = counter + n
    With Sheet1
        .Name = "x"
    End With
End Sub
`

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod := rdparser.Parse("VBAProject", "Module1", ast.StandardModule, src)
	require.Empty(t, mod.Errors)
	return mod
}

func TestWalk_VisitsInSourceOrder(t *testing.T) {
	mod := parse(t, walkSource)
	var idents []string
	WalkFunc(mod, func(node ast.Node, _ *Cursor) {
		if id, ok := node.(*ast.Ident); ok {
			idents = append(idents, id.Name)
		}
	})
	assert.Equal(t, []string{"counter", "Tick", "n", "counter", "counter", "n", "Sheet1", "Name"}, idents)
}

func TestWalk_MultipleVisitorsShareOneTraversal(t *testing.T) {
	mod := parse(t, walkSource)
	var first, second int
	Walk(mod,
		VisitorFunc(func(ast.Node, *Cursor) { first++ }),
		VisitorFunc(func(ast.Node, *Cursor) { second++ }),
	)
	assert.Positive(t, first)
	assert.Equal(t, first, second)
}

func TestWalk_Cursor(t *testing.T) {
	mod := parse(t, walkSource)
	var topLevel, inMember int
	var withName ast.Expr
	WalkFunc(mod, func(node ast.Node, c *Cursor) {
		assert.Same(t, mod, c.Module)
		switch n := node.(type) {
		case *ast.VarDecl, *ast.ProcDecl:
			assert.Nil(t, c.Parent)
			assert.Zero(t, c.Depth)
			topLevel++
		case *ast.AssignStmt:
			require.NotNil(t, c.Member)
			assert.Equal(t, "Tick", c.Member.Name.Name)
			inMember++
			if m, ok := n.Target.(*ast.MemberExpr); ok && m.X == nil {
				withName = c.WithExpr()
			}
		}
	})
	assert.Equal(t, 2, topLevel)
	assert.Equal(t, 2, inMember)
	require.NotNil(t, withName)
	assert.Equal(t, "Sheet1", withName.(*ast.Ident).Name)
}

func TestChildren_OmitsMissingParts(t *testing.T) {
	spec := &ast.VarSpec{Name: &ast.Ident{Name: "x"}}
	children := Children(spec)
	require.Len(t, children, 1)
	assert.Equal(t, "x", children[0].(*ast.Ident).Name)

	do := &ast.DoStmt{}
	assert.Empty(t, Children(do))
}

func TestNodeAt(t *testing.T) {
	mod := parse(t, "Sub A()\n    x = Foo(1)\nEnd Sub\n")
	node := NodeAt(mod, 2, 9)
	require.NotNil(t, node)
	id, ok := node.(*ast.Ident)
	require.True(t, ok, "got %T", node)
	assert.Equal(t, "Foo", id.Name)
	assert.Nil(t, NodeAt(mod, 10, 1))
}

func TestEnclosingProc(t *testing.T) {
	mod := parse(t, walkSource)
	proc := EnclosingProc(mod, 5)
	require.NotNil(t, proc)
	assert.Equal(t, "Tick", proc.Name.Name)
	assert.Nil(t, EnclosingProc(mod, 2))
}

func TestLineSpan(t *testing.T) {
	mod := parse(t, "Sub A()\r\n    Foo\r\nEnd Sub")
	span := LineSpan(mod, 2)
	require.NotNil(t, span)
	assert.Equal(t, "    Foo", mod.TextOf(span))
	assert.Equal(t, "End Sub", mod.TextOf(LineSpan(mod, 3)))
	assert.Nil(t, LineSpan(mod, 4))
}
