// Copyright © 2024 The vbalint authors

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/rdparser"
)

func annotationsOf(t *testing.T, text string) *Annotations {
	t.Helper()
	mod := rdparser.Parse("VBAProject", "Module1", ast.StandardModule, text)
	return ParseAnnotations(mod)
}

func TestParseAnnotations_Targets(t *testing.T) {
	idx := annotationsOf(t, `'@Ignore ProcedureNotUsed
Private Sub Foo()
    Dim x As Long '@Ignore VariableNotUsed, MoveFieldCloserToUsage
End Sub

'@Ignore

Private Sub Bar()
End Sub
`)
	all := idx.All()
	require.Len(t, all, 3)

	assert.Equal(t, KindIgnore, all[0].Kind)
	assert.Equal(t, 1, all[0].Line)
	assert.Equal(t, 2, all[0].Target)
	assert.Equal(t, []string{"ProcedureNotUsed"}, all[0].Args)

	assert.Equal(t, 3, all[1].Target)
	assert.Equal(t, []string{"VariableNotUsed", "MoveFieldCloserToUsage"}, all[1].Args)

	// a blank line below the annotation leaves it on its own line
	assert.Equal(t, 6, all[2].Target)
	assert.Empty(t, all[2].Args)
	assert.False(t, idx.Suppresses(8, "ProcedureNotUsed"))
}

func TestParseAnnotations_StackedTargets(t *testing.T) {
	idx := annotationsOf(t, `'@TestMethod
'@Ignore ProcedureNotUsed
Private Sub Foo()
End Sub
'@Ignore ProcedureNotUsed
' helper for Foo
Private Sub Bar()
End Sub
`)
	all := idx.All()
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Target)
	assert.Equal(t, 3, all[1].Target)
	assert.True(t, idx.Marks(3, KindTestMethod))
	assert.True(t, idx.Suppresses(3, "ProcedureNotUsed"))

	assert.Equal(t, 5, all[2].Target)
	assert.False(t, idx.Suppresses(7, "ProcedureNotUsed"))
}

func TestAnnotations_Suppresses(t *testing.T) {
	idx := annotationsOf(t, `'@Ignore ProcedureNotUsed
Private Sub Foo()
    Dim x As Long '@Ignore VariableNotUsedInspection
End Sub
`)
	tests := []struct {
		line       int
		inspection string
		want       bool
	}{
		{2, "ProcedureNotUsed", true},
		{2, "procedurenotusedinspection", true},
		{2, "VariableNotUsed", false},
		{3, "VariableNotUsed", true},
		{3, "ProcedureNotUsed", false},
		{1, "ProcedureNotUsed", false},
		{4, "ProcedureNotUsed", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, idx.Suppresses(tt.line, tt.inspection), "line %d %s", tt.line, tt.inspection)
	}
}

func TestAnnotations_IgnoreModule(t *testing.T) {
	idx := annotationsOf(t, `'@IgnoreModule VariableNotUsed
Private a As Long

Private Sub Foo()
    '@IgnoreModule ParameterNotUsed
    Dim b As Long
End Sub

Private Sub Bar(ByVal c As Long)
End Sub
`)
	assert.True(t, idx.Suppresses(2, "VariableNotUsed"))
	assert.True(t, idx.Suppresses(9, "VariableNotUsed"))
	assert.True(t, idx.Suppresses(6, "ParameterNotUsed"))
	assert.False(t, idx.Suppresses(9, "ParameterNotUsed"))
	assert.False(t, idx.Suppresses(2, "ProcedureNotUsed"))
}

func TestAnnotations_AllMatchesEverything(t *testing.T) {
	idx := annotationsOf(t, `Private a As Long '@Ignore all
`)
	assert.True(t, idx.Suppresses(1, "VariableNotUsed"))
	assert.True(t, idx.Suppresses(1, "ObsoleteGlobal"))
}

func TestAnnotations_TestMethod(t *testing.T) {
	table := buildTable(t, std("Tests", `'@TestModule

'@TestMethod
Private Sub AddsNumbers()
End Sub

Private Sub Helper()
End Sub
`))
	assert.True(t, findOne(t, table, "AddsNumbers", DeclProcedure).IsTestMethod())
	assert.False(t, findOne(t, table, "Helper", DeclProcedure).IsTestMethod())
}

func TestAnnotations_UnknownKept(t *testing.T) {
	idx := annotationsOf(t, `'@Ignroe ProcedureNotUsed
Private Sub Foo()
End Sub
`)
	require.Len(t, idx.All(), 1)
	assert.Equal(t, KindUnknown, idx.All()[0].Kind)
	assert.Equal(t, "Ignroe", idx.All()[0].Name)
	assert.False(t, idx.Suppresses(2, "ProcedureNotUsed"))
	assert.Contains(t, SuggestAnnotation("Ignroe"), "Ignore")
}

func TestDeclaration_IsIgnoring(t *testing.T) {
	table := buildTable(t, std("Module1", `'@Ignore ProcedureNotUsed
Private Sub Foo()
End Sub
`))
	foo := findOne(t, table, "Foo", DeclProcedure)
	assert.True(t, foo.IsIgnoring("ProcedureNotUsed"))
	assert.False(t, foo.IsIgnoring("ImplicitPublicMember"))
}
