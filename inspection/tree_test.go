// Copyright © 2024 The vbalint authors

package inspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionExplicit(t *testing.T) {
	results := inspect(t, InspectionOptionExplicit,
		std("Explicit", `Option Explicit

Private Sub Foo()
End Sub
`),
		std("Loose", `' helpers

Private Sub Foo()
End Sub
`),
		std("Empty", `' nothing here
`))
	require.Len(t, results, 2)
	assert.Equal(t, "Empty", results[0].Module.Component)
	assert.Equal(t, 1, results[0].Location.Line)
	assert.Equal(t, "Loose", results[1].Module.Component)
	assert.Equal(t, 3, results[1].Location.Line)
	assert.Equal(t, "Private Sub Foo()", results[1].Snapshot)
	assert.Equal(t, KindModule, results[1].Kind)
	assert.Equal(t, []string{FixAddOptionExplicit}, results[1].Fixes)
}

func TestOptionExplicit_IgnoreModule(t *testing.T) {
	results := inspect(t, InspectionOptionExplicit, std("Loose", `'@IgnoreModule OptionExplicit
Private Sub Foo()
End Sub
`))
	assert.Empty(t, results)
}

func TestEmptyStringLiteral(t *testing.T) {
	results := inspect(t, InspectionEmptyStringLiteral, std("Module1", `Private Const Blank As String = ""

Public Sub Foo()
    Dim s As String
    s = ""
    Debug.Print s & "" & "x"
End Sub
`))
	require.Len(t, results, 2)
	assertLines(t, results, 5, 6)
	for _, r := range results {
		assert.Equal(t, `""`, r.Snapshot)
		assert.Equal(t, "Foo", r.Member.Name)
		assert.Equal(t, KindNode, r.Kind)
	}
}

func TestObsoleteCallStatement(t *testing.T) {
	results := inspect(t, InspectionObsoleteCallStatement, std("Module1", `Public Sub Foo()
    Call Bar(1)
    Bar 1
    Call Baz
End Sub

Public Sub Bar(ByVal x As Long)
End Sub

Public Sub Baz()
End Sub
`))
	assertLines(t, results, 2, 4)
	assert.Equal(t, "Call Bar(1)", results[0].Snapshot)
}

func TestMultipleDeclarations(t *testing.T) {
	results := inspect(t, InspectionMultipleDeclarations, std("Module1", `Private a As Long, b As Long
Private c As Long
Private Const X As Long = 1, Y As Long = 2

Public Sub Foo()
    Dim p, q
    Dim r As String
End Sub
`))
	assertLines(t, results, 1, 3, 6)
	assert.Equal(t, "constants are declared in the same statement", results[1].Description)
	assert.Equal(t, "Foo", results[2].Member.Name)
}

func TestEmptyIfBlock(t *testing.T) {
	results := inspect(t, InspectionEmptyIfBlock, std("Module1", `Public Sub Foo(ByVal x As Long)
    If x > 1 Then
    ElseIf x > 2 Then
        Debug.Print x
    Else
        Debug.Print x
    End If
    If x = 0 Then
        Debug.Print x
    ElseIf x = 5 Then
    End If
    If x = 3 Then
        ' comments are not statements
    End If
End Sub
`))
	assertLines(t, results, 2, 10, 12)
	assert.Equal(t, "ElseIf block contains no executable statements", results[1].Description)
}
