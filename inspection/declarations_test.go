// Copyright © 2024 The vbalint authors

package inspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/ast"
)

// --- ProcedureNotUsed ---

func TestProcedureNotUsed_LonePrivateSub(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `Private Sub Foo()
End Sub
`))
	require.Len(t, results, 1)
	assertTargets(t, results, "Foo")
	assert.Equal(t, KindDeclaration, results[0].Kind)
	assert.Equal(t, SeverityWarning, results[0].Severity)
	assert.Equal(t, []string{FixRemoveUnusedDeclaration, FixIgnoreOnce}, results[0].Fixes)
}

func TestProcedureNotUsed_MultipleSubs(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `Private Sub Foo()
End Sub

Private Sub Goo()
End Sub
`))
	assertTargets(t, results, "Foo", "Goo")
}

func TestProcedureNotUsed_Called(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `Private Sub Foo()
End Sub

Public Sub Bar()
    Foo
End Sub
`))
	assert.Empty(t, results)
}

func TestProcedureNotUsed_SomeUsed(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `Private Sub Foo()
End Sub

Private Sub Goo()
    Foo
End Sub
`))
	assertTargets(t, results, "Goo")
}

func TestProcedureNotUsed_SelfRecursion(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `Private Sub Foo()
    Foo
End Sub
`))
	assertTargets(t, results, "Foo")
}

func TestProcedureNotUsed_MutualRecursion(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `Private Sub Foo()
    Bar
End Sub

Private Sub Bar()
    Foo
End Sub
`))
	assert.Empty(t, results)
}

func TestProcedureNotUsed_InterfaceImplementation(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed,
		class("IClass1", `Public Sub DoSomething(ByVal a As Integer)
End Sub
`),
		class("Class1", `Implements IClass1

Private Sub IClass1_DoSomething(ByVal a As Integer)
End Sub
`))
	assert.Empty(t, results)
}

func TestProcedureNotUsed_HandlerOfUnraisedEvent(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed,
		class("Class1", `Public Event Foo(ByVal arg1 As Integer, ByVal arg2 As String)
`),
		class("Class2", `Private WithEvents abc As Class1

Private Sub abc_Foo(ByVal arg1 As Integer, ByVal arg2 As String)
End Sub
`))
	assert.Empty(t, results)
}

func TestProcedureNotUsed_ClassLifecycle(t *testing.T) {
	for _, name := range []string{"Class_Initialize", "class_initialize", "Class_Terminate", "CLASS_TERMINATE"} {
		results := inspect(t, InspectionProcedureNotUsed, class("Class1", "Private Sub "+name+"()\nEnd Sub\n"))
		assert.Empty(t, results, name)
	}
}

func TestProcedureNotUsed_PublicMembers(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed,
		std("Module1", `Public Sub Exposed()
End Sub

Sub ImplicitlyPublic()
End Sub
`),
		class("Class1", `Public Sub Method()
End Sub
`))
	assertTargets(t, results, "Method")
}

func TestProcedureNotUsed_HostAutoMacros(t *testing.T) {
	tests := []struct {
		typ    ast.ComponentType
		macro  string
		module string
	}{
		{ast.StandardModule, "auto_open", "module1"},
		{ast.StandardModule, "auto_close", "module1"},
		{ast.StandardModule, "AutoExec", "module1"},
		{ast.StandardModule, "AutoNew", "module1"},
		{ast.StandardModule, "AutoOpen", "module1"},
		{ast.StandardModule, "AutoClose", "module1"},
		{ast.StandardModule, "AutoExit", "module1"},
		{ast.Document, "AutoExec", "module1"},
		{ast.Document, "AutoNew", "module1"},
		{ast.StandardModule, "Main", "AutoClose"},
		{ast.StandardModule, "Main", "AutoExit"},
	}
	for _, tt := range tests {
		s := src{name: tt.module, typ: tt.typ, text: "Private Sub " + tt.macro + "()\nEnd Sub\n"}
		results := inspect(t, InspectionProcedureNotUsed, s)
		assert.Empty(t, results, "%s %s.%s", tt.typ, tt.module, tt.macro)
	}
}

func TestProcedureNotUsed_ConfiguredEntryPoint(t *testing.T) {
	s := std("Module1", `Private Sub DoWork()
End Sub
`)
	assert.Len(t, inspect(t, InspectionProcedureNotUsed, s), 1)

	cfg := &Config{EntryPoints: analysis.HostEntryPoints{{Name: "dowork", Host: "CUSTOM.EXE"}}}
	assert.Empty(t, inspectWith(t, InspectionProcedureNotUsed, cfg, s))
}

func TestProcedureNotUsed_TestMethod(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Tests", `'@TestModule

'@TestMethod
Private Sub AddsNumbers()
End Sub

Private Sub Helper()
End Sub
`))
	assertTargets(t, results, "Helper")
}

func TestProcedureNotUsed_Ignored(t *testing.T) {
	results := inspect(t, InspectionProcedureNotUsed, std("Module1", `'@Ignore ProcedureNotUsed
Private Sub Foo()
End Sub
`))
	assert.Empty(t, results)
}

// --- VariableNotUsed ---

func TestVariableNotUsed(t *testing.T) {
	results := inspect(t, InspectionVariableNotUsed, std("Module1", `Private field As Long
Public shared As Long

Public Sub Foo()
    Dim x As Long
    Dim y As Long
    y = 1
    Dim z As Long
    z = 2
    Debug.Print z
End Sub
`))
	assertTargets(t, results, "field", "x", "y")
	for _, r := range results {
		if r.Declaration.Name == "y" {
			assert.Equal(t, []string{FixIgnoreOnce}, r.Fixes, "assigned variables cannot simply be removed")
		} else {
			assert.True(t, r.HasFix(FixRemoveUnusedDeclaration))
		}
	}
}

func TestVariableNotUsed_ObjectMemberAccess(t *testing.T) {
	results := inspect(t, InspectionVariableNotUsed,
		class("Account", `Public Sub Deposit()
End Sub
`),
		std("Module1", `Public Sub Foo()
    Dim acct As Account
    Set acct = New Account
    acct.Deposit
End Sub
`))
	assert.Empty(t, results)
}

// --- ConstantNotUsed ---

func TestConstantNotUsed(t *testing.T) {
	results := inspect(t, InspectionConstantNotUsed, std("Module1", `Private Const A As Long = 1
Private Const B As Long = 2
Public Const C As Long = 3

Public Function Two() As Long
    Const Local1 As Long = 4
    Two = B
End Function
`))
	assertTargets(t, results, "A", "Local1")
}

// --- ParameterNotUsed ---

func TestParameterNotUsed(t *testing.T) {
	results := inspect(t, InspectionParameterNotUsed,
		std("Module1", `Public Sub Foo(ByVal a As Long, ByVal b As Long)
    Debug.Print a
End Sub

Private Declare PtrSafe Function GetTickCount Lib "kernel32" (ByVal unused As Long) As Long
`),
		class("IClass1", `Public Sub DoSomething(ByVal a As Integer)
End Sub
`),
		class("Class1", `Implements IClass1

Private Sub IClass1_DoSomething(ByVal a As Integer)
End Sub

Private Sub Class_Initialize()
End Sub
`))
	assertTargets(t, results, "b")
	assert.Equal(t, SeveritySuggestion, results[0].Severity)
}

// --- NonReturningFunction ---

func TestNonReturningFunction(t *testing.T) {
	results := inspect(t, InspectionNonReturningFunction, std("Module1", `Public Function Foo() As Long
End Function

Public Function Bar() As Long
    Bar = 1
End Function

Public Function Baz() As Object
    Set Baz = Nothing
End Function

Public Property Get Value() As Long
End Property
`))
	assertTargets(t, results, "Foo", "Value")
	for _, r := range results {
		if r.Declaration.Name == "Foo" {
			assert.Equal(t, []string{FixConvertToProcedure, FixIgnoreOnce}, r.Fixes)
		} else {
			assert.Equal(t, []string{FixIgnoreOnce}, r.Fixes)
		}
	}
}

func TestNonReturningFunction_InterfaceImplementation(t *testing.T) {
	results := inspect(t, InspectionNonReturningFunction,
		class("IClass1", `Public Function Value() As Long
End Function
`),
		class("Class1", `Implements IClass1

Private Function IClass1_Value() As Long
End Function
`))
	assertTargets(t, results, "IClass1_Value")
	assert.Equal(t, []string{FixIgnoreOnce}, results[0].Fixes)
}

// --- UntypedFunctionUsage ---

func TestUntypedFunctionUsage(t *testing.T) {
	results := inspect(t, InspectionUntypedFunctionUsage, std("Module1", `Public Sub Foo()
    Debug.Print Left("abc", 1)
    Debug.Print Left$("abc", 1)
    Debug.Print Len("abc")
End Sub
`))
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, KindReference, r.Kind)
	assert.Equal(t, "Left", r.Snapshot)
	assert.Equal(t, 2, r.Location.Line)
	assert.Equal(t, "Foo", r.Member.Name)
	assert.True(t, r.HasFix(FixUseTypedFunction))
}

func TestUntypedFunctionUsage_UserFunctionShadows(t *testing.T) {
	results := inspect(t, InspectionUntypedFunctionUsage, std("Module1", `Private Function Left(ByVal s As String, ByVal n As Long) As String
    Left = s
End Function

Public Sub Foo()
    Debug.Print Left("abc", 1)
End Sub
`))
	assert.Empty(t, results)
}

// --- UndeclaredVariable ---

func TestUndeclaredVariable(t *testing.T) {
	results := inspect(t, InspectionUndeclaredVariable, std("Module1", `Public Sub Foo()
    x = 1
    x = x + 1
    Debug.Print y
    Bar
End Sub

Public Sub Baz()
    x = 2
End Sub
`))
	require.Len(t, results, 3)
	assertLines(t, results, 2, 4, 9)
	assert.Equal(t, "x", results[0].Snapshot)
	assert.Equal(t, "y", results[1].Snapshot)
	assert.Equal(t, "Baz", results[2].Member.Name)
}

// --- ImplicitPublicMember ---

func TestImplicitPublicMember(t *testing.T) {
	results := inspect(t, InspectionImplicitPublicMember, std("Module1", `Sub Foo()
End Sub

Public Sub Bar()
End Sub

Function Baz() As Long
End Function

Private Sub Qux()
End Sub
`))
	assertTargets(t, results, "Foo", "Baz")
}

// --- VariableTypeNotDeclared ---

func TestVariableTypeNotDeclared(t *testing.T) {
	results := inspect(t, InspectionVariableTypeNotDeclared, std("Module1", `Private a
Private b As Long
Private c$

Public Sub Foo(ByVal p, ParamArray rest())
    Dim d
    Const e = 1
End Sub
`))
	assertTargets(t, results, "a", "p", "d", "e")
}

// --- ObsoleteGlobal ---

func TestObsoleteGlobal(t *testing.T) {
	results := inspect(t, InspectionObsoleteGlobal, std("Module1", `Global a As Long
Public b As Long
Global Const C As Long = 1
`))
	assertTargets(t, results, "a", "C")
}

// --- MoveFieldCloserToUsage ---

func TestMoveFieldCloserToUsage(t *testing.T) {
	results := inspect(t, InspectionMoveFieldCloserToUsage, std("Module1", `Private a As Long
Private b As Long
Private c As Long
Public d As Long

Public Sub Foo()
    a = 1
    Debug.Print a
    b = 1
    d = 1
End Sub

Public Sub Bar()
    Debug.Print b
End Sub
`))
	assertTargets(t, results, "a")
	assert.Contains(t, results[0].Description, "'Foo'")
}

// --- EncapsulatePublicField ---

func TestEncapsulatePublicField(t *testing.T) {
	results := inspect(t, InspectionEncapsulatePublicField,
		std("Module1", `Public a As Long
Global g As Long
Private b As Long
Dim c As Long
Public Const K As Long = 1
`),
		class("Class1", `Public Title As String
`))
	assertTargets(t, results, "a", "g", "Title")
}

// --- IllegalAnnotation ---

func TestIllegalAnnotation(t *testing.T) {
	results := inspect(t, InspectionIllegalAnnotation, std("Module1", `'@Ignroe ProcedureNotUsed
Private Sub Foo()
    '@TestModule
End Sub

'@TestMethod
Private x As Long

'@Folder "Tests"
'@TestMethod
Private Sub Bar()
End Sub
`))
	require.Len(t, results, 3)
	assertLines(t, results, 1, 3, 6)
	assert.Contains(t, results[0].Description, "'@Ignroe' is not recognized")
	assert.Contains(t, results[0].Notes, "did you mean '@Ignore'?")
	assert.Contains(t, results[1].Description, "not allowed inside a procedure")
	assert.Contains(t, results[2].Description, "must precede a procedure")
	assert.Empty(t, results[0].Fixes)
}
