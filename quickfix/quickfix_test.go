// Copyright © 2024 The vbalint authors

package quickfix

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser"
	"github.com/luthersystems/vbalint/parser/ast"
)

const project = "VBAProject"

type memModule struct {
	typ   ast.ComponentType
	text  string
	dirty bool
}

// memWorkspace is an in-memory Workspace.
type memWorkspace struct {
	mu      sync.Mutex
	modules map[string]*memModule
	order   []string
}

func newWorkspace() *memWorkspace {
	return &memWorkspace{modules: make(map[string]*memModule)}
}

func (w *memWorkspace) add(name string, typ ast.ComponentType, text string) *memWorkspace {
	w.modules[name] = &memModule{typ: typ, text: text}
	w.order = append(w.order, name)
	return w
}

func (w *memWorkspace) std(name, text string) *memWorkspace {
	return w.add(name, ast.StandardModule, text)
}

func (w *memWorkspace) Source(name analysis.QualifiedModuleName) (string, ast.ComponentType, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.modules[name.Component]
	if !ok {
		return "", 0, fmt.Errorf("no module %s", name)
	}
	return m.text, m.typ, nil
}

func (w *memWorkspace) Write(name analysis.QualifiedModuleName, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.modules[name.Component]
	if !ok {
		return fmt.Errorf("no module %s", name)
	}
	m.text, m.dirty = text, true
	return nil
}

func (w *memWorkspace) text(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modules[name].text
}

// inspect runs insps over the current text of every module.
func (w *memWorkspace) inspect(t *testing.T, insps ...*inspection.Inspection) []*inspection.Result {
	t.Helper()
	var mods []*ast.Module
	for _, name := range w.order {
		m := w.modules[name]
		mods = append(mods, parser.Parse(project, name, m.typ, m.text))
	}
	builtins, err := analysis.LoadBuiltins()
	require.NoError(t, err)
	table, err := analysis.Build(context.Background(), mods, &analysis.Options{Builtins: builtins})
	require.NoError(t, err)
	report := inspection.NewRunner(inspection.NewRegistry(insps...), nil).Run(context.Background(), table)
	require.Equal(t, inspection.StateCompleted, report.State)
	var out []*inspection.Result
	for _, r := range report.Results {
		if r.Kind != inspection.KindSyntax {
			out = append(out, r)
		}
	}
	return out
}

// fixOne inspects w with insp, expects a single result and applies fix.
func fixOne(t *testing.T, w *memWorkspace, insp *inspection.Inspection, fix string) *Edit {
	t.Helper()
	results := w.inspect(t, insp)
	require.Len(t, results, 1)
	edit, err := NewEngine(w, nil).Apply(context.Background(), results[0], fix)
	require.NoError(t, err)
	return edit
}

func TestRemoveUnusedDeclaration_Procedure(t *testing.T) {
	w := newWorkspace().std("Module1", `Option Explicit

Private Sub Unused()
End Sub

Public Sub Used()
End Sub
`)
	edit := fixOne(t, w, inspection.InspectionProcedureNotUsed, inspection.FixRemoveUnusedDeclaration)
	assert.Equal(t, "Remove unused declaration", edit.Description)
	assert.Equal(t, `Option Explicit


Public Sub Used()
End Sub
`, w.text("Module1"))
	assert.True(t, w.modules["Module1"].dirty)
}

func TestRemoveUnusedDeclaration_Variables(t *testing.T) {
	w := newWorkspace().std("Module1", `Public Sub Foo()
    Dim a As Long, b As Long
    Dim c As String
    Debug.Print b
End Sub
`)
	results := w.inspect(t, inspection.InspectionVariableNotUsed)
	require.Len(t, results, 2)
	sum, err := NewEngine(w, nil).ApplyAll(context.Background(), results, inspection.FixRemoveUnusedDeclaration)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 2}, sum)
	assert.Equal(t, `Public Sub Foo()
    Dim b As Long
    Debug.Print b
End Sub
`, w.text("Module1"))
}

func TestRemoveUnusedDeclaration_LastOfMany(t *testing.T) {
	w := newWorkspace().std("Module1", `Private Const A As Long = 1, B As Long = 2

Public Sub Foo()
    Debug.Print A
End Sub
`)
	fixOne(t, w, inspection.InspectionConstantNotUsed, inspection.FixRemoveUnusedDeclaration)
	assert.Equal(t, `Private Const A As Long = 1

Public Sub Foo()
    Debug.Print A
End Sub
`, w.text("Module1"))
}

func TestConvertToProcedure(t *testing.T) {
	w := newWorkspace().std("Module1", `Public Function Foo(ByVal x As Long) As Long
    If x > 0 Then Exit Function
    Debug.Print x
End Function
`)
	fixOne(t, w, inspection.InspectionNonReturningFunction, inspection.FixConvertToProcedure)
	assert.Equal(t, `Public Sub Foo(ByVal x As Long)
    If x > 0 Then Exit Sub
    Debug.Print x
End Sub
`, w.text("Module1"))
}

func TestUseTypedFunction(t *testing.T) {
	w := newWorkspace().std("Module1", `Public Sub Foo()
    Debug.Print Left("abc", 1)
End Sub
`)
	fixOne(t, w, inspection.InspectionUntypedFunctionUsage, inspection.FixUseTypedFunction)
	assert.Equal(t, `Public Sub Foo()
    Debug.Print Left$("abc", 1)
End Sub
`, w.text("Module1"))
	assert.Empty(t, w.inspect(t, inspection.InspectionUntypedFunctionUsage))
}

func TestSpecifyExplicitPublicModifier(t *testing.T) {
	w := newWorkspace().std("Module1", `Sub Foo()
End Sub
`)
	fixOne(t, w, inspection.InspectionImplicitPublicMember, inspection.FixSpecifyExplicitPublicModifier)
	assert.Equal(t, `Public Sub Foo()
End Sub
`, w.text("Module1"))
}

func TestDeclareAsExplicitVariant(t *testing.T) {
	w := newWorkspace().std("Module1", `Public Sub Foo(p)
    Dim a, arr(1 To 3)
    Const e = 1
    Debug.Print p, a, arr(1), e
End Sub
`)
	results := w.inspect(t, inspection.InspectionVariableTypeNotDeclared)
	require.Len(t, results, 4)
	sum, err := NewEngine(w, nil).ApplyAll(context.Background(), results, inspection.FixDeclareAsExplicitVariant)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 4}, sum)
	assert.Equal(t, `Public Sub Foo(p As Variant)
    Dim a As Variant, arr(1 To 3) As Variant
    Const e As Variant = 1
    Debug.Print p, a, arr(1), e
End Sub
`, w.text("Module1"))
}

func TestReplaceGlobalModifier(t *testing.T) {
	w := newWorkspace().std("Module1", `Global counter As Long
`)
	fixOne(t, w, inspection.InspectionObsoleteGlobal, inspection.FixReplaceGlobalModifier)
	assert.Equal(t, `Public counter As Long
`, w.text("Module1"))
}

func TestAddOptionExplicit(t *testing.T) {
	w := newWorkspace().
		std("Loose", `' helpers

Private Sub Foo()
End Sub
`).
		std("Header", `Attribute VB_Name = "Header"
`)
	results := w.inspect(t, inspection.InspectionOptionExplicit)
	require.Len(t, results, 2)
	sum, err := NewEngine(w, &Options{Jobs: 1}).ApplyAll(context.Background(), results, inspection.FixAddOptionExplicit)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 2}, sum)
	assert.Equal(t, `' helpers

Option Explicit

Private Sub Foo()
End Sub
`, w.text("Loose"))
	assert.Equal(t, `Attribute VB_Name = "Header"
Option Explicit

`, w.text("Header"))
	assert.Empty(t, w.inspect(t, inspection.InspectionOptionExplicit))
}

func TestReplaceEmptyStringLiteral(t *testing.T) {
	w := newWorkspace().std("Module1", "Public Sub Foo()\r\n    Dim s As String\r\n    s = \"\" & \"\"\r\nEnd Sub\r\n")
	results := w.inspect(t, inspection.InspectionEmptyStringLiteral)
	require.Len(t, results, 2)
	sum, err := NewEngine(w, nil).ApplyAll(context.Background(), results, inspection.FixReplaceEmptyStringLiteral)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 2}, sum)
	assert.Equal(t, "Public Sub Foo()\r\n    Dim s As String\r\n    s = vbNullString & vbNullString\r\nEnd Sub\r\n", w.text("Module1"))
}

func TestRemoveExplicitCallStatement(t *testing.T) {
	w := newWorkspace().std("Module1", `Public Sub Foo()
    Call Bar(1, 2)
    Call Baz
    Call Baz()
End Sub

Public Sub Bar(ByVal x As Long, ByVal y As Long)
End Sub

Public Sub Baz()
End Sub
`)
	results := w.inspect(t, inspection.InspectionObsoleteCallStatement)
	require.Len(t, results, 3)
	sum, err := NewEngine(w, nil).ApplyAll(context.Background(), results, inspection.FixRemoveExplicitCallStatement)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 3}, sum)
	assert.Equal(t, `Public Sub Foo()
    Bar 1, 2
    Baz
    Baz
End Sub

Public Sub Bar(ByVal x As Long, ByVal y As Long)
End Sub

Public Sub Baz()
End Sub
`, w.text("Module1"))
}

func TestIgnoreOnce(t *testing.T) {
	w := newWorkspace().std("Module1", `Option Explicit

    Private Sub Foo()
    End Sub
`)
	edit := fixOne(t, w, inspection.InspectionProcedureNotUsed, inspection.FixIgnoreOnce)
	assert.Equal(t, "Ignore once (ProcedureNotUsed)", edit.Description)
	assert.Equal(t, `Option Explicit

    '@Ignore ProcedureNotUsed
    Private Sub Foo()
    End Sub
`, w.text("Module1"))
	assert.Empty(t, w.inspect(t, inspection.InspectionProcedureNotUsed))
}

func TestIgnoreOnce_MergesAnnotations(t *testing.T) {
	w := newWorkspace().add("Class1", ast.ClassModule, `'@Ignore ImplicitPublicMember
Sub Foo()
End Sub
`)
	fixOne(t, w, inspection.InspectionProcedureNotUsed, inspection.FixIgnoreOnce)
	assert.Equal(t, `'@Ignore ImplicitPublicMember, ProcedureNotUsed
Sub Foo()
End Sub
`, w.text("Class1"))
}

func TestApplyAll_ShiftsSpans(t *testing.T) {
	w := newWorkspace().std("Module1", `Option Explicit

Private Sub Foo(p)
End Sub
`)
	insps := []*inspection.Inspection{
		inspection.InspectionProcedureNotUsed,
		inspection.InspectionParameterNotUsed,
		inspection.InspectionVariableTypeNotDeclared,
	}
	results := w.inspect(t, insps...)
	require.Len(t, results, 3)
	sum, err := NewEngine(w, nil).ApplyAll(context.Background(), results, inspection.FixIgnoreOnce)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 3}, sum)
	assert.Equal(t, `Option Explicit

'@Ignore ParameterNotUsed, VariableTypeNotDeclared, ProcedureNotUsed
Private Sub Foo(p)
End Sub
`, w.text("Module1"))
	assert.Empty(t, w.inspect(t, insps...))
}

func TestApply_Stale(t *testing.T) {
	w := newWorkspace().std("Module1", `Private Sub Foo()
End Sub
`)
	results := w.inspect(t, inspection.InspectionProcedureNotUsed)
	require.Len(t, results, 1)
	engine := NewEngine(w, nil)

	require.NoError(t, w.Write(analysis.QualifiedModuleName{Project: project, Component: "Module1"}, `Private Sub Bar()
End Sub
`))
	_, err := engine.Apply(context.Background(), results[0], inspection.FixRemoveUnusedDeclaration)
	assert.ErrorIs(t, err, ErrFixUnavailable)

	require.NoError(t, w.Write(results[0].Module, "Sub"))
	_, err = engine.Compute(context.Background(), results[0], inspection.FixIgnoreOnce)
	assert.ErrorIs(t, err, ErrFixUnavailable)
	assert.Equal(t, "Sub", w.text("Module1"))
}

func TestApply_FixNotOffered(t *testing.T) {
	w := newWorkspace().std("Module1", `Private Sub Foo()
End Sub
`)
	results := w.inspect(t, inspection.InspectionProcedureNotUsed)
	require.Len(t, results, 1)
	engine := NewEngine(w, nil)
	_, err := engine.Compute(context.Background(), results[0], inspection.FixAddOptionExplicit)
	assert.ErrorIs(t, err, ErrFixUnavailable)
	_, err = engine.Compute(context.Background(), results[0], "NoSuchFix")
	assert.ErrorIs(t, err, ErrFixUnavailable)

	edit, err := engine.Compute(context.Background(), results[0], "removeunuseddeclaration")
	require.NoError(t, err)
	require.Len(t, edit.Changes, 1)
	assert.Equal(t, Change{Pos: 0, End: len("Private Sub Foo()\nEnd Sub\n")}, edit.Changes[0])
	assert.False(t, w.modules["Module1"].dirty)
}

func TestApplyAll_Cancelled(t *testing.T) {
	w := newWorkspace().std("Module1", `Private Sub Foo()
End Sub
`)
	results := w.inspect(t, inspection.InspectionProcedureNotUsed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(w, nil).ApplyAll(ctx, results, inspection.FixRemoveUnusedDeclaration)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, w.modules["Module1"].dirty)
}

func TestNamesAndTitle(t *testing.T) {
	names := Names()
	assert.Len(t, names, 10)
	assert.Contains(t, names, inspection.FixIgnoreOnce)
	r := &inspection.Result{Inspection: "EmptyIfBlock"}
	assert.Equal(t, "Ignore once (EmptyIfBlock)", Title(r, inspection.FixIgnoreOnce))
	assert.Equal(t, "Bogus", Title(r, "Bogus"))
}
