// Copyright © 2024 The vbalint authors

package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser/ast"
)

func qmn(component string) analysis.QualifiedModuleName {
	return analysis.QualifiedModuleName{Project: "VBAProject", Component: component}
}

func newSession(t *testing.T, insps ...*inspection.Inspection) *Session {
	t.Helper()
	opts := &Options{}
	if len(insps) > 0 {
		opts.Registry = inspection.NewRegistry(insps...)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	store := NewStore()
	gen := store.Generation()
	store.Open(Module{Name: qmn("Module1"), Version: 1, Text: "a"})
	assert.NotEqual(t, gen, store.Generation())

	m, ok := store.Get(analysis.QualifiedModuleName{Project: "vbaproject", Component: "MODULE1"})
	require.True(t, ok)
	assert.True(t, m.Dirty)
	assert.False(t, m.Modified)

	gen = store.Generation()
	m, ok = store.Update(qmn("Module1"), 0, "a")
	require.True(t, ok)
	assert.Equal(t, int32(2), m.Version)
	assert.Equal(t, gen, store.Generation(), "same text does not change the generation")

	m, _ = store.Update(qmn("Module1"), 7, "b")
	assert.Equal(t, int32(7), m.Version)
	assert.True(t, m.Modified)

	_, ok = store.Update(qmn("Missing"), 0, "x")
	assert.False(t, ok)
	assert.True(t, store.Remove(qmn("module1")))
	assert.False(t, store.Remove(qmn("module1")))
	mods, _ := store.Modules()
	assert.Empty(t, mods)
}

func TestSession_ParsePublishes(t *testing.T) {
	s := newSession(t)
	assert.Nil(t, s.Table())
	s.Open(qmn("Module1"), ast.StandardModule, "", "Public Sub Foo()\nEnd Sub\n")
	s.Open(qmn("Class1"), ast.ClassModule, "", "Public Title As String\n")

	table, err := s.Parse(context.Background())
	require.NoError(t, err)
	assert.Same(t, table, s.Table())
	assert.Len(t, table.Modules(), 2)
	for _, m := range s.Modules() {
		assert.False(t, m.Dirty, m.Name.String())
	}

	again, err := s.Parse(context.Background())
	require.NoError(t, err)
	assert.Same(t, table, again, "nothing changed")

	require.NoError(t, s.Update(qmn("Module1"), 2, "Public Sub Bar()\nEnd Sub\n"))
	m, _ := s.Module(qmn("Module1"))
	assert.True(t, m.Dirty)
	next, err := s.Parse(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, table, next)
	assert.NotEmpty(t, next.Find("Bar"))
	assert.Empty(t, next.Find("Foo"))
	assert.NotEmpty(t, table.Find("Foo"), "published tables are immutable")

	hits, _ := s.Cache().Stats()
	assert.Equal(t, int64(1), hits, "Class1 is served from the cache")

	s.Remove(qmn("Class1"))
	last, err := s.Parse(context.Background())
	require.NoError(t, err)
	assert.Len(t, last.Modules(), 1)

	assert.Error(t, s.Update(qmn("Class1"), 0, ""))
}

func TestSession_InspectAndFix(t *testing.T) {
	s := newSession(t, inspection.InspectionProcedureNotUsed, inspection.InspectionOptionExplicit)
	s.Open(qmn("Module1"), ast.StandardModule, "Module1.bas", `Option Explicit

Private Sub Unused()
End Sub
`)
	report, err := s.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Same(t, report, s.Report())
	assert.Empty(t, s.Modified())

	edit, err := s.Fix(context.Background(), report.Results[0], inspection.FixRemoveUnusedDeclaration)
	require.NoError(t, err)
	assert.Equal(t, "Remove unused declaration", edit.Description)

	m, _ := s.Module(qmn("Module1"))
	assert.Equal(t, "Option Explicit\n\n", m.Text)
	assert.True(t, m.Dirty)
	require.Len(t, s.Modified(), 1)
	assert.Equal(t, "Module1.bas", s.Modified()[0].Path)

	report, err = s.Inspect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestSession_ReportKeepsLatestCompleted(t *testing.T) {
	s := newSession(t, inspection.InspectionOptionExplicit)
	newer := &inspection.Report{State: inspection.StateCompleted, Seq: 2}
	s.publishReport(newer)
	assert.Same(t, newer, s.Report())

	s.publishReport(&inspection.Report{State: inspection.StateCompleted, Seq: 1})
	assert.Same(t, newer, s.Report(), "an older run does not replace a newer one")

	s.publishReport(&inspection.Report{State: inspection.StateCancelled, Seq: 3})
	assert.Same(t, newer, s.Report(), "cancelled runs are not published")

	latest := &inspection.Report{State: inspection.StateCompleted, Seq: 4}
	s.publishReport(latest)
	assert.Same(t, latest, s.Report())
}

func TestSession_FixAllAcrossModules(t *testing.T) {
	s := newSession(t, inspection.InspectionOptionExplicit)
	for _, name := range []string{"A", "B", "C"} {
		s.Open(qmn(name), ast.StandardModule, "", "Private Sub Foo()\nEnd Sub\n")
	}
	report, err := s.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	sum, err := s.FixAll(context.Background(), report.Results, inspection.FixAddOptionExplicit)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Applied)

	report, err = s.Inspect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestSession_ConcurrentUpdates(t *testing.T) {
	s := newSession(t, inspection.InspectionProcedureNotUsed)
	s.Open(qmn("Module1"), ast.StandardModule, "", "Private Sub Foo()\nEnd Sub\n")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = s.Update(qmn("Module1"), 0, "Private Sub Foo()\nEnd Sub\n' edit\n")
				return
			}
			_, _ = s.Inspect(context.Background())
		}(i)
	}
	wg.Wait()
	report, err := s.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, inspection.StateCompleted, report.State)
	assert.Len(t, report.Results, 1)
}
