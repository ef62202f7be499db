// Copyright © 2024 The vbalint authors

package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/session"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "Util", ComponentName("VERSION 1.0 CLASS\r\nAttribute VB_Name = \"Util\"\r\n"))
	assert.Equal(t, "", ComponentName("Option Explicit\n"))
	typ, ok := ComponentType("Sheet1.DOCCLS")
	assert.True(t, ok)
	assert.Equal(t, ast.Document, typ)
	_, ok = ComponentType("notes.txt")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "Module1.bas"), []byte("Attribute VB_Name = \"Util\"\nOption Explicit\n"))
	writeFile(t, filepath.Join(root, "src", "Class1.cls"), []byte("Option Explicit\n"))
	writeFile(t, filepath.Join(root, ".git", "Stale.bas"), []byte("Option Explicit\n"))
	writeFile(t, filepath.Join(root, "build", "Generated.bas"), []byte("Option Explicit\n"))
	writeFile(t, filepath.Join(root, "README.txt"), []byte("not code"))
	writeFile(t, filepath.Join(root, "Latin.bas"), []byte("Public Const Label As String = \"caf\xe9\"\n"))
	writeFile(t, filepath.Join(root, "src", "ZCopy.bas"), []byte("Attribute VB_Name = \"util\"\n"))

	proj, err := Load(root, &Options{Name: "Book1", Exclude: []string{"build"}})
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	assert.Contains(t, merr.Errors[0].Error(), "already defined")

	var names []string
	for _, f := range proj.Files {
		names = append(names, f.Name.Component)
		assert.Equal(t, "Book1", f.Name.Project)
	}
	assert.ElementsMatch(t, []string{"Latin", "Class1", "Util"}, names)

	latin := proj.File(analysis.QualifiedModuleName{Project: "Book1", Component: "latin"})
	require.NotNil(t, latin)
	assert.Equal(t, Windows1252, latin.Encoding)
	assert.Contains(t, latin.Text, "café")
	class := proj.File(analysis.QualifiedModuleName{Project: "Book1", Component: "Class1"})
	require.NotNil(t, class)
	assert.Equal(t, ast.ClassModule, class.Type)
}

func TestLoad_MissingRoot(t *testing.T) {
	proj, err := Load(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
	require.NotNil(t, proj)
	assert.Empty(t, proj.Files)
	assert.Equal(t, DefaultName, proj.Name)
}

func TestSave_RoundTrip(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Latin.bas")
	writeFile(t, path, []byte("' caf\xe9\nPublic Sub Foo()\n    Call Bar\nEnd Sub\n\nPublic Sub Bar()\nEnd Sub\n"))

	proj, err := Load(root, nil)
	require.NoError(t, err)
	s, err := session.New(&session.Options{
		Registry: inspection.NewRegistry(inspection.InspectionObsoleteCallStatement),
	})
	require.NoError(t, err)
	proj.Open(s)

	report, err := s.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	_, err = s.Fix(context.Background(), report.Results[0], inspection.FixRemoveExplicitCallStatement)
	require.NoError(t, err)

	written, err := proj.Save(s.Modified())
	require.NoError(t, err)
	assert.Equal(t, []string{path}, written)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "' caf\xe9\nPublic Sub Foo()\n    Bar\nEnd Sub\n\nPublic Sub Bar()\nEnd Sub\n", string(data))
}
