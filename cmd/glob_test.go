// Copyright © 2024 The vbalint authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/Module1.bas",
		"src/Legacy.bas",
		"lib/Utils.bas",
	}
	result := filterExcludes(paths, []string{"Legacy.bas"})
	assert.Equal(t, []string{"src/Module1.bas", "lib/Utils.bas"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/Module1.bas",
		"build/Output.bas",
		"build/sub/Deep.cls",
		"lib/Utils.bas",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/Module1.bas", "lib/Utils.bas"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/Module1.bas",
		"src/Generated_Foo.bas",
		"src/Generated_Bar.cls",
		"lib/Utils.bas",
	}
	result := filterExcludes(paths, []string{"Generated_*"})
	assert.Equal(t, []string{"src/Module1.bas", "lib/Utils.bas"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/Module1.bas"}
	assert.Equal(t, paths, filterExcludes(paths, nil))
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("src/Module1.bas", []string{"src/*.bas"}))
	assert.False(t, matchesAny("lib/Module1.bas", []string{"src/*.bas"}))
	assert.True(t, matchesAny("deep/nested/Legacy.bas", []string{"Legacy.bas"}))
	assert.True(t, matchesAny("project/build/Output.bas", []string{"build"}))
	assert.False(t, matchesAny("project/src/Output.bas", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c.bas"}, splitPath("./a/b/c.bas"))
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Module1.bas", "Class1.cls", "sub/Form1.frm", "sub/ThisWorkbook.doccls", "notes.txt", ".git/Hidden.bas", "vendor/Lib.bas"} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("Option Explicit\n"), 0o600))
	}

	files, err := expandArgs([]string{dir}, []string{"vendor"})
	require.NoError(t, err)
	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.ElementsMatch(t, []string{"Module1.bas", "Class1.cls", "sub/Form1.frm", "sub/ThisWorkbook.doccls"}, rel)

	files, err = expandArgs([]string{filepath.Join(dir, "sub") + "/..."}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	single := filepath.Join(dir, "Module1.bas")
	files, err = expandArgs([]string{single}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)
}
